package effect

// Active tracks one applied effect on a combatant.
type Active struct {
	Effect Effect
	Stacks int
	// TurnsRemaining counts the holder's remaining turns; unused for DOTs.
	TurnsRemaining int
	// ProcsRemaining and NextTickMs drive DOT entries only.
	ProcsRemaining int
	NextTickMs     int64
}

// ActiveSet tracks all effects currently applied to one combatant.
// Entries are kept in application order so that iteration, and therefore
// random draws made while iterating, are reproducible.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	entries []*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{}
}

func (s *ActiveSet) find(slot string) (int, *Active) {
	for i, a := range s.entries {
		if a.Effect.slot() == slot {
			return i, a
		}
	}
	return -1, nil
}

// Apply adds or refreshes an effect at simulated time nowMs.
// Debuffs stack up to MaxStacks (0 means 1); every other kind replaces the
// existing entry's parameters. On re-apply the remaining duration becomes
// max(existing, new).
//
// Precondition: e must pass Validate.
// Postcondition: Has(e.Kind()) is true.
func (s *ActiveSet) Apply(e Effect, nowMs int64) {
	_, existing := s.find(e.slot())
	switch v := e.(type) {
	case DOT:
		if existing != nil {
			existing.Effect = v
			if v.Procs > existing.ProcsRemaining {
				existing.ProcsRemaining = v.Procs
			}
			return
		}
		s.entries = append(s.entries, &Active{
			Effect:         v,
			Stacks:         1,
			ProcsRemaining: v.Procs,
			NextTickMs:     nowMs + v.IntervalMs,
		})
	case AccuracyDebuff:
		s.stack(existing, v, v.Turns, v.MaxStacks)
	case EvasionDebuff:
		s.stack(existing, v, v.Turns, v.MaxStacks)
	case Stun:
		s.replace(existing, v, v.Turns)
	case Sleep:
		s.replace(existing, v, v.Turns)
	case Curse:
		s.replace(existing, v, v.Turns)
	case Reflect:
		s.replace(existing, v, v.Turns)
	case Lifesteal:
		s.replace(existing, v, v.Turns)
	}
}

func (s *ActiveSet) replace(existing *Active, e Effect, turns int) {
	if existing == nil {
		s.entries = append(s.entries, &Active{Effect: e, Stacks: 1, TurnsRemaining: turns})
		return
	}
	existing.Effect = e
	if turns > existing.TurnsRemaining {
		existing.TurnsRemaining = turns
	}
}

func (s *ActiveSet) stack(existing *Active, e Effect, turns, maxStacks int) {
	if maxStacks < 1 {
		maxStacks = 1
	}
	if existing == nil {
		s.entries = append(s.entries, &Active{Effect: e, Stacks: 1, TurnsRemaining: turns})
		return
	}
	existing.Effect = e
	if existing.Stacks < maxStacks {
		existing.Stacks++
	}
	if turns > existing.TurnsRemaining {
		existing.TurnsRemaining = turns
	}
}

// Remove deletes every entry of kind k. Removing an absent kind is a no-op.
//
// Postcondition: Has(k) is false.
func (s *ActiveSet) Remove(k Kind) {
	kept := s.entries[:0]
	for _, a := range s.entries {
		if a.Effect.Kind() != k {
			kept = append(kept, a)
		}
	}
	s.entries = kept
}

// TickTurn decrements TurnsRemaining of every turn-based entry by one and
// removes entries that reach zero. DOT entries are unaffected.
//
// Postcondition: For every kind in the returned slice, the expired entry is gone.
func (s *ActiveSet) TickTurn() []Kind {
	var expired []Kind
	kept := s.entries[:0]
	for _, a := range s.entries {
		if a.Effect.Kind() == KindDOT {
			kept = append(kept, a)
			continue
		}
		a.TurnsRemaining--
		if a.TurnsRemaining <= 0 {
			expired = append(expired, a.Effect.Kind())
			continue
		}
		kept = append(kept, a)
	}
	s.entries = kept
	return expired
}

// NextDOT returns the earliest pending DOT tick time.
//
// Postcondition: ok is false iff no DOT is active.
func (s *ActiveSet) NextDOT() (at int64, ok bool) {
	for _, a := range s.entries {
		if a.Effect.Kind() != KindDOT {
			continue
		}
		if !ok || a.NextTickMs < at {
			at, ok = a.NextTickMs, true
		}
	}
	return at, ok
}

// TickDOTs fires every DOT due at or before nowMs once, returning the summed
// damage and the number of procs. Exhausted DOTs are removed.
//
// Postcondition: damage >= 0.
func (s *ActiveSet) TickDOTs(nowMs int64) (damage, procs int) {
	kept := s.entries[:0]
	for _, a := range s.entries {
		d, isDOT := a.Effect.(DOT)
		if !isDOT || a.NextTickMs > nowMs {
			kept = append(kept, a)
			continue
		}
		damage += d.Damage
		procs++
		a.ProcsRemaining--
		a.NextTickMs += d.IntervalMs
		if a.ProcsRemaining > 0 {
			kept = append(kept, a)
		}
	}
	s.entries = kept
	return damage, procs
}

// Has reports whether any entry of kind k is active.
func (s *ActiveSet) Has(k Kind) bool {
	for _, a := range s.entries {
		if a.Effect.Kind() == k {
			return true
		}
	}
	return false
}

// Disabled reports whether the holder loses its turn to a stun or sleep.
func (s *ActiveSet) Disabled() bool {
	return s.Has(KindStun) || s.Has(KindSleep)
}

// Stacks returns the stack count for kind k, or 0 if not present.
func (s *ActiveSet) Stacks(k Kind) int {
	for _, a := range s.entries {
		if a.Effect.Kind() == k {
			return a.Stacks
		}
	}
	return 0
}

// AccuracyPenalty returns the total accuracy reduction in percent, capped at 100.
func (s *ActiveSet) AccuracyPenalty() float64 {
	total := 0.0
	for _, a := range s.entries {
		if d, ok := a.Effect.(AccuracyDebuff); ok {
			total += d.Percent * float64(a.Stacks)
		}
	}
	return capPercent(total)
}

// EvasionPenalty returns the total evasion reduction in percent, capped at 100.
func (s *ActiveSet) EvasionPenalty() float64 {
	total := 0.0
	for _, a := range s.entries {
		if d, ok := a.Effect.(EvasionDebuff); ok {
			total += d.Percent * float64(a.Stacks)
		}
	}
	return capPercent(total)
}

// CursePenalty returns the active curse's damage reduction penalty and
// damage-taken increase, or zeros without a curse.
func (s *ActiveSet) CursePenalty() (damageReduction, damageTaken float64) {
	for _, a := range s.entries {
		if c, ok := a.Effect.(Curse); ok {
			return c.DamageReduction, c.DamageTakenPercent
		}
	}
	return 0, 0
}

// ReflectPercent returns the active reflect percentage, or 0.
func (s *ActiveSet) ReflectPercent() float64 {
	for _, a := range s.entries {
		if r, ok := a.Effect.(Reflect); ok {
			return r.Percent
		}
	}
	return 0
}

// LifestealPercent returns the active lifesteal percentage, or 0.
func (s *ActiveSet) LifestealPercent() float64 {
	for _, a := range s.entries {
		if l, ok := a.Effect.(Lifesteal); ok {
			return l.Percent
		}
	}
	return 0
}

// Len returns the number of active entries.
func (s *ActiveSet) Len() int {
	return len(s.entries)
}

// Clear removes every entry.
//
// Postcondition: Len() == 0.
func (s *ActiveSet) Clear() {
	s.entries = s.entries[:0]
}

func capPercent(p float64) float64 {
	if p > 100 {
		return 100
	}
	return p
}
