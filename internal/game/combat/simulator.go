package combat

import (
	"math"

	"github.com/cory-johannsen/idlesim/internal/game/dice"
	"github.com/cory-johannsen/idlesim/internal/game/effect"
	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/stats"
)

// DefaultMaxDurationMs bounds an encounter when Options leaves it unset.
const DefaultMaxDurationMs int64 = 3_600_000

// Options configures a Simulator.
type Options struct {
	// MaxDurationMs is the simulated time after which an encounter times out.
	MaxDurationMs int64
	// Trace, when non-nil, receives every state-machine transition.
	Trace Trace
}

// Simulator resolves encounters using one randomness source. It is not safe
// for concurrent use; each worker owns its own Simulator.
type Simulator struct {
	src  dice.Source
	opts Options

	now     int64
	phase   Phase
	out     Outcome
	pending []effect.Effect
}

// NewSimulator creates a Simulator drawing from src.
//
// Precondition: src must be non-nil.
func NewSimulator(src dice.Source, opts Options) *Simulator {
	if opts.MaxDurationMs <= 0 {
		opts.MaxDurationMs = DefaultMaxDurationMs
	}
	return &Simulator{src: src, opts: opts}
}

// timer identifies a scheduled event; declaration order is the tie order.
type timer int

const (
	timerPlayer timer = iota
	timerSummon
	timerEnemy
	timerEnemyDOT
	timerPlayerDOT
	timerRegen
	timerCount
)

const never int64 = math.MaxInt64

// Run resolves one encounter between p and e. The enemy is respawned first;
// the player keeps its current hitpoints and food but starts without
// effects. Run never blocks and always terminates.
//
// Precondition: p.IsAlive().
// Postcondition: Result is ResultKill iff !e.IsAlive(), ResultDeath iff
// !p.IsAlive(), and DurationMs <= MaxDurationMs.
func (s *Simulator) Run(p *Player, e *Enemy) Outcome {
	e.Respawn()
	p.effects.Clear()
	s.now = 0
	s.out = Outcome{}
	s.setPhase(SidePlayer, PhaseIdle)
	before := p.Usage()

	if !CanDamage(p, e) && !CanDamage(e, p) {
		s.now = s.opts.MaxDurationMs
		return s.finish(ResultTimeout, p, before)
	}

	ps, es := p.StatsOf(), e.StatsOf()
	var next [timerCount]int64
	next[timerPlayer] = ps.AttackIntervalMs
	next[timerSummon] = never
	if ps.SummonMaxHit > 0 && ps.SummonIntervalMs > 0 {
		next[timerSummon] = ps.SummonIntervalMs
	}
	next[timerEnemy] = es.AttackIntervalMs
	next[timerRegen] = never
	if ps.RegenPerTick > 0 || ps.PrayerCost.PerRegen > 0 {
		next[timerRegen] = stats.RegenIntervalMs
	}

	for {
		next[timerEnemyDOT] = nextDOT(e)
		next[timerPlayerDOT] = nextDOT(p)

		which, at := timerCount, never
		for t := timerPlayer; t < timerCount; t++ {
			if next[t] < at {
				which, at = t, next[t]
			}
		}
		if which == timerCount || at > s.opts.MaxDurationMs {
			s.now = s.opts.MaxDurationMs
			s.setPhase(SidePlayer, PhaseTimedOut)
			return s.finish(ResultTimeout, p, before)
		}
		s.now = at

		switch which {
		case timerPlayer:
			s.attack(p, e, SidePlayer)
			next[timerPlayer] += ps.AttackIntervalMs
		case timerSummon:
			s.summonAttack(p, e)
			next[timerSummon] += ps.SummonIntervalMs
		case timerEnemy:
			s.attack(e, p, SideEnemy)
			next[timerEnemy] += es.AttackIntervalMs
		case timerEnemyDOT:
			s.tickDOTs(e, SidePlayer)
		case timerPlayerDOT:
			s.tickDOTs(p, SideEnemy)
		case timerRegen:
			s.regen(p)
			next[timerRegen] += stats.RegenIntervalMs
		}

		s.setPhase(SidePlayer, PhaseCheckingTermination)
		switch {
		case !e.IsAlive():
			s.setPhase(SideEnemy, PhaseDead)
			return s.finish(ResultKill, p, before)
		case !p.IsAlive():
			s.setPhase(SidePlayer, PhaseDead)
			return s.finish(ResultDeath, p, before)
		}
		s.out.Counts.FoodEaten += p.autoEat()
	}
}

// Phase returns the state-machine phase reached by the last step.
func (s *Simulator) Phase() Phase { return s.phase }

func (s *Simulator) finish(r Result, p *Player, before Usage) Outcome {
	after := p.Usage()
	s.out.Result = r
	s.out.DurationMs = s.now
	s.out.PrayerPoints = after.PrayerPoints - before.PrayerPoints
	s.out.PotionCharges = after.PotionCharges - before.PotionCharges
	return s.out
}

func (s *Simulator) setPhase(actor Side, ph Phase) {
	s.phase = ph
	s.trace(Event{Actor: actor, Phase: ph})
}

func (s *Simulator) trace(ev Event) {
	if s.opts.Trace == nil {
		return
	}
	ev.AtMs = s.now
	s.opts.Trace(ev)
}

func nextDOT(c Combatant) int64 {
	if at, ok := c.core().effects.NextDOT(); ok {
		return at
	}
	return never
}

// attack resolves one turn of attacker against defender.
func (s *Simulator) attack(attacker, defender Combatant, side Side) {
	a, d := attacker.core(), defender.core()
	s.setPhase(side, PhaseRollingAttack)

	if a.effects.Disabled() {
		s.out.Counts.StunnedTurns++
		a.effects.TickTurn()
		return
	}

	isPlayer := side == SidePlayer
	if isPlayer {
		s.out.Counts.PlayerAttacks++
		attacker.ConsumeResource(ResourcePrayerPoints, a.stats.PrayerCost.PerPlayerAttack)
		if a.stats.PotionCharges > 0 {
			attacker.ConsumeResource(ResourcePotionCharges, 1)
		}
	} else {
		s.out.Counts.EnemyAttacks++
		defender.ConsumeResource(ResourcePrayerPoints, d.stats.PrayerCost.PerEnemyAttack)
	}

	special := s.chooseSpecial(a.specials)
	if special != nil {
		s.out.Counts.Specials++
	}

	hit := special != nil && special.AlwaysHits
	if !hit {
		hit = dice.Chance(s.src, attackHitChance(a, d))
	}
	specialID := ""
	if special != nil {
		specialID = special.ID
	}
	if !hit {
		if isPlayer {
			s.out.Counts.PlayerMisses++
		} else {
			s.out.Counts.EnemyMisses++
		}
		s.trace(Event{Actor: side, Phase: PhaseResolvingDamage, Special: specialID})
		a.effects.TickTurn()
		return
	}
	if isPlayer {
		s.out.Counts.PlayerHits++
	} else {
		s.out.Counts.EnemyHits++
	}

	s.phase = PhaseResolvingDamage
	dmg := s.applyReduction(d, s.rollDamage(a, d, special))
	if special == nil || special.Damage == gamedata.DamageNormal {
		dmg = min(dmg, a.stats.MaxHit)
	}
	s.trace(Event{Actor: side, Phase: PhaseResolvingDamage, Hit: true, Damage: dmg, Special: specialID})
	dealt := d.takeDamage(dmg)
	s.book(side, dmg, dealt)

	// Secondary applications never trigger further reflect or lifesteal.
	if dealt > 0 && d.hp > 0 {
		if pct := d.stats.ReflectPercent + d.effects.ReflectPercent(); pct > 0 {
			if back := int(math.Floor(float64(dealt) * pct / 100)); back > 0 {
				s.out.Counts.ReflectProcs++
				s.book(opposite(side), back, a.takeDamage(back))
			}
		}
	}
	if dealt > 0 {
		if pct := a.stats.LifestealPercent + a.effects.LifestealPercent(); pct > 0 {
			if a.heal(int(math.Floor(float64(dealt)*pct/100))) > 0 {
				s.out.Counts.LifestealProcs++
			}
		}
	}

	s.setPhase(side, PhaseApplyingEffects)
	s.pending = s.pending[:0]
	if special != nil {
		for _, spec := range special.Effects {
			if !dice.Chance(s.src, spec.Chance/100) {
				continue
			}
			s.out.Counts.EffectsApplied++
			if spec.Target == effect.Self {
				s.pending = append(s.pending, spec.Effect)
				continue
			}
			defender.ApplyEffect(spec.Effect, s.now)
		}
	}
	a.effects.TickTurn()
	for _, eff := range s.pending {
		attacker.ApplyEffect(eff, s.now)
	}
}

// summonAttack resolves one familiar attack using the player's accuracy.
func (s *Simulator) summonAttack(p *Player, e *Enemy) {
	s.setPhase(SideSummon, PhaseRollingAttack)
	s.out.Counts.SummonAttacks++
	if !dice.Chance(s.src, attackHitChance(&p.fighter, &e.fighter)) {
		s.trace(Event{Actor: SideSummon, Phase: PhaseResolvingDamage})
		return
	}
	s.out.Counts.SummonHits++
	dmg := min(s.applyReduction(&e.fighter, dice.Between(s.src, 1, p.stats.SummonMaxHit)), p.stats.SummonMaxHit)
	s.trace(Event{Actor: SideSummon, Phase: PhaseResolvingDamage, Hit: true, Damage: dmg})
	s.book(SidePlayer, dmg, e.takeDamage(dmg))
}

// tickDOTs fires the DOTs held by holder; source is the side credited.
func (s *Simulator) tickDOTs(holder Combatant, source Side) {
	h := holder.core()
	dmg, procs := h.effects.TickDOTs(s.now)
	s.out.Counts.DOTProcs += procs
	s.trace(Event{Actor: source, Phase: PhaseApplyingEffects, Hit: true, Damage: dmg})
	s.book(source, dmg, h.takeDamage(dmg))
}

func (s *Simulator) regen(p *Player) {
	s.out.Counts.Regens++
	p.heal(p.stats.RegenPerTick)
	p.ConsumeResource(ResourcePrayerPoints, p.stats.PrayerCost.PerRegen)
}

// book credits damage of size hit, of which applied hitpoints were removed,
// to source.
func (s *Simulator) book(source Side, hit, applied int) {
	if source == SideEnemy {
		s.out.DamageTaken += applied
		if hit > s.out.HighestHitTaken {
			s.out.HighestHitTaken = hit
		}
		return
	}
	s.out.DamageDealt += applied
}

func opposite(side Side) Side {
	if side == SideEnemy {
		return SidePlayer
	}
	return SideEnemy
}

// chooseSpecial picks at most one special with a single percent roll over the
// cumulative chances.
func (s *Simulator) chooseSpecial(specials []gamedata.SpecialAttack) *gamedata.SpecialAttack {
	if len(specials) == 0 {
		return nil
	}
	roll := s.src.Float64() * 100
	acc := 0.0
	for i := range specials {
		acc += specials[i].Chance
		if roll < acc {
			return &specials[i]
		}
	}
	return nil
}

// rollDamage draws the pre-reduction damage of a hit.
func (s *Simulator) rollDamage(a, d *fighter, special *gamedata.SpecialAttack) int {
	if special != nil {
		switch special.Damage {
		case gamedata.DamageFixed:
			return int(special.Value)
		case gamedata.DamageMaxHitMultiplier:
			return int(math.Floor(float64(a.stats.MaxHit) * special.Value))
		case gamedata.DamageTargetMaxHPPercent:
			return int(math.Floor(float64(d.stats.MaxHitpoints) * special.Value / 100))
		case gamedata.DamageNormal:
		}
	}
	if a.stats.MaxHit <= 0 {
		return 0
	}
	return dice.Between(s.src, a.stats.MinHit, a.stats.MaxHit)
}

// applyReduction applies the defender's damage reduction, lowered by any
// curse, and the curse's damage-taken increase.
func (s *Simulator) applyReduction(d *fighter, dmg int) int {
	curseDR, taken := d.effects.CursePenalty()
	return ReduceDamage(dmg, d.stats.DamageReduction-curseDR, taken)
}

// ReduceDamage applies damage reduction dr (clamped to [0, 100]) as
// floor(dmg * (1 - dr/100)) and then a damage-taken increase in percent.
//
// Postcondition: result >= 0.
func ReduceDamage(dmg int, dr, takenPercent float64) int {
	if dmg <= 0 {
		return 0
	}
	dr = math.Min(math.Max(dr, 0), 100)
	out := math.Floor(float64(dmg) * (1 - dr/100))
	out = math.Floor(out * (1 + takenPercent/100))
	return max(int(out), 0)
}

// attackHitChance applies accuracy and evasion debuffs to the base curve.
func attackHitChance(a, d *fighter) float64 {
	acc := a.stats.MaxAccuracy * (1 - a.effects.AccuracyPenalty()/100)
	eva := d.stats.MaxEvasion.Against(a.stats.AttackType) * (1 - d.effects.EvasionPenalty()/100)
	return stats.HitChance(acc, eva)
}

// CanDamage reports whether attacker could ever reduce defender's hitpoints
// given both sides' base statistics and attacker's specials. Damage is
// judged after the defender's damage reduction, lowered by the strongest
// curse the attacker can apply.
func CanDamage(attacker, defender Combatant) bool {
	a, d := attacker.core(), defender.core()
	if largestHit(a, d) > 0 {
		return true
	}
	hits := stats.HitChance(a.stats.MaxAccuracy, d.stats.MaxEvasion.Against(a.stats.AttackType)) > 0
	if hits && ReduceDamage(a.stats.SummonMaxHit, effectiveDR(a, d), 0) > 0 {
		return true
	}
	for _, sp := range a.specials {
		if sp.Chance > 0 && (hits || sp.AlwaysHits) && hasDOT([]gamedata.SpecialAttack{sp}) {
			return true
		}
	}
	// Reflect only returns damage the defender itself lands on the attacker.
	if a.stats.ReflectPercent <= 0 {
		return false
	}
	return int(math.Floor(float64(largestHit(d, a))*a.stats.ReflectPercent/100)) > 0
}

// largestHit returns the largest damage any single attack of a can land on
// d, or 0 when a can never hit.
func largestHit(a, d *fighter) int {
	dr := effectiveDR(a, d)
	hits := stats.HitChance(a.stats.MaxAccuracy, d.stats.MaxEvasion.Against(a.stats.AttackType)) > 0
	best := 0
	if hits {
		best = ReduceDamage(a.stats.MaxHit, dr, 0)
	}
	for _, sp := range a.specials {
		if sp.Chance <= 0 || (!hits && !sp.AlwaysHits) {
			continue
		}
		raw := a.stats.MaxHit
		switch sp.Damage {
		case gamedata.DamageFixed:
			raw = int(sp.Value)
		case gamedata.DamageTargetMaxHPPercent:
			raw = int(math.Floor(float64(d.stats.MaxHitpoints) * sp.Value / 100))
		case gamedata.DamageMaxHitMultiplier:
			raw = int(math.Floor(float64(a.stats.MaxHit) * sp.Value))
		case gamedata.DamageNormal:
		}
		best = max(best, ReduceDamage(raw, dr, 0))
	}
	return best
}

// effectiveDR is d's damage reduction less the largest curse penalty a's
// specials can apply to it.
func effectiveDR(a, d *fighter) float64 {
	penalty := 0.0
	for _, sp := range a.specials {
		for _, spec := range sp.Effects {
			if c, ok := spec.Effect.(effect.Curse); ok && spec.Target != effect.Self {
				penalty = math.Max(penalty, c.DamageReduction)
			}
		}
	}
	return d.stats.DamageReduction - penalty
}

func hasDOT(specials []gamedata.SpecialAttack) bool {
	for _, sp := range specials {
		for _, spec := range sp.Effects {
			if spec.Effect.Kind() == effect.KindDOT && spec.Target != effect.Self {
				return true
			}
		}
	}
	return false
}
