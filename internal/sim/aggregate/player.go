package aggregate

import (
	"github.com/cory-johannsen/idlesim/internal/game/combat"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
)

// Player is the immutable player input of a run: the combat profile plus
// the prices used to cost consumables.
type Player struct {
	Profile     combat.Profile `json:"-"`
	FoodPrice   int            `json:"foodPrice"`
	PotionPrice int            `json:"potionPrice"`
}

// NewPlayer resolves s into a Player.
//
// Precondition: s must come from loadout.Freeze.
func NewPlayer(s *loadout.Snapshot) Player {
	p := Player{Profile: combat.NewProfile(s)}
	if food, _, ok := s.Food(); ok {
		p.FoodPrice = food.SellPrice
	}
	if pot, ok := s.Potion(); ok {
		p.PotionPrice = pot.SellPrice
	}
	return p
}

// consumableCost returns the gp spent per encounter on consumables.
func (p Player) consumableCost(s StageStats) float64 {
	cost := s.Food * float64(p.FoodPrice)
	cost += s.Potions * float64(p.PotionPrice)
	cost += s.PlayerAttacks * float64(p.Profile.Stats.CastCost)
	return cost
}
