package wager

import "fmt"

type GameSpec struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	MinBet float64 `json:"min_bet"`
	MaxBet float64 `json:"max_bet"`
}

var games = map[string]GameSpec{
	"dice":     {Type: "dice", Name: "Dice Roll", MinBet: 0.1, MaxBet: 1000},
	"coin":     {Type: "coin", Name: "Coin Flip", MinBet: 0.1, MaxBet: 500},
	"number":   {Type: "number", Name: "Lucky Number", MinBet: 0.1, MaxBet: 2000},
	"color":    {Type: "color", Name: "Color Game", MinBet: 0.1, MaxBet: 1000},
	"roulette": {Type: "roulette", Name: "Roulette", MinBet: 1, MaxBet: 5000},
	"crash":    {Type: "crash", Name: "Crash Game", MinBet: 0.5, MaxBet: 1000},
}

func ListGames() []GameSpec {
	out := make([]GameSpec, 0, len(games))
	for _, g := range games {
		out = append(out, g)
	}
	return out
}

// ValidateBet checks the game exists and the bet falls inside its table
// limits. This runs before any money moves.
func ValidateBet(gameType string, bet float64) error {
	g, ok := games[gameType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGame, gameType)
	}
	if bet < g.MinBet || bet > g.MaxBet {
		return fmt.Errorf("%w: %.2f outside [%.2f, %.2f] for %s",
			ErrInvalidBet, bet, g.MinBet, g.MaxBet, gameType)
	}
	return nil
}
