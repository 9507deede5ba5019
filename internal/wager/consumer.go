package wager

import (
	"fmt"

	"wager-platform/internal/event"
)

type Auditor interface {
	Log(uid int64, action string, metadata string)
}

type Broadcaster interface {
	BroadcastJSON(v interface{})
}

// RegisterConsumers wires the settlement events to their side effects: audit
// rows, the profit leaderboard, and the live websocket feed.
func RegisterConsumers(bus *event.Bus, audit Auditor, lb *Leaderboard, ws Broadcaster) {
	bus.Subscribe(event.EventWagerSettled, func(payload interface{}) {
		res, ok := payload.(*Result)
		if !ok {
			return
		}

		audit.Log(res.UID, "wager_settled",
			fmt.Sprintf("game=%s bet=%.2f win=%.2f pattern=%s",
				res.GameType, res.BetAmount, res.WinAmount, res.Pattern))

		lb.Record(res.UID, res.WinAmount-res.BetAmount)

		if ws != nil {
			ws.BroadcastJSON(res)
		}
	})

	bus.Subscribe(event.EventWagerDowngraded, func(payload interface{}) {
		res, ok := payload.(*Result)
		if !ok {
			return
		}
		audit.Log(res.UID, "wager_downgraded",
			fmt.Sprintf("reason=%s pattern=%s bet=%.2f",
				res.DowngradeReason, res.Pattern, res.BetAmount))
	})
}
