package event

const (
	EventWagerSettled    = "wager.settled"
	EventWagerDowngraded = "wager.downgraded"
	EventWithdrawRequest = "withdraw.requested"
	EventWithdrawReject  = "withdraw.rejected"
	EventPoolAdjusted    = "pool.adjusted"
	EventConfigUpdated   = "config.updated"
)
