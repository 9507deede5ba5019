package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	WagersSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wagers_settled_total",
			Help: "Settled wagers by result and pattern",
		},
		[]string{"result", "pattern"},
	)

	WagerDowngrades = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wager_downgrades_total",
			Help: "Wins downgraded to losses after a failed pool payout",
		},
	)

	PoolBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reserve_pool_balance",
			Help: "Current reserve pool balance",
		},
		[]string{"pool"},
	)

	PoolContributions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reserve_pool_contributions_total",
			Help: "Total amount contributed to reserve pools",
		},
	)

	PoolPayouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reserve_pool_payouts_total",
			Help: "Total amount paid out of reserve pools",
		},
	)

	WithdrawalRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_rejections_total",
			Help: "Withdrawals rejected by rate-limit window",
		},
		[]string{"window"},
	)
)

func Init() {
	prometheus.MustRegister(WagersSettled)
	prometheus.MustRegister(WagerDowngrades)
	prometheus.MustRegister(PoolBalance)
	prometheus.MustRegister(PoolContributions)
	prometheus.MustRegister(PoolPayouts)
	prometheus.MustRegister(WithdrawalRejections)
}
