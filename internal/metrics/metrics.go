package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loyalty"

var (
	PointsCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "points_credited_total",
		Help:      "Points credited to accounts, by source.",
	}, []string{"source"})

	PointsDebited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "points_debited_total",
		Help:      "Points debited from accounts, by source.",
	}, []string{"source"})

	DebitsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "debits_rejected_total",
		Help:      "Debits rejected for insufficient balance.",
	})

	CouponsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupons_issued_total",
		Help:      "Coupons issued, by coupon type.",
	}, []string{"coupon_type"})

	CouponRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_redemptions_total",
		Help:      "Coupon redemption attempts, by outcome.",
	}, []string{"outcome"})

	CouponCodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_code_collisions_total",
		Help:      "Generated coupon codes that collided with an existing code.",
	})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reward_events_total",
		Help:      "Reward events received, by kind and outcome.",
	}, []string{"kind", "outcome"})
)

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
