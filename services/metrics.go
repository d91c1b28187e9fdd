package services

import "github.com/prometheus/client_golang/prometheus"

var (
	xpAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pie_xp_awarded_total",
			Help: "XP granted, by event type",
		},
		[]string{"event_type"},
	)
	levelUpsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pie_level_ups_total",
		Help: "Stored level raises",
	})
	badgesGrantedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pie_badges_granted_total",
		Help: "First-time badge grants",
	})
	achievementsUnlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pie_achievements_unlocked_total",
		Help: "First-time achievement unlocks",
	})
	challengesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pie_challenges_completed_total",
		Help: "Challenge completions",
	})
	awardDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pie_award_duration_seconds",
		Help:    "AwardXP latency including cascades",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		xpAwardedTotal,
		levelUpsTotal,
		badgesGrantedTotal,
		achievementsUnlockedTotal,
		challengesCompletedTotal,
		awardDuration,
	)
}
