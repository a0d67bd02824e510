package services

import "github.com/prometheus/client_golang/prometheus"

var (
	suggestionsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "suggestions_submitted_total",
			Help: "Total number of submitted suggestions.",
		},
	)

	// direction is "up" for a new vote and "down" for a withdrawn one.
	suggestionVotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_votes_total",
			Help: "Total number of vote toggles.",
		},
		[]string{"direction"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_status_changes_total",
			Help: "Total number of admin status changes by target status.",
		},
		[]string{"status"},
	)

	commentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comments_created_total",
			Help: "Total number of comments.",
		},
	)

	notificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications by type.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(suggestionsSubmitted, suggestionVotes, statusChanges, commentsCreated, notificationsCreated)
}
