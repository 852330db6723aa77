package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var resets = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "knowledge_console",
		Name:      "session_resets_total",
		Help:      "Number of times the session was cleared, differentiated by reason.",
	},
	[]string{"reason"},
)
