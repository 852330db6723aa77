package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation names used as metric label.
const (
	opLogin     = "login"
	opRegister  = "register"
	opLogout    = "logout"
	opBootstrap = "bootstrap"
)

var operations = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "knowledge_console",
		Name:      "auth_operations_total",
		Help:      "Number of credential operations, differentiated by operation and result.",
	},
	[]string{"operation", "result"},
)

func observe(operation string, err error) {
	result := "success"

	switch {
	case err == nil:
	case isStale(err):
		result = "superseded"
	default:
		result = "failure"
	}

	operations.WithLabelValues(operation, result).Inc()
}
