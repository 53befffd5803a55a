package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	threadsConverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modmigrate_threads_converted_total",
		Help: "Threads converted and persisted successfully.",
	})
	threadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "modmigrate_threads_failed_total",
		Help: "Threads whose conversion failed and was recorded.",
	})
)
