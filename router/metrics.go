package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "router_queue_depth",
		Help: "Commands waiting for the machine",
	})

	commandsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "router_commands_enqueued_total",
		Help: "Total commands appended to the queue",
	})

	commandsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "router_commands_dispatched_total",
		Help: "Total commands handed to the machine",
	})

	commandFaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "router_command_faults_total",
		Help: "Total commands the machine refused",
	})

	trailPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "router_trail_points",
		Help: "Position history entries at last inspection",
	})
)
