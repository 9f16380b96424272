package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("warden")

var messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_messages_received",
	Help: "Number of message events received from the gateway",
})

var messagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_messages_processed",
	Help: "Number of message events run through the moderation engine",
})

var messagesFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_messages_failed",
	Help: "Number of message events that failed processing",
})

var messagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_messages_skipped",
	Help: "Number of gateway frames skipped (wrong type or undecodable)",
})

var gatewayReconnects = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_gateway_reconnects",
	Help: "Number of times the gateway websocket was re-dialed",
})

var currentSeq = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_current_seq",
	Help: "Current gateway sequence number",
})
