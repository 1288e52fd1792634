package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_events_published_total",
		Help: "Domain events published to Kafka, by topic and event type.",
	}, []string{"topic", "event_type"})

	publishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_event_publish_failures_total",
		Help: "Failed Kafka publish attempts, by topic.",
	}, []string{"topic"})

	messagesHandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_messages_handled_total",
		Help: "Consumed messages, by topic and handling result.",
	}, []string{"topic", "result"})
)

const (
	resultOK        = "ok"
	resultRejected  = "rejected"
	resultRetryable = "retryable"
)
