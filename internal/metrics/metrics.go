// Package metrics defines the Prometheus instruments for the sync core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel Metrics
var (
	// ChannelMessagesTotal tracks inbound messages by wire type.
	ChannelMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_messages_total",
			Help: "Inbound channel messages by message type",
		},
		[]string{"type"},
	)

	// ChannelReconnectsTotal tracks scheduled reconnect attempts per channel key.
	ChannelReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channel_reconnects_total",
			Help: "Scheduled reconnect attempts by channel key",
		},
		[]string{"key"},
	)

	// ChannelSendFailuresTotal tracks sends that could not be delivered.
	ChannelSendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_send_failures_total",
			Help: "Messages that could not be sent (not connected or write error)",
		},
	)

	// ChannelsConnected tracks the number of channels currently connected.
	ChannelsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "channels_connected",
			Help: "Channels currently in the connected state",
		},
	)

	// ChannelProtocolErrorsTotal tracks malformed inbound frames.
	ChannelProtocolErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_protocol_errors_total",
			Help: "Inbound frames that failed to decode",
		},
	)
)

// Cache Metrics
var (
	// CacheHitsTotal tracks cache hits by namespace.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by namespace",
		},
		[]string{"namespace"},
	)

	// CacheMissesTotal tracks cache misses by namespace.
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by namespace",
		},
		[]string{"namespace"},
	)

	// CacheEvictionsTotal tracks capacity evictions by namespace.
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Capacity evictions by namespace",
		},
		[]string{"namespace"},
	)
)

// Polling Metrics
var (
	// PollingTicksTotal tracks status-poll ticks.
	PollingTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polling_ticks_total",
			Help: "Status polling ticks performed",
		},
	)

	// PollingErrorsTotal tracks failed status-poll ticks.
	PollingErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polling_errors_total",
			Help: "Status polling ticks that failed",
		},
	)
)

// Sync Engine Metrics
var (
	// SyncEventsTotal tracks ingested timed events by stream.
	SyncEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_events_total",
			Help: "Timed events ingested by stream",
		},
		[]string{"stream"},
	)

	// SyncRejectedTotal tracks events rejected at ingestion by stream.
	SyncRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_rejected_total",
			Help: "Timed events rejected at ingestion by stream",
		},
		[]string{"stream"},
	)
)
