package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store Metrics
var (
	// StoreOpsTotal tracks total document store operations by document, operation and status
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total document store operations by document, operation and status",
		},
		[]string{"document", "operation", "status"},
	)

	// StoreCorruptReads tracks reads that fell back to the default document
	StoreCorruptReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_corrupt_reads_total",
			Help: "Reads of empty or unparsable documents that returned the fallback",
		},
		[]string{"document"},
	)
)

// Broadcast Hub Metrics
var (
	// HubConnectedClients tracks total number of connected WebSocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of connected WebSocket overlay clients",
		},
	)

	// HubSlowClientsEvicted tracks number of slow clients evicted
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total number of slow WebSocket clients evicted due to buffer full",
		},
	)

	// HubEventsTotal tracks broadcast events by event name
	HubEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_total",
			Help: "Broadcast events delivered to the hub by event name",
		},
		[]string{"event"},
	)

	// HubInboundUpdatesTotal tracks client-sent updateCharacter events by status
	HubInboundUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_inbound_updates_total",
			Help: "Client-sent updateCharacter events by status (applied/dropped)",
		},
		[]string{"status"},
	)
)

// Upload Manager Metrics
var (
	// UploadsPendingFiles tracks current unconfirmed uploaded files
	UploadsPendingFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uploads_pending_files",
			Help: "Current number of unconfirmed uploaded files",
		},
	)

	// UploadsSweptTotal tracks files reclaimed by the age sweep
	UploadsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uploads_swept_total",
			Help: "Total uploaded files reclaimed by the background sweep",
		},
	)
)
