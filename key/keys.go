// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Catalog - where the stream list is loaded from.
const (
	CatalogPath = "catalog.path"
)

// Network - identification and transport tuning for the HTTP data source.
const (
	NetworkUserAgent      = "network.user_agent"
	NetworkTimeoutSecs    = "network.timeout_secs"
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Buffer thresholds, in milliseconds.
const (
	BufferMinMs    = "buffer.min_ms"
	BufferMaxMs    = "buffer.max_ms"
	BufferStartMs  = "buffer.start_ms"
	BufferResumeMs = "buffer.resume_ms"
)

// Media Playback - these keys configure the external player backend and its display surface.
const (
	Player            = "player.default"
	PlayerFullscreen  = "player.fullscreen"
	PlayerKeepAwake   = "player.keep_awake"
	PlayerMetricsAddr = "player.metrics_addr"
)

// History Tracking.
const (
	HistorySaveOnPlay = "history.save_on_play"
)

// Probe command limits.
const (
	ProbeConcurrency = "probe.concurrency"
	ProbeRate        = "probe.rate"
)

// Iconography.
const (
	IconsVariant = "icons.variant"
)

// Terminal User Interface (TUI).
const (
	TUIItemSpacing = "tui.item_spacing"
	TUIShowURLs    = "tui.show_urls"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored = "cli.colored"
)
