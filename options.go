package truthlayer

import "log/slog"

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger             *slog.Logger
	version            string
	schedule           string
	storageDir         string
	collectorOutputDir string
	collector          Collector
	annotator          Annotator
	metricsEngine      MetricsEngine
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used. Either way the App wraps the
// handler with the content sanitizer.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithSchedule overrides the cron expression from config (SCHEDULER_CRON_EXPRESSION env var).
func WithSchedule(expression string) Option {
	return func(o *resolvedOptions) { o.schedule = expression }
}

// WithStorageDir overrides the warehouse directory from config (TRUTHLAYER_STORAGE_DIR env var).
func WithStorageDir(dir string) Option {
	return func(o *resolvedOptions) { o.storageDir = dir }
}

// WithCollectorOutputDir overrides the collector output directory from config
// (COLLECTOR_OUTPUT_DIR env var).
func WithCollectorOutputDir(dir string) Option {
	return func(o *resolvedOptions) { o.collectorOutputDir = dir }
}

// WithCollector plugs in the external collector app invoked by the collector
// stage. Only the last call wins.
func WithCollector(c Collector) Option {
	return func(o *resolvedOptions) { o.collector = c }
}

// WithAnnotator plugs in the external annotation app invoked by the
// annotation stage. Only the last call wins.
func WithAnnotator(a Annotator) Option {
	return func(o *resolvedOptions) { o.annotator = a }
}

// WithMetricsEngine plugs in the external metrics app invoked by the metrics
// stage. Only the last call wins.
func WithMetricsEngine(m MetricsEngine) Option {
	return func(o *resolvedOptions) { o.metricsEngine = m }
}
