package metrics

import (
	"log/slog"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/config/constants"
	"github.com/lepaya/data-snowflake-client/lib/telemetry/metrics/base"
	"github.com/lepaya/data-snowflake-client/lib/telemetry/metrics/datadog"
)

// LoadExporter falls back to [NullMetricsProvider] when no provider is configured or the exporter cannot start.
func LoadExporter(cfg config.Config) base.Client {
	kind := cfg.Telemetry.Metrics.Provider
	switch kind {
	case constants.Datadog:
		statsClient, err := datadog.NewDatadogClient(cfg.Telemetry.Metrics.Settings)
		if err != nil {
			slog.Error("Metrics client error", slog.Any("err", err), slog.Any("provider", kind))
		} else {
			slog.Info("Metrics client loaded", slog.Any("provider", kind))
			return statsClient
		}
	default:
		slog.Debug("Invalid or no exporter kind passed in, skipping...", slog.Any("exporterKind", kind))
	}

	return NullMetricsProvider{}
}
