package constants

// ExporterKind is used for the Telemetry package
type ExporterKind string

const (
	Datadog ExporterKind = "datadog"
)

// DriverName is the name gosnowflake registers with database/sql.
const DriverName = "snowflake"

const Application = "data-snowflake-client"
