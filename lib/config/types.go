package config

import (
	"fmt"
	"slices"

	"github.com/lepaya/data-snowflake-client/lib/config/constants"
)

// MissingTablePolicy decides what fetching a table that does not exist returns.
type MissingTablePolicy string

const (
	// MissingTableEmpty returns no frame and no error.
	MissingTableEmpty MissingTablePolicy = "empty"
	MissingTableError MissingTablePolicy = "error"
)

func (m MissingTablePolicy) IsValid() bool {
	return m == MissingTableEmpty || m == MissingTableError
}

type StageFileFormat string

const (
	Parquet StageFileFormat = "parquet"
	CSV     StageFileFormat = "csv"
)

func (s StageFileFormat) IsValid() bool {
	return slices.Contains([]StageFileFormat{Parquet, CSV}, s)
}

type Sentry struct {
	DSN string `yaml:"dsn"`
}

type Reporting struct {
	Sentry *Sentry `yaml:"sentry"`
}

type Metrics struct {
	Provider constants.ExporterKind `yaml:"provider"`
	Settings map[string]any         `yaml:"settings,omitempty"`
}

type Telemetry struct {
	Metrics Metrics `yaml:"metrics"`
}

type Slack struct {
	// Token and Channel post a single status message and keep updating it.
	Token   string `yaml:"token,omitempty"`
	Channel string `yaml:"channel,omitempty"`
	// WebhookURL posts every message to an incoming webhook instead.
	WebhookURL string `yaml:"webhookURL,omitempty"`
}

func (s Slack) Validate() error {
	if s.WebhookURL != "" {
		if s.Token != "" {
			return fmt.Errorf("slack token and webhookURL are mutually exclusive")
		}
		return nil
	}

	if s.Token == "" || s.Channel == "" {
		return fmt.Errorf("slack requires either a webhookURL, or a token and a channel")
	}

	return nil
}

type Config struct {
	Snowflake *Snowflake `yaml:"snowflake"`
	Slack     *Slack     `yaml:"slack,omitempty"`
	Reporting Reporting  `yaml:"reporting"`
	Telemetry Telemetry  `yaml:"telemetry"`
}

func (c Config) Validate() error {
	if c.Snowflake == nil {
		return fmt.Errorf("snowflake config is nil")
	}

	if err := c.Snowflake.Validate(); err != nil {
		return fmt.Errorf("invalid snowflake config: %w", err)
	}

	if c.Slack != nil {
		if err := c.Slack.Validate(); err != nil {
			return fmt.Errorf("invalid slack config: %w", err)
		}
	}

	if provider := c.Telemetry.Metrics.Provider; provider != "" && provider != constants.Datadog {
		return fmt.Errorf("unsupported metrics provider %q", provider)
	}

	return nil
}
