package config

import (
	"cmp"
	"fmt"
	"log/slog"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/lepaya/data-snowflake-client/lib/config/constants"
	"github.com/lepaya/data-snowflake-client/lib/cryptography"
	"github.com/lepaya/data-snowflake-client/lib/typing"
)

type Snowflake struct {
	AccountID string `yaml:"account"`
	Username  string `yaml:"username"`
	// If a private key is specified, the password field will be ignored.
	Password string `yaml:"password,omitempty"`
	// PrivateKey holds PEM text, or base64 encoded PEM text.
	PrivateKey       string `yaml:"privateKey,omitempty"`
	PathToPrivateKey string `yaml:"pathToPrivateKey,omitempty"`

	// Warehouse and Role are session defaults, operations can override them.
	Warehouse   string `yaml:"warehouse,omitempty"`
	Role        string `yaml:"role,omitempty"`
	Region      string `yaml:"region,omitempty"`
	Host        string `yaml:"host,omitempty"`
	Application string `yaml:"application,omitempty"`

	LoginTimeoutSeconds  int               `yaml:"loginTimeoutSeconds,omitempty"`
	AdditionalParameters map[string]string `yaml:"additionalParameters,omitempty"`

	MissingTablePolicy MissingTablePolicy `yaml:"missingTablePolicy,omitempty"`
	StageFileFormat    StageFileFormat    `yaml:"stageFileFormat,omitempty"`
	ExternalStage      *ExternalStage     `yaml:"externalStage,omitempty"`
}

// ExternalStage loads through a named stage backed by an S3 bucket instead of the table stage.
type ExternalStage struct {
	Enabled bool `yaml:"enabled"`
	// Name of the stage, it lives in the database and schema of the destination table.
	Name   string `yaml:"name"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
	Region string `yaml:"region,omitempty"`

	// Leave empty to use the default AWS credential chain.
	AwsAccessKeyID     string `yaml:"awsAccessKeyID,omitempty"`
	AwsSecretAccessKey string `yaml:"awsSecretAccessKey,omitempty"`
}

func (e ExternalStage) Validate() error {
	if e.Name == "" || e.Bucket == "" {
		return fmt.Errorf("external stage requires a name and a bucket")
	}

	if (e.AwsAccessKeyID == "") != (e.AwsSecretAccessKey == "") {
		return fmt.Errorf("awsAccessKeyID and awsSecretAccessKey must be set together")
	}

	return nil
}

func (s Snowflake) Validate() error {
	if s.AccountID == "" {
		return fmt.Errorf("account is empty")
	}

	if s.Username == "" {
		return fmt.Errorf("username is empty")
	}

	if s.PrivateKey != "" && s.PathToPrivateKey != "" {
		return fmt.Errorf("privateKey and pathToPrivateKey are mutually exclusive")
	}

	if s.Password == "" && s.PrivateKey == "" && s.PathToPrivateKey == "" {
		return fmt.Errorf("one of password, privateKey or pathToPrivateKey is required")
	}

	if s.LoginTimeoutSeconds < 0 {
		return fmt.Errorf("loginTimeoutSeconds cannot be negative")
	}

	if s.MissingTablePolicy != "" && !s.MissingTablePolicy.IsValid() {
		return fmt.Errorf("invalid missingTablePolicy %q", s.MissingTablePolicy)
	}

	if s.StageFileFormat != "" && !s.StageFileFormat.IsValid() {
		return fmt.Errorf("invalid stageFileFormat %q", s.StageFileFormat)
	}

	if s.ExternalStage != nil && s.ExternalStage.Enabled {
		if err := s.ExternalStage.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (s Snowflake) GetMissingTablePolicy() MissingTablePolicy {
	return cmp.Or(s.MissingTablePolicy, MissingTableEmpty)
}

func (s Snowflake) GetStageFileFormat() StageFileFormat {
	return cmp.Or(s.StageFileFormat, Parquet)
}

// External returns the external stage if it is enabled.
func (s Snowflake) External() (ExternalStage, bool) {
	if s.ExternalStage == nil || !s.ExternalStage.Enabled {
		return ExternalStage{}, false
	}
	return *s.ExternalStage, true
}

func (s Snowflake) ToConfig() (*gosnowflake.Config, error) {
	cfg := &gosnowflake.Config{
		Account:     s.AccountID,
		User:        s.Username,
		Warehouse:   s.Warehouse,
		Role:        s.Role,
		Region:      s.Region,
		Application: cmp.Or(s.Application, constants.Application),
		Params: map[string]*string{
			// This parameter will cancel in-progress queries if connectivity is lost.
			// https://docs.snowflake.com/en/sql-reference/parameters#abort-detached-query
			"ABORT_DETACHED_QUERY": typing.ToPtr("true"),
			// This parameter must be set to prevent the auth token from expiring after 4 hours.
			// https://docs.snowflake.com/en/user-guide/session-policies#considerations
			"CLIENT_SESSION_KEEP_ALIVE": typing.ToPtr("true"),
		},
	}

	if s.LoginTimeoutSeconds > 0 {
		cfg.LoginTimeout = time.Duration(s.LoginTimeoutSeconds) * time.Second
	}

	for key, value := range s.AdditionalParameters {
		cfg.Params[key] = &value
		slog.Debug("Setting additional parameters for Snowflake", slog.String("key", key), slog.String("value", value))
	}

	switch {
	case s.PathToPrivateKey != "":
		key, err := cryptography.LoadRSAKey(s.PathToPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}

		cfg.PrivateKey = key
		cfg.Authenticator = gosnowflake.AuthTypeJwt
	case s.PrivateKey != "":
		key, err := cryptography.DecodeRSAKey(s.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode private key: %w", err)
		}

		cfg.PrivateKey = key
		cfg.Authenticator = gosnowflake.AuthTypeJwt
	default:
		cfg.Password = s.Password
	}

	if s.Host != "" {
		// If the host is specified
		cfg.Host = s.Host
		cfg.Region = ""
	}

	return cfg, nil
}

// DSN validates the config and builds the connection string. Private keys are parsed here so bad keys fail early.
func (s Snowflake) DSN() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	cfg, err := s.ToConfig()
	if err != nil {
		return "", err
	}

	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake dsn: %w", err)
	}

	return dsn, nil
}
