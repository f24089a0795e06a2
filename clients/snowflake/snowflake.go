package snowflake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepaya/data-snowflake-client/clients/snowflake/dialect"
	"github.com/lepaya/data-snowflake-client/lib/awslib"
	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/config/constants"
	"github.com/lepaya/data-snowflake-client/lib/db"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/telemetry/metrics"
	"github.com/lepaya/data-snowflake-client/lib/telemetry/metrics/base"
)

var (
	ErrNoActiveConnection = errors.New("no active connection to Snowflake")
	ErrTableNotFound      = errors.New("table does not exist")
)

// Location points at a table. Warehouse and Role are optional and switch the session before running the operation.
type Location struct {
	Database  string
	Schema    string
	Table     string
	Warehouse string
	Role      string
}

func (l Location) tableID(quoteIdentifiers bool) dialect.TableIdentifier {
	return dialect.NewTableIdentifier(l.Database, l.Schema, l.Table, quoteIdentifiers)
}

func (l Location) String() string {
	return fmt.Sprintf("%s.%s.%s", l.Database, l.Schema, l.Table)
}

type Option func(*Store)

func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Store) {
		s.notifier = notifier
	}
}

func WithMetrics(client base.Client) Option {
	return func(s *Store) {
		s.metrics = client
	}
}

// WithOpener replaces how the session is opened, this is used for tests.
func WithOpener(opener db.Opener) Option {
	return func(s *Store) {
		s.opener = opener
	}
}

func WithS3Uploader(uploader awslib.Uploader) Option {
	return func(s *Store) {
		s.uploader = uploader
	}
}

// Store runs operations against Snowflake over a single session, it is not safe for concurrent use.
type Store struct {
	config   config.Snowflake
	dsn      string
	opener   db.Opener
	notifier notify.Notifier
	metrics  base.Client
	uploader awslib.Uploader

	session db.Store
}

// New validates [cfg] and returns a store without connecting.
func New(cfg config.Snowflake, opts ...Option) (*Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("invalid snowflake config: %w", err)
	}

	store := &Store{
		config:   cfg,
		dsn:      dsn,
		opener:   db.Open,
		notifier: notify.Nop{},
		metrics:  metrics.NullMetricsProvider{},
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

func (s *Store) dialect() dialect.SnowflakeDialect {
	return dialect.SnowflakeDialect{}
}

func (s *Store) IsOpen() bool {
	return s.session != nil
}

func (s *Store) Open(ctx context.Context) error {
	if s.session != nil {
		return fmt.Errorf("connection to Snowflake is already open")
	}

	session, err := s.opener(ctx, constants.DriverName, s.dsn)
	if err != nil {
		err = fmt.Errorf("failed to connect to Snowflake: %w", err)
		s.notify(ctx, notify.Message{Text: err.Error(), Severity: notify.Error})
		return err
	}

	s.session = session
	slog.Info("Connected to Snowflake", slog.String("account", s.config.AccountID), slog.String("username", s.config.Username))
	s.notify(ctx, notify.Message{Text: "Successfully connected to Snowflake.", Temporary: true})
	return nil
}

// Close releases the session, calling it again is a no-op.
func (s *Store) Close() error {
	if s.session == nil {
		return nil
	}

	session := s.session
	s.session = nil
	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close the Snowflake connection: %w", err)
	}

	return nil
}

// WithConnection opens the store, runs [fn] and closes the store on every exit path, panics included.
func (s *Store) WithConnection(ctx context.Context, fn func(store *Store) error) (err error) {
	if err = s.Open(ctx); err != nil {
		return err
	}

	defer func() {
		closeErr := s.Close()
		if closeErr == nil {
			return
		}

		if err == nil {
			err = closeErr
		} else {
			slog.Warn("Failed to close the Snowflake connection", slog.Any("err", closeErr))
		}
	}()

	return fn(s)
}

func (s *Store) activeSession() (db.Store, error) {
	if s.session == nil {
		return nil, ErrNoActiveConnection
	}

	return s.session, nil
}

func (s *Store) notify(ctx context.Context, msg notify.Message) {
	notify.Send(ctx, s.notifier, msg)
}

func (s *Store) notifyError(ctx context.Context, err error) {
	s.notify(ctx, notify.Message{Text: err.Error(), Severity: notify.Error})
}

// useLocation switches the session over to [loc], role and warehouse are only switched when set.
// Database and schema are written with [sd] so they resolve to the same objects as the table identifier.
func (s *Store) useLocation(ctx context.Context, session db.Store, loc Location, sd dialect.SnowflakeDialect) error {
	var statements []string
	if loc.Role != "" {
		statements = append(statements, s.dialect().BuildUseQuery("ROLE", loc.Role))
	}
	if loc.Warehouse != "" {
		statements = append(statements, s.dialect().BuildUseQuery("WAREHOUSE", loc.Warehouse))
	}
	if loc.Database != "" {
		statements = append(statements, sd.BuildUseQuery("DATABASE", loc.Database))
	}
	if loc.Schema != "" {
		statements = append(statements, sd.BuildUseQuery("SCHEMA", loc.Schema))
	}

	if len(statements) == 0 {
		return nil
	}

	if _, err := db.ExecStatements(ctx, session, statements); err != nil {
		return fmt.Errorf("failed to set up the session: %w", err)
	}

	return nil
}

func (s *Store) track(operation string, start time.Time, rows int64, err error) {
	tags := map[string]string{
		"operation": operation,
		"status":    "success",
	}
	if err != nil {
		tags["status"] = "failed"
	}

	s.metrics.Timing("snowflake.operation", time.Since(start), tags)
	s.metrics.Count("snowflake.rows", rows, tags)
}

func (s *Store) s3Uploader(ctx context.Context, stage config.ExternalStage) (awslib.Uploader, error) {
	if s.uploader != nil {
		return s.uploader, nil
	}

	awsConfig, err := awslib.NewConfig(ctx, awslib.ConfigArgs{
		Region:          stage.Region,
		AccessKeyID:     stage.AwsAccessKeyID,
		SecretAccessKey: stage.AwsSecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	s.uploader = awslib.NewS3Client(awsConfig)
	return s.uploader, nil
}
