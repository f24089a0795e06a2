package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/lepaya/data-snowflake-client/clients/snowflake"
	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/logger"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/notify/slack"
	"github.com/lepaya/data-snowflake-client/lib/telemetry/metrics"
)

type LocationOptions struct {
	Database  string `long:"database" description:"Snowflake database" required:"true"`
	Schema    string `long:"schema" description:"Snowflake schema" required:"true"`
	Table     string `long:"table" description:"Snowflake table" required:"true"`
	Warehouse string `long:"warehouse" description:"warehouse to switch to before running"`
	Role      string `long:"role" description:"role to switch to before running"`
}

func (l LocationOptions) location() snowflake.Location {
	return snowflake.Location{
		Database:  l.Database,
		Schema:    l.Schema,
		Table:     l.Table,
		Warehouse: l.Warehouse,
		Role:      l.Role,
	}
}

// runner opens a store for the command that was picked and closes it once the command returns.
type runner struct {
	ctx  context.Context
	opts *config.Options
	out  io.Writer
	// storeOpts are appended to the options built out of the settings.
	storeOpts []snowflake.Option

	store *snowflake.Store
}

func newParser(ctx context.Context, opts *config.Options, out io.Writer, storeOpts ...snowflake.Option) *flags.Parser {
	r := &runner{ctx: ctx, opts: opts, out: out, storeOpts: storeOpts}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = r.handle

	mustAddCommand(parser, "fetch", "Fetch a table", "Fetches every row of a table and writes it as CSV.", &fetchCommand{runner: r})
	mustAddCommand(parser, "load", "Load a CSV file", "Loads a CSV file with a header row into a table, the table is created when it does not exist.", &loadCommand{runner: r})
	mustAddCommand(parser, "query", "Run a query", "Runs a query and writes the result set as CSV.", &queryCommand{runner: r})
	return parser
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data any) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		panic(fmt.Sprintf("failed to add command %q: %v", name, err))
	}
}

func (r *runner) handle(command flags.Commander, args []string) error {
	if command == nil {
		return nil
	}

	settings, err := config.LoadSettings(*r.opts)
	if err != nil {
		return err
	}

	log, _ := logger.NewLogger(settings)
	slog.SetDefault(log)

	store, err := r.newStore(settings)
	if err != nil {
		return err
	}

	return store.WithConnection(r.ctx, func(store *snowflake.Store) error {
		r.store = store
		defer func() { r.store = nil }()
		return command.Execute(args)
	})
}

func (r *runner) newStore(settings *config.Settings) (*snowflake.Store, error) {
	var notifier notify.Notifier = notify.Nop{}
	if settings.Config.Slack != nil {
		slackNotifier, err := slack.New(*settings.Config.Slack)
		if err != nil {
			return nil, fmt.Errorf("failed to create slack notifier: %w", err)
		}
		notifier = slackNotifier
	}

	opts := append([]snowflake.Option{
		snowflake.WithNotifier(notifier),
		snowflake.WithMetrics(metrics.LoadExporter(settings.Config)),
	}, r.storeOpts...)

	return snowflake.New(*settings.Config.Snowflake, opts...)
}

// writeFrame writes [f] as CSV to [outputPath], or to the runner's output when it's empty.
func (r *runner) writeFrame(f *frame.Frame, outputPath string) error {
	if outputPath == "" {
		return f.WriteCSV(r.out)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err = f.WriteCSV(file); err != nil {
		return err
	}

	return file.Close()
}

type fetchCommand struct {
	runner *runner

	LocationOptions
	Output string `short:"o" long:"output" description:"write the CSV into this file instead of stdout"`
}

func (c *fetchCommand) Execute([]string) error {
	loc := c.location()
	f, err := c.runner.store.Fetch(c.runner.ctx, loc)
	if err != nil {
		return err
	}

	if f == nil {
		slog.Warn("Table does not exist, nothing to write", slog.String("table", loc.String()))
		return nil
	}

	slog.Info("Fetched table", slog.String("table", loc.String()), slog.Int("rows", f.Len()))
	return c.runner.writeFrame(f, c.Output)
}

type loadCommand struct {
	runner *runner

	LocationOptions
	File              string `short:"f" long:"file" description:"CSV file with a header row" required:"true"`
	Overwrite         bool   `long:"overwrite" description:"replace the table instead of appending"`
	QuoteIdentifiers  bool   `long:"quote-identifiers" description:"keep the case of table and column names"`
	ChunkSize         int    `long:"chunk-size" description:"rows per stage file, all rows go into one file by default"`
	AddMissingColumns bool   `long:"add-missing-columns" description:"add columns that the table does not have yet before appending"`
}

func (c *loadCommand) Execute([]string) error {
	file, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", c.File, err)
	}
	defer file.Close()

	f, err := frame.ReadCSV(file)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", c.File, err)
	}

	loc := c.location()
	result, err := c.runner.store.Load(c.runner.ctx, f, loc, snowflake.LoadOptions{
		Overwrite:         c.Overwrite,
		QuoteIdentifiers:  c.QuoteIdentifiers,
		ChunkSize:         c.ChunkSize,
		AddMissingColumns: c.AddMissingColumns,
	})
	if err != nil {
		return err
	}

	slog.Info("Loaded frame",
		slog.String("table", loc.String()),
		slog.Bool("success", result.Success),
		slog.Int("chunks", result.ChunkCount),
		slog.Int64("rows", result.RowCount),
	)

	if !result.Success {
		return fmt.Errorf("not every chunk was loaded into %s", loc)
	}

	return nil
}

type queryCommand struct {
	runner *runner

	SQL       string `long:"sql" description:"query to run" required:"true"`
	Database  string `long:"database" description:"Snowflake database"`
	Schema    string `long:"schema" description:"Snowflake schema"`
	Table     string `long:"table" description:"table the query is about, used in status messages"`
	Warehouse string `long:"warehouse" description:"warehouse to switch to before running"`
	Role      string `long:"role" description:"role to switch to before running"`
	Output    string `short:"o" long:"output" description:"write the CSV into this file instead of stdout"`
}

func (c *queryCommand) Execute([]string) error {
	f, err := c.runner.store.Query(c.runner.ctx, c.SQL, snowflake.Location{
		Database:  c.Database,
		Schema:    c.Schema,
		Table:     c.Table,
		Warehouse: c.Warehouse,
		Role:      c.Role,
	})
	if err != nil {
		return err
	}

	return c.runner.writeFrame(f, c.Output)
}
