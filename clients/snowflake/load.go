package snowflake

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/lepaya/data-snowflake-client/clients/snowflake/dialect"
	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/db"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/sql"
	"github.com/lepaya/data-snowflake-client/lib/stage"
)

// Column names from the output of COPY INTO and DESC TABLE.
const (
	copyStatusCol     = "status"
	copyRowsLoadedCol = "rows_loaded"
	copyLoadedStatus  = "LOADED"

	describeNameCol = "name"
)

type LoadOptions struct {
	// Overwrite replaces the destination table, otherwise rows are appended.
	Overwrite        bool
	QuoteIdentifiers bool
	// ChunkSize is the number of rows per stage file, zero puts every row into a single file.
	ChunkSize int
	// AddMissingColumns adds frame columns that the destination table does not have yet before appending.
	AddMissingColumns bool
}

type LoadResult struct {
	// Success is set when every staged file was loaded.
	Success    bool
	ChunkCount int
	RowCount   int64
	// Output is the result of COPY INTO, one row per file.
	Output *frame.Frame
}

// Load stages [f] and copies it into the table at [loc], creating the table when it does not exist.
// With [LoadOptions.Overwrite] the rows go into a new table that is swapped with the destination once every file loaded,
// a failed load leaves the destination untouched.
func (s *Store) Load(ctx context.Context, f *frame.Frame, loc Location, opts LoadOptions) (result LoadResult, err error) {
	session, err := s.activeSession()
	if err != nil {
		return LoadResult{}, err
	}

	start := time.Now()
	defer func() { s.track("load", start, result.RowCount, err) }()

	tableID := loc.tableID(opts.QuoteIdentifiers)
	s.notify(ctx, notify.Message{Text: fmt.Sprintf("Loading frame into %s", loc), Temporary: true})
	if err = s.useLocation(ctx, session, loc, tableID.Dialect()); err != nil {
		return LoadResult{}, s.loadErr(ctx, loc, err)
	}

	if result, err = s.load(ctx, session, f, tableID, opts); err != nil {
		return LoadResult{}, s.loadErr(ctx, loc, err)
	}

	if result.Success {
		s.notify(ctx, notify.Message{Text: fmt.Sprintf("Successfully inserted %d rows in %d chunks into %s", result.RowCount, result.ChunkCount, loc), Temporary: true})
	} else {
		slog.Warn("Not every stage file was loaded", slog.String("table", loc.String()), slog.Int("chunks", result.ChunkCount))
		s.notify(ctx, notify.Message{Text: fmt.Sprintf("Not every chunk was loaded into %s", loc), Severity: notify.Warning})
	}

	return result, nil
}

func (s *Store) loadErr(ctx context.Context, loc Location, err error) error {
	err = fmt.Errorf("failed to load frame into %s: %w", loc, err)
	s.notifyError(ctx, err)
	return err
}

func (s *Store) load(ctx context.Context, session db.Store, f *frame.Frame, tableID dialect.TableIdentifier, opts LoadOptions) (LoadResult, error) {
	if f == nil || len(f.Columns()) == 0 {
		return LoadResult{}, fmt.Errorf("frame has no columns")
	}

	if err := f.Validate(); err != nil {
		return LoadResult{}, err
	}

	colSQLParts, err := columnDefinitions(tableID.Dialect(), f.Columns())
	if err != nil {
		return LoadResult{}, err
	}

	// SWAP WITH needs a table on both sides.
	createQuery := tableID.Dialect().BuildCreateTableQuery(tableID, false, colSQLParts)
	if _, err = session.ExecContext(ctx, createQuery); err != nil {
		return LoadResult{}, fmt.Errorf("failed to create table: %w", err)
	}

	if opts.Overwrite {
		return s.replaceTable(ctx, session, f, tableID, colSQLParts, opts)
	}

	if opts.AddMissingColumns {
		if err = s.addMissingColumns(ctx, session, f, tableID); err != nil {
			return LoadResult{}, err
		}
	}

	return s.copyFrame(ctx, session, f, tableID, opts)
}

// replaceTable loads [f] into a new table and swaps it with [tableID], the new table is dropped afterwards
// and holds the previous rows at that point.
func (s *Store) replaceTable(ctx context.Context, session db.Store, f *frame.Frame, tableID dialect.TableIdentifier, colSQLParts []string, opts LoadOptions) (LoadResult, error) {
	stagingID := tableID.WithTable(stagingTableName(tableID.Table()))
	if _, err := session.ExecContext(ctx, tableID.Dialect().BuildCreateTableQuery(stagingID, true, colSQLParts)); err != nil {
		return LoadResult{}, fmt.Errorf("failed to create staging table: %w", err)
	}

	defer func() {
		if _, dropErr := session.ExecContext(ctx, tableID.Dialect().BuildDropTableQuery(stagingID)); dropErr != nil {
			slog.Warn("Failed to drop staging table", slog.Any("dropErr", dropErr), slog.String("table", stagingID.String()))
		}
	}()

	result, err := s.copyFrame(ctx, session, f, stagingID, opts)
	if err != nil {
		return LoadResult{}, err
	}

	if !result.Success {
		slog.Warn("Keeping the existing table", slog.String("table", tableID.String()))
		return result, nil
	}

	if _, err = session.ExecContext(ctx, tableID.Dialect().BuildSwapTableQuery(stagingID, tableID)); err != nil {
		return LoadResult{}, fmt.Errorf("failed to swap %s with %s: %w", stagingID, tableID, err)
	}

	return result, nil
}

func stagingTableName(table string) string {
	return fmt.Sprintf("%s__tmp_%s", table, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// copyFrame stages the rows of [f] and copies them into [tableID].
func (s *Store) copyFrame(ctx context.Context, session db.Store, f *frame.Frame, tableID dialect.TableIdentifier, opts LoadOptions) (LoadResult, error) {
	if f.Empty() {
		return LoadResult{Success: true}, nil
	}

	format := s.config.GetStageFileFormat()
	writer, err := stage.NewWriter(format)
	if err != nil {
		return LoadResult{}, err
	}

	files, err := stage.WriteChunks(ctx, writer, f.Columns(), f.Chunks(opts.ChunkSize))
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to write stage files: %w", err)
	}
	defer files.Remove()

	subPath := uuid.NewString()
	stageLocation, err := s.upload(ctx, session, tableID, files, subPath)
	if err != nil {
		return LoadResult{}, err
	}

	copyQuery, err := tableID.Dialect().BuildCopyIntoTableQuery(tableID, f.Columns(), stageLocation, format)
	if err != nil {
		return LoadResult{}, err
	}

	rows, err := session.QueryContext(ctx, copyQuery)
	if err != nil {
		// PURGE only removes the files after a successful COPY INTO.
		if _, ok := s.config.External(); !ok {
			if _, deleteErr := session.ExecContext(ctx, s.dialect().BuildRemoveFilesFromStage(stageLocation)); deleteErr != nil {
				slog.Warn("Failed to remove files from stage", slog.Any("deleteErr", deleteErr), slog.String("stage", stageLocation))
			}
		}
		return LoadResult{}, fmt.Errorf("failed to run copy into: %w", err)
	}

	output, err := sql.RowsToFrame(rows, s.dialect())
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to read copy into output: %w", err)
	}

	result, err := parseCopyOutput(output)
	if err != nil {
		return LoadResult{}, err
	}

	if result.RowCount != int64(f.Len()) {
		slog.Warn("Loaded row count does not match the frame",
			slog.Int64("rowsLoaded", result.RowCount),
			slog.Int("expectedRows", f.Len()),
			slog.String("table", tableID.String()),
		)
	}

	return result, nil
}

func columnDefinitions(sd dialect.SnowflakeDialect, columns []frame.Column) ([]string, error) {
	colSQLParts := make([]string, len(columns))
	for i, col := range columns {
		part, err := sd.BuildColumnDefinition(col)
		if err != nil {
			return nil, err
		}
		colSQLParts[i] = part
	}

	return colSQLParts, nil
}

func (s *Store) addMissingColumns(ctx context.Context, session db.Store, f *frame.Frame, tableID dialect.TableIdentifier) error {
	rows, err := session.QueryContext(ctx, tableID.Dialect().BuildDescribeTableQuery(tableID))
	if err != nil {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	description, err := sql.RowsToFrame(rows, s.dialect())
	if err != nil {
		return fmt.Errorf("failed to read table description: %w", err)
	}

	_, nameIdx, ok := description.Column(describeNameCol)
	if !ok {
		return fmt.Errorf("table description is missing column %q", describeNameCol)
	}

	var existing []string
	for _, val := range description.ColumnValues(nameIdx) {
		if name, isString := val.(string); isString {
			existing = append(existing, name)
		}
	}

	for _, col := range f.Columns() {
		if containsColumn(tableID.Dialect(), existing, col.Name) {
			continue
		}

		part, err := tableID.Dialect().BuildColumnDefinition(col)
		if err != nil {
			return err
		}

		if _, err = session.ExecContext(ctx, tableID.Dialect().BuildAddColumnQuery(tableID, part)); err != nil {
			// Snowflake doesn't have ADD COLUMN IF NOT EXISTS.
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("failed to add column %q: %w", col.Name, err)
		}

		dataType, _ := tableID.Dialect().DataTypeForKind(col.Kind)
		slog.Info("Added column", slog.String("table", tableID.String()), slog.String("column", col.Name), slog.String("dataType", dataType))
		s.notify(ctx, notify.Message{Text: fmt.Sprintf("Successfully added new column: %s with data type: %s in %s", col.Name, dataType, tableID)})
	}

	return nil
}

func containsColumn(sd dialect.SnowflakeDialect, existing []string, name string) bool {
	for _, existingName := range existing {
		if sd.SameIdentifier(existingName, name) {
			return true
		}
	}

	return false
}

// upload puts every stage file under [subPath] and returns the stage location to copy from.
func (s *Store) upload(ctx context.Context, session db.Store, tableID dialect.TableIdentifier, files stage.Files, subPath string) (string, error) {
	if externalStage, ok := s.config.External(); ok {
		uploader, err := s.s3Uploader(ctx, externalStage)
		if err != nil {
			return "", fmt.Errorf("failed to get S3 client: %w", err)
		}

		prefix := path.Join(externalStage.Prefix, subPath)
		for _, filePath := range files.Paths {
			if _, err = uploader.UploadLocalFileToS3(ctx, externalStage.Bucket, prefix, filePath); err != nil {
				return "", fmt.Errorf("failed to upload file to S3: %w", err)
			}
		}

		return tableID.NamedStage(externalStage.Name, subPath), nil
	}

	stageLocation := tableID.TableStage(subPath)
	for _, filePath := range files.Paths {
		if _, err := session.ExecContext(ctx, s.dialect().BuildPutQuery(filePath, stageLocation)); err != nil {
			return "", fmt.Errorf("failed to run PUT for %q: %w", path.Base(filePath), err)
		}
	}

	return stageLocation, nil
}

func parseCopyOutput(output *frame.Frame) (LoadResult, error) {
	_, statusIdx, ok := output.Column(copyStatusCol)
	if !ok {
		return LoadResult{}, fmt.Errorf("copy into output is missing column %q", copyStatusCol)
	}

	_, rowsLoadedIdx, ok := output.Column(copyRowsLoadedCol)
	if !ok {
		return LoadResult{}, fmt.Errorf("copy into output is missing column %q", copyRowsLoadedCol)
	}

	result := LoadResult{
		Success:    output.Len() > 0,
		ChunkCount: output.Len(),
		Output:     output,
	}

	for _, row := range output.Rows() {
		if status, _ := row[statusIdx].(string); !strings.EqualFold(status, copyLoadedStatus) {
			result.Success = false
		}

		rowsLoaded, err := toInt64(row[rowsLoadedIdx])
		if err != nil {
			return LoadResult{}, fmt.Errorf("failed to parse rows loaded: %w", err)
		}
		result.RowCount += rowsLoaded
	}

	return result, nil
}

func toInt64(val any) (int64, error) {
	switch castedVal := val.(type) {
	case nil:
		return 0, nil
	case int64:
		return castedVal, nil
	case int:
		return int64(castedVal), nil
	case float64:
		if castedVal != math.Trunc(castedVal) || castedVal < math.MinInt64 || castedVal >= math.MaxInt64 {
			return 0, fmt.Errorf("value %v is not an int64", castedVal)
		}
		return int64(castedVal), nil
	case *apd.Decimal:
		return castedVal.Int64()
	case string:
		return strconv.ParseInt(castedVal, 10, 64)
	}

	return 0, fmt.Errorf("unexpected type %T", val)
}
