package snowflake

import (
	"errors"
	"path/filepath"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/apd/v3"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/mocks"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/typing"
)

const (
	uuidPattern    = `[0-9a-f-]{36}`
	stagingPattern = `db\.public\.dusty__tmp_[0-9a-f]{32}`
)

func (s *SnowflakeTestSuite) dustyFrame() *frame.Frame {
	f, err := frame.FromRecords([]string{"id", "name"}, [][]any{
		{1, "dusty"},
		{2, "bella"},
		{3, nil},
	})
	s.Require().NoError(err)
	return f
}

// expectStagingTable expects the destination and the staging table for an overwrite to be created.
func (s *SnowflakeTestSuite) expectStagingTable() {
	s.expectExec("CREATE TABLE IF NOT EXISTS db.public.dusty (id NUMBER(38,0),name TEXT)")
	s.mock.ExpectExec(`^CREATE OR REPLACE TABLE ` + stagingPattern + regexp.QuoteMeta(` (id NUMBER(38,0),name TEXT)`) + `$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func (s *SnowflakeTestSuite) expectSwap() {
	s.mock.ExpectExec(`^ALTER TABLE ` + stagingPattern + ` SWAP WITH db\.public\.dusty$`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func (s *SnowflakeTestSuite) expectDropStagingTable() {
	s.mock.ExpectExec(`^DROP TABLE IF EXISTS ` + stagingPattern + `$`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func (s *SnowflakeTestSuite) TestLoad_Overwrite() {
	s.open()
	s.expectUseDustyLocation()
	s.expectStagingTable()
	s.mock.ExpectExec(`^PUT 'file://.+/chunk_00000\.parquet' @db\.public\.%dusty__tmp_[0-9a-f]{32}/` + uuidPattern + ` AUTO_COMPRESS=FALSE OVERWRITE=TRUE$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^COPY INTO ` + stagingPattern + regexp.QuoteMeta(` (id,name) FROM (SELECT $1:"id"::NUMBER(38,0),$1:"name"::TEXT FROM @`) + `db\.public\.%dusty__tmp_[0-9a-f]{32}/` + uuidPattern + regexp.QuoteMeta(`) FILE_FORMAT = (TYPE = 'PARQUET' BINARY_AS_TEXT = FALSE) ON_ERROR = ABORT_STATEMENT PURGE = TRUE`) + `$`).
		WillReturnRows(copyOutputRows().AddRow("chunk_00000.parquet", "LOADED", "3", "3"))
	s.expectSwap()
	s.expectDropStagingTable()

	result, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true})
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(1, result.ChunkCount)
	s.Equal(int64(3), result.RowCount)
	s.Equal(1, result.Output.Len())

	s.Equal([]string{
		"Successfully connected to Snowflake.",
		"Loading frame into db.public.dusty",
		"Successfully inserted 3 rows in 1 chunks into db.public.dusty",
	}, s.notifiedTexts())

	s.Equal([]metric{{name: "snowflake.rows", value: 3, tags: map[string]string{"operation": "load", "status": "success"}}}, s.countMetrics())
}

func (s *SnowflakeTestSuite) TestLoad_AppendWithNewColumns() {
	cfg := testConfig()
	cfg.StageFileFormat = config.CSV
	s.newStore(cfg)
	s.open()

	s.expectUseDustyLocation()
	s.expectExec("CREATE TABLE IF NOT EXISTS db.public.dusty (id NUMBER(38,0),name TEXT)")
	s.mock.ExpectQuery(quote("DESC TABLE db.public.dusty")).WillReturnRows(
		textRows("name", "type", "kind").AddRow("ID", "NUMBER(38,0)", "COLUMN"),
	)
	s.expectExec("ALTER TABLE db.public.dusty ADD COLUMN name TEXT")
	for _, chunk := range []string{"chunk_00000", "chunk_00001"} {
		s.mock.ExpectExec(`^PUT 'file://.+/` + chunk + `\.csv\.gz' @db\.public\.%dusty/` + uuidPattern + ` AUTO_COMPRESS=FALSE OVERWRITE=TRUE$`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s.mock.ExpectQuery(`^` + regexp.QuoteMeta(`COPY INTO db.public.dusty (id,name) FROM (SELECT $1,$2 FROM @db.public.%dusty/`) + uuidPattern + `\) FILE_FORMAT = \(TYPE = 'csv'.+PURGE = TRUE$`).
		WillReturnRows(copyOutputRows().
			AddRow("chunk_00000.csv.gz", "LOADED", "2", "2").
			AddRow("chunk_00001.csv.gz", "LOADED", "1", "1"),
		)

	result, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{ChunkSize: 2, AddMissingColumns: true})
	s.Require().NoError(err)
	s.True(result.Success)
	s.Equal(2, result.ChunkCount)
	s.Equal(int64(3), result.RowCount)

	var added []notify.Message
	for _, msg := range s.notifiedMessages() {
		if !msg.Temporary {
			added = append(added, msg)
		}
	}
	s.Equal([]notify.Message{{Text: "Successfully added new column: name with data type: TEXT in db.public.dusty"}}, added)
}

func (s *SnowflakeTestSuite) TestLoad_AppendWithoutSchemaEvolution() {
	s.open()
	s.expectUseDustyLocation()
	s.expectExec("CREATE TABLE IF NOT EXISTS db.public.dusty (id NUMBER(38,0),name TEXT)")
	s.mock.ExpectExec(`^PUT `).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^COPY INTO db\.public\.dusty `).WillReturnRows(copyOutputRows().AddRow("chunk_00000.parquet", "LOADED", "3", "3"))

	result, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{})
	s.Require().NoError(err)
	s.Equal(int64(3), result.RowCount)
}

func (s *SnowflakeTestSuite) TestLoad_QuoteIdentifiers() {
	s.open()
	s.expectExec(`USE DATABASE "db"`)
	s.expectExec(`USE SCHEMA "public"`)
	s.expectExec(`CREATE TABLE IF NOT EXISTS "db"."public"."dusty" ("id" NUMBER(38,0),"name" TEXT)`)
	s.mock.ExpectExec(`^` + regexp.QuoteMeta(`CREATE OR REPLACE TABLE "db"."public"."dusty__tmp_`) + `[0-9a-f]{32}" `).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(`^PUT 'file://.+' @"db"\."public"\.%"dusty__tmp_[0-9a-f]{32}"/` + uuidPattern + ` `).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^` + regexp.QuoteMeta(`COPY INTO "db"."public"."dusty__tmp_`) + `[0-9a-f]{32}" ` + regexp.QuoteMeta(`("id","name")`)).
		WillReturnRows(copyOutputRows().AddRow("chunk_00000.parquet", "LOADED", "3", "3"))
	s.mock.ExpectExec(`^` + regexp.QuoteMeta(`ALTER TABLE "db"."public"."dusty__tmp_`) + `[0-9a-f]{32}" ` + regexp.QuoteMeta(`SWAP WITH "db"."public"."dusty"`) + `$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(`^` + regexp.QuoteMeta(`DROP TABLE IF EXISTS "db"."public"."dusty__tmp_`) + `[0-9a-f]{32}"$`).WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true, QuoteIdentifiers: true})
	s.Require().NoError(err)
	s.True(result.Success)
}

func (s *SnowflakeTestSuite) TestLoad_PartiallyLoaded() {
	s.open()
	s.expectUseDustyLocation()
	s.expectStagingTable()
	s.mock.ExpectExec(`^PUT `).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec(`^PUT `).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^COPY INTO `).WillReturnRows(copyOutputRows().
		AddRow("chunk_00000.parquet", "LOADED", "2", "2").
		AddRow("chunk_00001.parquet", "LOAD_FAILED", "1", "0"),
	)
	// No swap, the destination keeps its rows.
	s.expectDropStagingTable()

	result, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true, ChunkSize: 2})
	s.Require().NoError(err)
	s.False(result.Success)
	s.Equal(2, result.ChunkCount)
	s.Equal(int64(2), result.RowCount)

	s.Equal([]string{
		"Successfully connected to Snowflake.",
		"Loading frame into db.public.dusty",
		"Not every chunk was loaded into db.public.dusty",
	}, s.notifiedTexts())
}

func (s *SnowflakeTestSuite) TestLoad_EmptyFrame() {
	{
		// Overwrite empties the table
		s.open()
		s.expectUseDustyLocation()
		s.expectStagingTable()
		s.expectSwap()
		s.expectDropStagingTable()

		f := frame.New(frame.NewColumn("id", typing.Integer), frame.NewColumn("name", typing.String))
		result, err := s.store.Load(s.ctx, f, dustyLocation, LoadOptions{Overwrite: true})
		s.NoError(err)
		s.Equal(LoadResult{Success: true}, result)
	}
	{
		// Append only creates the table
		s.expectUseDustyLocation()
		s.expectExec("CREATE TABLE IF NOT EXISTS db.public.dusty (id NUMBER(38,0),name TEXT)")

		f := frame.New(frame.NewColumn("id", typing.Integer), frame.NewColumn("name", typing.String))
		result, err := s.store.Load(s.ctx, f, dustyLocation, LoadOptions{})
		s.NoError(err)
		s.Equal(LoadResult{Success: true}, result)
	}
}

func (s *SnowflakeTestSuite) TestLoad_NoColumns() {
	s.open()
	s.expectUseDustyLocation()

	_, err := s.store.Load(s.ctx, frame.New(), dustyLocation, LoadOptions{})
	s.ErrorContains(err, "failed to load frame into db.public.dusty: frame has no columns")
}

func (s *SnowflakeTestSuite) TestLoad_RepeatedColumnNames() {
	s.open()
	s.expectUseDustyLocation()

	f := frame.New(frame.NewColumn("id", typing.Integer), frame.NewColumn("id", typing.Integer))
	_, err := s.store.Load(s.ctx, f, dustyLocation, LoadOptions{})
	s.ErrorContains(err, `duplicate column name "id"`)
}

func (s *SnowflakeTestSuite) TestLoad_CopyError() {
	{
		// Overwrite: only the staging table is touched after the failure.
		s.open()
		s.expectUseDustyLocation()
		s.expectStagingTable()
		s.mock.ExpectExec(`^PUT `).WillReturnResult(sqlmock.NewResult(0, 0))
		s.mock.ExpectQuery(`^COPY INTO ` + stagingPattern + ` `).WillReturnError(errors.New("Numeric value 'abc' is not recognized"))
		s.mock.ExpectExec(`^REMOVE @db\.public\.%dusty__tmp_[0-9a-f]{32}/` + uuidPattern + `$`).WillReturnResult(sqlmock.NewResult(0, 0))
		s.expectDropStagingTable()

		_, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true})
		s.ErrorContains(err, "failed to run copy into: Numeric value 'abc' is not recognized")
		s.NoError(s.mock.ExpectationsWereMet())

		messages := s.notifiedMessages()
		s.Equal(notify.Error, messages[len(messages)-1].Severity)
		s.Equal("failed", s.timingMetrics()[0].tags["status"])
	}
	{
		// Append
		s.expectUseDustyLocation()
		s.expectExec("CREATE TABLE IF NOT EXISTS db.public.dusty (id NUMBER(38,0),name TEXT)")
		s.mock.ExpectExec(`^PUT `).WillReturnResult(sqlmock.NewResult(0, 0))
		s.mock.ExpectQuery(`^COPY INTO db\.public\.dusty `).WillReturnError(errors.New("Numeric value 'abc' is not recognized"))
		s.mock.ExpectExec(`^REMOVE @db\.public\.%dusty/` + uuidPattern + `$`).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{})
		s.ErrorContains(err, "failed to run copy into")
	}
}

func (s *SnowflakeTestSuite) TestLoad_SwapError() {
	s.open()
	s.expectUseDustyLocation()
	s.expectStagingTable()
	s.mock.ExpectExec(`^PUT `).WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^COPY INTO `).WillReturnRows(copyOutputRows().AddRow("chunk_00000.parquet", "LOADED", "3", "3"))
	s.mock.ExpectExec(`^ALTER TABLE ` + stagingPattern + ` SWAP WITH `).WillReturnError(errors.New("Insufficient privileges"))
	s.expectDropStagingTable()

	_, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true})
	s.ErrorContains(err, "Insufficient privileges")
	s.Regexp(`failed to swap db\.public\.dusty__tmp_[0-9a-f]{32} with db\.public\.dusty`, err.Error())
}

func (s *SnowflakeTestSuite) TestLoad_ExternalStage() {
	uploader := &mocks.FakeUploader{}
	cfg := testConfig()
	cfg.ExternalStage = &config.ExternalStage{Enabled: true, Name: "MY_STAGE", Bucket: "bucket", Prefix: "exports"}
	s.newStore(cfg, WithS3Uploader(uploader))
	s.open()

	s.expectUseDustyLocation()
	s.expectStagingTable()
	s.mock.ExpectQuery(`^COPY INTO ` + stagingPattern + ` \(id,name\) FROM \(SELECT .+ FROM @db\.public\.MY_STAGE/` + uuidPattern + `/\) `).
		WillReturnRows(copyOutputRows().AddRow("s3://bucket/exports/chunk_00000.parquet", "LOADED", "3", "3"))
	s.expectSwap()
	s.expectDropStagingTable()

	result, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true})
	s.Require().NoError(err)
	s.Equal(int64(3), result.RowCount)

	s.Require().Equal(1, uploader.UploadLocalFileToS3CallCount())
	_, bucket, prefix, filePath := uploader.UploadLocalFileToS3ArgsForCall(0)
	s.Equal("bucket", bucket)
	s.Regexp(`^exports/`+uuidPattern+`$`, prefix)
	s.Equal("chunk_00000.parquet", filepath.Base(filePath))
}

func (s *SnowflakeTestSuite) TestLoad_ExternalStageUploadError() {
	uploader := &mocks.FakeUploader{}
	uploader.UploadLocalFileToS3Returns("", errors.New("access denied"))
	cfg := testConfig()
	cfg.ExternalStage = &config.ExternalStage{Enabled: true, Name: "MY_STAGE", Bucket: "bucket"}
	s.newStore(cfg, WithS3Uploader(uploader))
	s.open()

	s.expectUseDustyLocation()
	s.expectStagingTable()
	s.expectDropStagingTable()

	_, err := s.store.Load(s.ctx, s.dustyFrame(), dustyLocation, LoadOptions{Overwrite: true})
	s.ErrorContains(err, "failed to upload file to S3: access denied")
}

func (s *SnowflakeTestSuite) TestParseCopyOutput() {
	{
		// Missing status
		output, err := frame.FromRecords([]string{"file"}, [][]any{{"a"}})
		s.Require().NoError(err)
		_, err = parseCopyOutput(output)
		s.ErrorContains(err, `copy into output is missing column "status"`)
	}
	{
		// Integers from a driver that already parsed them
		output, err := frame.FromRecords([]string{"file", "status", "rows_loaded"}, [][]any{{"a", "loaded", int64(4)}, {"b", "LOADED", 1}})
		s.Require().NoError(err)
		result, err := parseCopyOutput(output)
		s.Require().NoError(err)
		s.True(result.Success)
		s.Equal(int64(5), result.RowCount)
	}
	{
		// Floats and decimals
		output, err := frame.FromRecords([]string{"status", "rows_loaded"}, [][]any{{"LOADED", float64(2)}, {"LOADED", apd.New(3, 0)}})
		s.Require().NoError(err)
		result, err := parseCopyOutput(output)
		s.Require().NoError(err)
		s.Equal(int64(5), result.RowCount)
	}
	{
		// Floats beyond int64 are rejected
		output, err := frame.FromRecords([]string{"status", "rows_loaded"}, [][]any{{"LOADED", 1e19}})
		s.Require().NoError(err)
		_, err = parseCopyOutput(output)
		s.ErrorContains(err, "failed to parse rows loaded: value 1e+19 is not an int64")
	}
	{
		// No files
		output := frame.New(frame.NewColumn("status", typing.String), frame.NewColumn("rows_loaded", typing.Integer))
		result, err := parseCopyOutput(output)
		s.Require().NoError(err)
		s.False(result.Success)
	}
}
