package snowflake

import (
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/apd/v3"
	"github.com/snowflakedb/gosnowflake"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/typing"
	"github.com/lepaya/data-snowflake-client/lib/typing/decimal"
)

var dustyLocation = Location{Database: "db", Schema: "public", Table: "dusty"}

func (s *SnowflakeTestSuite) expectUseDustyLocation() {
	s.expectExec("USE DATABASE db")
	s.expectExec("USE SCHEMA public")
}

func (s *SnowflakeTestSuite) TestFetch() {
	s.open()
	s.expectExec("USE ROLE transformer")
	s.expectExec("USE WAREHOUSE compute_wh")
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT * FROM db.public.dusty")).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("ID").OfType("FIXED", ""),
			sqlmock.NewColumn("NAME").OfType("TEXT", ""),
			sqlmock.NewColumn("TAGS").OfType("VARIANT", ""),
		).
			AddRow("1", "dusty", `{"breed": "aussie"}`).
			AddRow("2", nil, nil),
	)

	loc := dustyLocation
	loc.Warehouse = "compute_wh"
	loc.Role = "transformer"
	f, err := s.store.Fetch(s.ctx, loc)
	s.Require().NoError(err)
	s.Equal([]frame.Column{
		frame.NewColumn("ID", typing.Integer),
		frame.NewColumn("NAME", typing.String),
		frame.NewColumn("TAGS", typing.Struct),
	}, f.Columns())
	s.Equal([][]any{
		{int64(1), "dusty", map[string]any{"breed": "aussie"}},
		{int64(2), nil, nil},
	}, f.Rows())

	s.Equal([]string{
		"Successfully connected to Snowflake.",
		"Fetching data from db.public.dusty",
		"Successfully fetched 2 rows from db.public.dusty",
	}, s.notifiedTexts())

	s.Require().Len(s.countMetrics(), 1)
	s.Equal(metric{name: "snowflake.rows", value: 2, tags: map[string]string{"operation": "fetch", "status": "success"}}, s.countMetrics()[0])
}

func (s *SnowflakeTestSuite) TestFetch_Numbers() {
	s.open()
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT * FROM db.public.dusty")).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("TOTAL").OfType("FIXED", "").WithPrecisionAndScale(38, 0),
			sqlmock.NewColumn("PRICE").OfType("FIXED", "").WithPrecisionAndScale(10, 2),
		).
			AddRow("5", "19.90").
			AddRow("99999999999999999999", "-0.05"),
	)

	f, err := s.store.Fetch(s.ctx, dustyLocation)
	s.Require().NoError(err)
	s.Equal([]frame.Column{
		frame.NewColumn("TOTAL", typing.NewDecimalKind(decimal.NewDetails(decimal.MaxPrecision, 0))),
		frame.NewColumn("PRICE", typing.NewDecimalKind(decimal.NewDetails(10, 2))),
	}, f.Columns())

	s.Equal(int64(5), f.Rows()[0][0])
	s.Equal("99999999999999999999", f.Rows()[1][0].(*apd.Decimal).Text('f'))
	s.Equal("19.90", f.Rows()[0][1].(*apd.Decimal).Text('f'))
	s.Equal("-0.05", f.Rows()[1][1].(*apd.Decimal).Text('f'))
}

func (s *SnowflakeTestSuite) TestFetch_MissingTable() {
	s.open()
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT * FROM db.public.dusty")).WillReturnError(&gosnowflake.SnowflakeError{
		Number:  2003,
		Message: "Object 'DB.PUBLIC.DUSTY' does not exist or not authorized.",
	})

	f, err := s.store.Fetch(s.ctx, dustyLocation)
	s.NoError(err)
	s.Nil(f)
	s.Equal(0, f.Len())
}

func (s *SnowflakeTestSuite) TestFetch_MissingTable_ErrorPolicy() {
	cfg := testConfig()
	cfg.MissingTablePolicy = config.MissingTableError
	s.newStore(cfg)
	s.open()

	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT * FROM db.public.dusty")).WillReturnError(errors.New("Object 'DB.PUBLIC.DUSTY' does not exist or not authorized."))

	f, err := s.store.Fetch(s.ctx, dustyLocation)
	s.Nil(f)
	s.ErrorIs(err, ErrTableNotFound)
	s.ErrorContains(err, "failed to fetch data from db.public.dusty")

	last := s.notifiedMessages()[s.notifier.NotifyCallCount()-1]
	s.Equal(notify.Error, last.Severity)
}

func (s *SnowflakeTestSuite) TestFetch_Error() {
	s.open()
	queryErr := &gosnowflake.SnowflakeError{Number: 604, Message: "SQL execution canceled"}
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT * FROM db.public.dusty")).WillReturnError(queryErr)

	_, err := s.store.Fetch(s.ctx, dustyLocation)
	s.ErrorIs(err, queryErr)
	s.NotErrorIs(err, ErrTableNotFound)

	s.Require().Len(s.timingMetrics(), 1)
	s.Equal("failed", s.timingMetrics()[0].tags["status"])
}

func (s *SnowflakeTestSuite) TestFetch_NotifierError() {
	s.notifier.NotifyReturns(errNotifier)
	s.open()
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT * FROM db.public.dusty")).WillReturnRows(textRows("name").AddRow("dusty"))

	f, err := s.store.Fetch(s.ctx, dustyLocation)
	s.NoError(err)
	s.Equal(1, f.Len())
	s.Equal(3, s.notifier.NotifyCallCount())
}
