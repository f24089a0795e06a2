package snowflake

import (
	"errors"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lepaya/data-snowflake-client/lib/typing"
)

func (s *SnowflakeTestSuite) TestQuery() {
	s.open()
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT name, score FROM dusty WHERE score > 1")).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("NAME").OfType("TEXT", ""),
			sqlmock.NewColumn("SCORE").OfType("REAL", ""),
		).AddRow("dusty", "1.5"),
	)

	f, err := s.store.Query(s.ctx, "SELECT name, score FROM dusty WHERE score > 1", dustyLocation)
	s.Require().NoError(err)
	s.Equal([]string{"NAME", "SCORE"}, f.ColumnNames())
	s.Equal(typing.Float, f.Columns()[1].Kind)
	s.Equal([][]any{{"dusty", 1.5}}, f.Rows())

	s.Equal([]string{
		"Successfully connected to Snowflake.",
		"Selecting data in db.public.dusty",
		"Successfully retrieved 1 rows.",
	}, s.notifiedTexts())
}

func (s *SnowflakeTestSuite) TestQuery_RepeatedColumnNames() {
	s.open()
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("SELECT a.id, b.id FROM a JOIN b USING (k)")).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("ID").OfType("FIXED", ""),
			sqlmock.NewColumn("ID").OfType("FIXED", ""),
		).AddRow("1", "2").AddRow("3", nil),
	)

	f, err := s.store.Query(s.ctx, "SELECT a.id, b.id FROM a JOIN b USING (k)", dustyLocation)
	s.Require().NoError(err)
	s.Equal([]string{"ID", "ID"}, f.ColumnNames())
	s.Equal([][]any{{int64(1), int64(2)}, {int64(3), nil}}, f.Rows())
}

func (s *SnowflakeTestSuite) TestQuery_NoRows() {
	s.open()
	s.expectUseDustyLocation()
	s.mock.ExpectQuery(quote("DELETE FROM dusty WHERE id = 1")).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(sqlmock.NewColumn("number of rows deleted").OfType("FIXED", "")),
	)

	f, err := s.store.Query(s.ctx, "DELETE FROM dusty WHERE id = 1", dustyLocation)
	s.Require().NoError(err)
	s.True(f.Empty())
	s.Contains(s.notifiedTexts(), "Deleting data in db.public.dusty")
}

func (s *SnowflakeTestSuite) TestQuery_Error() {
	s.open()
	s.expectUseDustyLocation()
	queryErr := errors.New("SQL compilation error: syntax error line 1 at position 0 unexpected 'SELEC'")
	s.mock.ExpectQuery(quote("SELEC 1")).WillReturnError(queryErr)

	_, err := s.store.Query(s.ctx, "SELEC 1", dustyLocation)
	s.ErrorIs(err, queryErr)
	s.ErrorContains(err, "failed to run query on db.public.dusty")
	s.Contains(s.notifiedTexts(), "Executing data in db.public.dusty")
}

func (s *SnowflakeTestSuite) TestQuery_Empty() {
	s.open()
	_, err := s.store.Query(s.ctx, "  ", dustyLocation)
	s.ErrorContains(err, "query is empty")
}
