package snowflake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/sql"
)

// Query runs [query] after switching the session over to [loc] and returns its result set.
// Statements that don't produce rows return an empty frame.
func (s *Store) Query(ctx context.Context, query string, loc Location) (_ *frame.Frame, err error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}

	var rowCount int64
	start := time.Now()
	defer func() { s.track("query", start, rowCount, err) }()

	s.notify(ctx, notify.Message{Text: fmt.Sprintf("%s data in %s", s.dialect().QueryAction(query), loc), Temporary: true})
	if err = s.useLocation(ctx, session, loc, s.dialect()); err != nil {
		return nil, s.queryErr(ctx, loc, err)
	}

	slog.Debug("Running query", slog.String("query", query), slog.String("table", loc.String()))
	rows, err := session.QueryContext(ctx, query)
	if err != nil {
		return nil, s.queryErr(ctx, loc, err)
	}

	f, err := sql.RowsToFrame(rows, s.dialect())
	if err != nil {
		return nil, s.queryErr(ctx, loc, err)
	}

	rowCount = int64(f.Len())
	s.notify(ctx, notify.Message{Text: fmt.Sprintf("Successfully retrieved %d rows.", f.Len()), Temporary: true})
	return f, nil
}

func (s *Store) queryErr(ctx context.Context, loc Location, err error) error {
	err = fmt.Errorf("failed to run query on %s: %w", loc, err)
	s.notifyError(ctx, err)
	return err
}
