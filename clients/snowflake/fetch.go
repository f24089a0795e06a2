package snowflake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/notify"
	"github.com/lepaya/data-snowflake-client/lib/sql"
)

// Fetch reads every row of the table at [loc].
// A missing table returns a nil frame and no error, unless the missing table policy is set to error.
func (s *Store) Fetch(ctx context.Context, loc Location) (_ *frame.Frame, err error) {
	session, err := s.activeSession()
	if err != nil {
		return nil, err
	}

	var rowCount int64
	start := time.Now()
	defer func() { s.track("fetch", start, rowCount, err) }()

	s.notify(ctx, notify.Message{Text: fmt.Sprintf("Fetching data from %s", loc), Temporary: true})
	if err = s.useLocation(ctx, session, loc, s.dialect()); err != nil {
		return nil, s.fetchErr(ctx, loc, err)
	}

	tableID := loc.tableID(false)
	rows, err := session.QueryContext(ctx, s.dialect().BuildSelectAllQuery(tableID))
	if err != nil {
		if s.dialect().IsTableDoesNotExistErr(err) {
			return s.missingTable(ctx, loc, err)
		}
		return nil, s.fetchErr(ctx, loc, err)
	}

	f, err := sql.RowsToFrame(rows, s.dialect())
	if err != nil {
		return nil, s.fetchErr(ctx, loc, err)
	}

	rowCount = int64(f.Len())
	s.notify(ctx, notify.Message{Text: fmt.Sprintf("Successfully fetched %d rows from %s", f.Len(), loc), Temporary: true})
	return f, nil
}

func (s *Store) missingTable(ctx context.Context, loc Location, err error) (*frame.Frame, error) {
	if s.config.GetMissingTablePolicy() == config.MissingTableError {
		return nil, s.fetchErr(ctx, loc, fmt.Errorf("%w: %w", ErrTableNotFound, err))
	}

	slog.Info("Table does not exist, returning no data", slog.String("table", loc.String()))
	s.notify(ctx, notify.Message{Text: fmt.Sprintf("Table %s does not exist", loc), Severity: notify.Warning, Temporary: true})
	return nil, nil
}

func (s *Store) fetchErr(ctx context.Context, loc Location, err error) error {
	err = fmt.Errorf("failed to fetch data from %s: %w", loc, err)
	s.notifyError(ctx, err)
	return err
}
