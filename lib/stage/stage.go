package stage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lepaya/data-snowflake-client/lib/config"
	"github.com/lepaya/data-snowflake-client/lib/frame"
)

type Writer interface {
	Extension() string
	WriteFile(filePath string, columns []frame.Column, rows [][]any) error
}

func NewWriter(format config.StageFileFormat) (Writer, error) {
	switch format {
	case config.Parquet:
		return ParquetWriter{}, nil
	case config.CSV:
		return CSVWriter{}, nil
	}

	return nil, fmt.Errorf("unsupported stage file format %q", format)
}

// Files is a set of chunk files in a temporary directory.
type Files struct {
	Dir   string
	Paths []string
}

func (f Files) Remove() {
	if err := os.RemoveAll(f.Dir); err != nil {
		slog.Warn("Failed to delete stage files", slog.String("dir", f.Dir), slog.Any("err", err))
	}
}

// WriteChunks writes every chunk into its own file, in parallel. Paths keep the chunk order.
func WriteChunks(ctx context.Context, writer Writer, columns []frame.Column, chunks [][][]any) (Files, error) {
	dir, err := os.MkdirTemp("", "snowflake_stage_")
	if err != nil {
		return Files{}, fmt.Errorf("failed to create stage directory: %w", err)
	}

	files := Files{Dir: dir, Paths: make([]string, len(chunks))}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, chunk := range chunks {
		files.Paths[i] = filepath.Join(dir, fmt.Sprintf("chunk_%05d%s", i, writer.Extension()))
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := writer.WriteFile(files.Paths[i], columns, chunk); err != nil {
				return fmt.Errorf("failed to write chunk %d: %w", i, err)
			}
			return nil
		})
	}

	if err = group.Wait(); err != nil {
		files.Remove()
		return Files{}, err
	}

	return files, nil
}
