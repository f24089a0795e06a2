package stage

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/lepaya/data-snowflake-client/lib/frame"
)

// NullValue is written for NULL cells, the COPY file format maps it back with NULL_IF.
const NullValue = `\N`

// CSVWriter writes gzipped tab separated files without a header.
type CSVWriter struct{}

func (CSVWriter) Extension() string {
	return ".csv.gz"
}

type gzipWriter struct {
	file   *os.File
	gzip   *gzip.Writer
	writer *csv.Writer
}

func newGzipWriter(fp string) (*gzipWriter, error) {
	file, err := os.Create(fp)
	if err != nil {
		return nil, err
	}

	gz := gzip.NewWriter(file)
	csvWriter := csv.NewWriter(gz)
	csvWriter.Comma = '\t'
	return &gzipWriter{
		file:   file,
		gzip:   gz,
		writer: csvWriter,
	}, nil
}

func (g *gzipWriter) Close() error {
	g.writer.Flush()
	if err := g.writer.Error(); err != nil {
		_ = g.gzip.Close()
		_ = g.file.Close()
		return err
	}
	if err := g.gzip.Close(); err != nil {
		_ = g.file.Close()
		return err
	}
	return g.file.Close()
}

func (CSVWriter) WriteFile(filePath string, columns []frame.Column, rows [][]any) error {
	writer, err := newGzipWriter(filePath)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			if row[i] == nil {
				record[i] = NullValue
				continue
			}

			if record[i], err = formatText(col.Kind, row[i]); err != nil {
				_ = writer.Close()
				return fmt.Errorf("failed to format value for column %q: %w", col.Name, err)
			}
		}

		if err = writer.writer.Write(record); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return writer.Close()
}
