package stage

import (
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/lepaya/data-snowflake-client/lib/frame"
	"github.com/lepaya/data-snowflake-client/lib/typing"
	"github.com/lepaya/data-snowflake-client/lib/typing/decimal"
)

type ParquetWriter struct{}

func (ParquetWriter) Extension() string {
	return ".parquet"
}

// ArrowType returns the Parquet column type for a kind. Struct and array values are stored as JSON text,
// so are decimals wider than NUMBER.
func ArrowType(kind typing.KindDetails) (arrow.DataType, error) {
	if kind.IsDecimal() {
		details := kind.ExtendedDecimalDetails
		if details.NotSet() {
			details = decimal.NewDetails(decimal.MaxPrecision, details.Scale())
		}

		if !details.Fits() {
			return arrow.BinaryTypes.String, nil
		}
		return &arrow.Decimal128Type{Precision: details.Precision(), Scale: details.Scale()}, nil
	}

	switch kind {
	case typing.Integer:
		return arrow.PrimitiveTypes.Int64, nil
	case typing.Float:
		return arrow.PrimitiveTypes.Float64, nil
	case typing.Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case typing.String, typing.Struct, typing.Array:
		return arrow.BinaryTypes.String, nil
	case typing.Binary:
		return arrow.BinaryTypes.Binary, nil
	case typing.TimestampTZ:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case typing.TimestampNTZ:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case typing.Date:
		return arrow.FixedWidthTypes.Date32, nil
	case typing.Time:
		return arrow.FixedWidthTypes.Time64us, nil
	}

	return nil, fmt.Errorf("unsupported kind %q", kind.Kind)
}

func buildSchema(columns []frame.Column) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(columns))
	for i, col := range columns {
		dataType, err := ArrowType(col.Kind)
		if err != nil {
			return nil, fmt.Errorf("failed to map column %q: %w", col.Name, err)
		}

		fields[i] = arrow.Field{Name: col.Name, Type: dataType, Nullable: true}
	}

	return arrow.NewSchema(fields, nil), nil
}

func (p ParquetWriter) WriteFile(filePath string, columns []frame.Column, rows [][]any) error {
	schema, err := buildSchema(columns)
	if err != nil {
		return fmt.Errorf("failed to generate arrow schema: %w", err)
	}

	record, err := buildRecord(schema, columns, rows)
	if err != nil {
		return err
	}
	defer record.Release()

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer, err := pqarrow.NewFileWriter(schema, file, parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy)), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err = writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return nil
}

func buildRecord(schema *arrow.Schema, columns []frame.Column, rows [][]any) (arrow.Record, error) {
	pool := memory.NewGoAllocator()
	builders := make([]array.Builder, len(columns))
	for i, field := range schema.Fields() {
		builders[i] = array.NewBuilder(pool, field.Type)
	}
	defer func() {
		for _, builder := range builders {
			builder.Release()
		}
	}()

	for _, row := range rows {
		for i, col := range columns {
			if err := appendValue(builders[i], col.Kind, row[i]); err != nil {
				return nil, fmt.Errorf("failed to append value to builder for column %q: %w", col.Name, err)
			}
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, builder := range builders {
		arrays[i] = builder.NewArray()
	}

	record := array.NewRecord(schema, arrays, int64(len(rows)))
	for _, arr := range arrays {
		// The record holds its own reference.
		arr.Release()
	}

	return record, nil
}

func appendValue(builder array.Builder, kind typing.KindDetails, val any) error {
	if val == nil {
		builder.AppendNull()
		return nil
	}

	switch castedBuilder := builder.(type) {
	case *array.Int64Builder:
		i, err := toInt64(val)
		if err != nil {
			return err
		}
		castedBuilder.Append(i)
	case *array.Float64Builder:
		f, err := toFloat64(val)
		if err != nil {
			return err
		}
		castedBuilder.Append(f)
	case *array.Decimal128Builder:
		dec, err := toDecimal(val)
		if err != nil {
			return err
		}

		unscaled, err := decimal.UnscaledBigInt(dec, castedBuilder.Type().(*arrow.Decimal128Type).Scale)
		if err != nil {
			return err
		}
		castedBuilder.Append(decimal128.FromBigInt(unscaled))
	case *array.BooleanBuilder:
		b, err := toBool(val)
		if err != nil {
			return err
		}
		castedBuilder.Append(b)
	case *array.StringBuilder:
		text, err := formatText(kind, val)
		if err != nil {
			return err
		}
		castedBuilder.Append(text)
	case *array.BinaryBuilder:
		bytes, err := toBytes(val)
		if err != nil {
			return err
		}
		castedBuilder.Append(bytes)
	case *array.TimestampBuilder:
		ts, err := toTime(val)
		if err != nil {
			return err
		}

		if kind == typing.TimestampNTZ {
			ts = wallClock(ts)
		}
		castedBuilder.Append(arrow.Timestamp(ts.UnixMicro()))
	case *array.Date32Builder:
		ts, err := toTime(val)
		if err != nil {
			return err
		}
		castedBuilder.Append(arrow.Date32FromTime(wallClock(ts)))
	case *array.Time64Builder:
		ts, err := toTime(val)
		if err != nil {
			return err
		}
		sinceMidnight := time.Duration(ts.Hour())*time.Hour + time.Duration(ts.Minute())*time.Minute +
			time.Duration(ts.Second())*time.Second + time.Duration(ts.Nanosecond())
		castedBuilder.Append(arrow.Time64(sinceMidnight.Microseconds()))
	default:
		return fmt.Errorf("unsupported builder %T", builder)
	}

	return nil
}
