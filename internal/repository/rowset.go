// internal/repository/rowset.go
package repository

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// RowSet is one untyped result set. Column values are plain Go values; textual driver
// values ([]byte) are converted to string.
type RowSet []Row

// Decode maps every row of set to T using `db` struct tags.
func Decode[T any](set RowSet) ([]T, error) {
	out := make([]T, 0, len(set))
	for i, row := range set {
		var item T
		if err := decodeRow(row, &item); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// DecodeOne maps the first row of set to T. It returns nil when the set is empty.
func DecodeOne[T any](set RowSet) (*T, error) {
	if len(set) == 0 {
		return nil, nil
	}
	var item T
	if err := decodeRow(set[0], &item); err != nil {
		return nil, fmt.Errorf("failed to decode row 0: %w", err)
	}
	return &item, nil
}

func decodeRow(row Row, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			bytesToStringHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	// A scalar target takes the single column of the row.
	if len(row) == 1 && !isRecord(target) {
		for _, v := range row {
			return decoder.Decode(v)
		}
	}
	return decoder.Decode(row)
}

func isRecord(target any) bool {
	t := reflect.TypeOf(target).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeOf(decimal.Decimal{}) || t == reflect.TypeOf(time.Time{}) {
		return false
	}
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Map
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	}
	return data, nil
}

func bytesToStringHook(from, to reflect.Type, data any) (any, error) {
	if b, ok := data.([]byte); ok && to.Kind() == reflect.String {
		return string(b), nil
	}
	return data, nil
}

// scanRowSet drains rows into a RowSet.
func scanRowSet(rows *sqlx.Rows) (RowSet, error) {
	set := RowSet{}
	for rows.Next() {
		row := make(Row)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		normalize(row)
		set = append(set, row)
	}
	return set, rows.Err()
}

func normalize(row Row) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}
