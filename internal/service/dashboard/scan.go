package dashboard

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"dashquery/internal/domain"
)

// RowSource is a forward-only cursor over query results. *sql.Rows
// satisfies it.
type RowSource interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// floater covers driver decimal types such as duckdb.Decimal.
type floater interface {
	Float64() float64
}

// scanRow reads the current row into cells typed by the plan layout.
func (p *QueryPlan) scanRow(rows RowSource) ([]domain.CellValue, error) {
	n := p.width()
	raw := make([]interface{}, n)
	ptrs := make([]interface{}, n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	cells := make([]domain.CellValue, n)
	for i, g := range p.groups {
		c, err := toCell(raw[i], g.valueType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", g.id, err)
		}
		cells[i] = c
	}
	base := len(p.groups)
	for j, m := range p.measures {
		c, err := toCell(raw[base+j], m.valueType)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", m.id, err)
		}
		cells[base+j] = c
	}
	for k, id := range p.HiddenColumns {
		i := base + len(p.measures) + k
		t := domain.Numeric()
		if k%2 == 1 {
			t = domain.Integer()
		}
		c, err := toCell(raw[i], t)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", id, err)
		}
		cells[i] = c
	}
	return cells, nil
}

// toCell converts a driver value into the cell variant of t.
func toCell(raw interface{}, t domain.ValueType) (domain.CellValue, error) {
	if raw == nil {
		return domain.NullCell{}, nil
	}
	switch t.Kind() {
	case domain.KindInteger:
		return toInteger(raw)
	case domain.KindNumeric:
		f, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		return domain.NumberCell(f), nil
	case domain.KindBoolean:
		return toBooleanText(raw)
	case domain.KindDate:
		if ts, ok := raw.(time.Time); ok {
			return domain.TextCell(ts.Format("2006-01-02")), nil
		}
		return toText(raw), nil
	case domain.KindDateTime:
		if ts, ok := raw.(time.Time); ok {
			return domain.TextCell(ts.Format("2006-01-02 15:04:05")), nil
		}
		return toText(raw), nil
	default:
		return toText(raw), nil
	}
}

func toInteger(raw interface{}) (domain.CellValue, error) {
	switch v := raw.(type) {
	case int64:
		return domain.IntegerCell(v), nil
	case int32:
		return domain.IntegerCell(v), nil
	case int:
		return domain.IntegerCell(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", v)
		}
		return domain.IntegerCell(v), nil
	case *big.Int:
		if !v.IsInt64() {
			return nil, fmt.Errorf("integer %s overflows int64", v)
		}
		return domain.IntegerCell(v.Int64()), nil
	case []byte:
		return parseInteger(string(v))
	case string:
		return parseInteger(v)
	}
	f, err := toFloat(raw)
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("value %v is not an integer", f)
	}
	return domain.IntegerCell(int64(f)), nil
}

func parseInteger(s string) (domain.CellValue, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse integer %q: %w", s, err)
	}
	return domain.IntegerCell(i), nil
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	case floater:
		return v.Float64(), nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	default:
		return 0, fmt.Errorf("unsupported numeric value %T", raw)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return f, nil
}

// toBooleanText renders booleans as "true"/"false"; SQLite stores them as
// integers.
func toBooleanText(raw interface{}) (domain.CellValue, error) {
	switch v := raw.(type) {
	case bool:
		return domain.TextCell(strconv.FormatBool(v)), nil
	case int64:
		return domain.TextCell(strconv.FormatBool(v != 0)), nil
	case []byte, string:
		b, err := strconv.ParseBool(string(toText(v).(domain.TextCell)))
		if err != nil {
			return nil, fmt.Errorf("parse boolean: %w", err)
		}
		return domain.TextCell(strconv.FormatBool(b)), nil
	default:
		return nil, fmt.Errorf("unsupported boolean value %T", raw)
	}
}

func toText(raw interface{}) domain.CellValue {
	switch v := raw.(type) {
	case string:
		return domain.TextCell(v)
	case []byte:
		return domain.TextCell(string(v))
	case time.Time:
		return domain.TextCell(v.Format(time.RFC3339))
	default:
		return domain.TextCell(fmt.Sprint(v))
	}
}
