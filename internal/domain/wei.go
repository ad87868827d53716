package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
)

// Wei is a native-currency amount in the chain's smallest unit. Stored in the
// DB as a decimal string so amounts above 2^63 survive the round trip, and
// marshalled to JSON as a string for the same reason (frontends treat wei as
// bigint strings, never floats).
type Wei struct {
	i big.Int
}

// NewWei returns a Wei from an int64 (convenient for fees and tests).
func NewWei(v int64) Wei {
	var w Wei
	w.i.SetInt64(v)
	return w
}

// ParseWei parses a base-10 amount string. Negative amounts are rejected.
func ParseWei(s string) (Wei, error) {
	var w Wei
	if s == "" {
		return w, errors.New("empty wei amount")
	}
	if _, ok := w.i.SetString(s, 10); !ok {
		return Wei{}, fmt.Errorf("invalid wei amount %q", s)
	}
	if w.i.Sign() < 0 {
		return Wei{}, fmt.Errorf("negative wei amount %q", s)
	}
	return w, nil
}

func (w Wei) String() string { return w.i.String() }

// Cmp compares w to other (-1, 0, +1).
func (w Wei) Cmp(other Wei) int { return w.i.Cmp(&other.i) }

// Sign returns -1, 0 or +1.
func (w Wei) Sign() int { return w.i.Sign() }

// Add returns w + other without mutating either operand.
func (w Wei) Add(other Wei) Wei {
	var out Wei
	out.i.Add(&w.i, &other.i)
	return out
}

// Sub returns w - other without mutating either operand.
func (w Wei) Sub(other Wei) Wei {
	var out Wei
	out.i.Sub(&w.i, &other.i)
	return out
}

// MulInt64 returns w * n without mutating w.
func (w Wei) MulInt64(n int64) Wei {
	var out Wei
	out.i.Mul(&w.i, big.NewInt(n))
	return out
}

// FeePortion returns floor(w * bps / 10000), the flat marketplace cut.
func (w Wei) FeePortion(bps int64) Wei {
	var out Wei
	out.i.Mul(&w.i, big.NewInt(bps))
	out.i.Quo(&out.i, big.NewInt(10000))
	return out
}

// MarshalJSON implements json.Marshaler (decimal string).
func (w Wei) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.i.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (w *Wei) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseWei(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Scan implements sql.Scanner (text column).
func (w *Wei) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*w = Wei{}
		return nil
	case []byte:
		return w.setString(string(v))
	case string:
		return w.setString(v)
	case int64:
		w.i.SetInt64(v)
		return nil
	default:
		return fmt.Errorf("unsupported type %T for Wei", value)
	}
}

func (w *Wei) setString(s string) error {
	if s == "" {
		*w = Wei{}
		return nil
	}
	parsed, err := ParseWei(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Value implements driver.Valuer.
func (w Wei) Value() (driver.Value, error) {
	return w.i.String(), nil
}

// GormDataType keeps the column textual on every dialect (sqlite in tests,
// Postgres in production) so precision is never lost to float conversion.
func (Wei) GormDataType() string {
	return "varchar(78)"
}
