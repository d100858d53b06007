package transport

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Loose accepts a JSON number, a string or null. Form posts and hand-written
// clients send ids and quantities either way; Int tells whether the value is
// a usable integer.
type Loose struct {
	raw string
	set bool
}

func LooseOf(s string) Loose { return Loose{raw: s, set: true} }

func (l *Loose) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*l = Loose{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Loose{raw: s, set: true}
	default:
		*l = Loose{raw: string(b), set: true}
	}
	return nil
}

func (l Loose) MarshalJSON() ([]byte, error) {
	if !l.set {
		return []byte("null"), nil
	}
	return json.Marshal(l.raw)
}

func (l Loose) IsSet() bool { return l.set }

func (l Loose) String() string { return l.raw }

func (l Loose) Int() (int64, bool) {
	if !l.set {
		return 0, false
	}
	s := strings.TrimSpace(l.raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}

// ID is Int restricted to positive values.
func (l Loose) ID() (uint, bool) {
	n, ok := l.Int()
	if !ok || n <= 0 {
		return 0, false
	}
	return uint(n), true
}
