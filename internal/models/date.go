package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the wire form of a date without a time of day.
const DateLayout = "2006-01-02"

// Date is a task due date. Date-only values are midnight in the local zone;
// values carrying a time of day keep it.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) *Date {
	return &Date{Time: t}
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. An empty string is the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: want YYYY-MM-DD or RFC 3339", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOnly reports whether d is local midnight, the form YYYY-MM-DD parses to.
// Midnight in any other zone keeps its offset.
func (d Date) DateOnly() bool {
	if d.Location() != time.Local {
		return false
	}
	h, m, s := d.Clock()
	return h == 0 && m == 0 && s == 0 && d.Nanosecond() == 0
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if d.DateOnly() {
		return d.Format(DateLayout)
	}
	return d.Format(time.RFC3339)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as text so date-only values survive without a zone shift.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = Date{Time: v}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}
