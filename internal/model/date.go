package model

import (
    "strings"
    "time"
)

// DateLayout is the wire and column format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time component. It marshals to and from
// "YYYY-MM-DD" so birthdays do not drift across time zones.
type Date struct{ time.Time }

// NewDate truncates t to its calendar day in UTC.
func NewDate(y int, m time.Month, d int) Date {
    return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return Date{}, err
    }
    return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
    return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
    s := strings.Trim(string(b), `"`)
    if s == "" || s == "null" {
        return nil
    }
    p, err := ParseDate(s)
    if err != nil {
        return err
    }
    *d = p
    return nil
}
