// Package sheetdate converts spreadsheet serial dates into time values.
//
// Spreadsheets count days from 1900-01-01 as day 1 and treat 1900 as a leap
// year. Schedules are exported straight from such sheets, so conversion keeps
// that miscount: the serial 25569 is the Unix epoch, and serial 1 lands on
// 1899-12-31.
package sheetdate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// UnixEpochSerial is the serial number of 1970-01-01T00:00:00Z.
	UnixEpochSerial = 25569

	msPerDay = 86400 * 1000
)

// ToTime converts a serial date (fractions are times of day) to UTC.
func ToTime(serial float64) time.Time {
	ms := math.Round((serial - UnixEpochSerial) * msPerDay)
	return time.UnixMilli(int64(ms)).UTC()
}

// FromTime converts t back to a serial date.
func FromTime(t time.Time) float64 {
	return float64(t.UnixMilli())/msPerDay + UnixEpochSerial
}

// Value is a serial date read from a schedule sheet. Sheets export cells as
// numbers or strings, and blank cells as "" or null.
type Value struct {
	serial  float64
	present bool
	valid   bool
	raw     string
}

// Serial returns a present, valid Value for serial.
func Serial(serial float64) Value {
	if serial == 0 {
		return Value{}
	}
	return Value{serial: serial, present: true, valid: true}
}

// Parse reads a cell's text the way the sheet's consumers coerce it. Only the
// empty string is absent. Blank text counts as serial 0; text that is not a
// number is present but invalid.
func Parse(text string) Value {
	if text == "" {
		return Value{}
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Value{present: true, valid: true, raw: text}
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{present: true, raw: text}
	}
	return Value{serial: f, present: true, valid: true, raw: text}
}

// Present reports whether the cell had a value. An empty, null, false or
// numeric zero cell does not restrict a date window.
func (v Value) Present() bool {
	return v.present
}

// Valid reports whether the cell held a usable number.
func (v Value) Valid() bool {
	return v.valid
}

// Time returns the converted time and whether the value was usable.
func (v Value) Time() (time.Time, bool) {
	if !v.valid {
		return time.Time{}, false
	}
	return ToTime(v.serial), true
}

// NotAfter reports whether the value is at or before now. Invalid values never
// compare true.
func (v Value) NotAfter(now time.Time) bool {
	t, ok := v.Time()
	return ok && !t.After(now)
}

// After reports whether the value is strictly after now. Invalid values never
// compare true.
func (v Value) After(now time.Time) bool {
	t, ok := v.Time()
	return ok && t.After(now)
}

func (v Value) String() string {
	switch {
	case !v.present:
		return ""
	case !v.valid:
		return v.raw
	default:
		return strconv.FormatFloat(v.serial, 'f', -1, 64)
	}
}

// UnmarshalJSON accepts numbers, strings, booleans and null. true is serial 1.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding sheet date: %w", err)
		}
		*v = Parse(s)
		return nil
	}

	if bytes.Equal(data, []byte("true")) {
		*v = Value{serial: 1, present: true, valid: true, raw: "true"}
		return nil
	}
	if bytes.Equal(data, []byte("false")) {
		*v = Value{}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding sheet date: %w", err)
	}
	*v = Serial(f)
	return nil
}

// MarshalJSON writes present values as numbers and absent ones as "". A
// present serial 0 keeps its cell text so it does not read back as absent.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.present:
		return []byte(`""`), nil
	case !v.valid, v.serial == 0:
		return json.Marshal(v.raw)
	default:
		return json.Marshal(v.serial)
	}
}
