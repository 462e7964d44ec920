// Package convert holds safe numeric/string/time conversions used at
// API and broadcast boundaries. None of these are used at a
// persistence boundary — persisted money always goes through
// common/decimal.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errUnhandledType = errors.New("convert: unhandled type")

// FloatFromString converts an interface{} expected to hold a string
// into a float64.
func FloatFromString(raw any) (float64, error) {
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("convert: unable to convert %T to string", raw)
	}
	flt, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("convert: could not convert value: %q to float64: %w", str, err)
	}
	return flt, nil
}

// IntFromString converts an interface{} expected to hold a string into
// an int.
func IntFromString(raw any) (int, error) {
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("convert: unable to convert %T to string", raw)
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("convert: could not convert value: %q to int: %w", str, err)
	}
	return n, nil
}

// Int64FromString converts an interface{} expected to hold a string
// into an int64.
func Int64FromString(raw any) (int64, error) {
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("convert: unable to convert %T to string", raw)
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("convert: could not convert value: %q to int64: %w", str, err)
	}
	return n, nil
}

// UnixTimestampToTime returns a UTC time.Time for a unix seconds value.
func UnixTimestampToTime(timeint64 int64) time.Time {
	return time.Unix(timeint64, 0).UTC()
}

// UnixTimestampStrToTime parses a string unix-seconds timestamp.
func UnixTimestampStrToTime(timeStr string) (time.Time, error) {
	i, err := strconv.ParseInt(timeStr, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(i, 0), nil
}

// BoolPtr returns a pointer to b, for optional config fields.
func BoolPtr(b bool) *bool { return &b }

// FloatToHumanFriendlyString renders a float with thousands separators,
// used only for broadcast/log-friendly rendering of money values.
func FloatToHumanFriendlyString(f float64, decimalPlaces int, decimalSeparator, thousandsSeparator string) string {
	negative := f < 0
	return numberToHumanFriendlyString(strconv.FormatFloat(math.Abs(f), 'f', decimalPlaces, 64), decimalPlaces, decimalSeparator, thousandsSeparator, negative)
}

// DecimalToHumanFriendlyString renders a decimal.Decimal with thousands
// separators.
func DecimalToHumanFriendlyString(d decimal.Decimal, decimalPlaces int32, decimalSeparator, thousandsSeparator string) string {
	negative := d.IsNegative()
	return numberToHumanFriendlyString(d.Abs().StringFixed(decimalPlaces), int(decimalPlaces), decimalSeparator, thousandsSeparator, negative)
}

// IntToHumanFriendlyString renders an int with thousands separators.
func IntToHumanFriendlyString(n int, thousandsSeparator string) string {
	negative := n < 0
	return numberToHumanFriendlyString(strconv.Itoa(int(math.Abs(float64(n)))), 0, "", thousandsSeparator, negative)
}

func numberToHumanFriendlyString(s string, decimalPlaces int, decimalSeparator, thousandsSeparator string, negative bool) string {
	intPart := s
	fracPart := ""
	if decimalPlaces > 0 {
		if idx := strings.IndexByte(s, '.'); idx != -1 {
			intPart = s[:idx]
			fracPart = s[idx+1:]
		}
	}

	var grouped strings.Builder
	for i, c := range intPart {
		if i != 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteString(thousandsSeparator)
		}
		grouped.WriteRune(c)
	}

	out := grouped.String()
	if fracPart != "" {
		out += decimalSeparator + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

// InterfaceToFloat64OrZeroValue returns x as a float64, or 0 if x is
// not a float64.
func InterfaceToFloat64OrZeroValue(x any) float64 {
	f, _ := x.(float64)
	return f
}

// InterfaceToIntOrZeroValue returns x as an int, or 0 if x is not an int.
func InterfaceToIntOrZeroValue(x any) int {
	n, _ := x.(int)
	return n
}

// InterfaceToStringOrZeroValue returns x as a string, or "" if x is not
// a string.
func InterfaceToStringOrZeroValue(x any) string {
	s, _ := x.(string)
	return s
}

// StringToFloat64 is a float64 that marshals/unmarshals through a JSON
// string, used for agent outputs that quote numeric confidence/price
// fields.
type StringToFloat64 float64

// Float64 returns the underlying value.
func (s StringToFloat64) Float64() float64 { return float64(s) }

// Decimal returns the underlying value as a decimal.Decimal.
func (s StringToFloat64) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(s))
}

// UnmarshalJSON accepts a JSON string containing a number, or an empty
// string (decoded as zero). A bare JSON number is rejected.
func (s *StringToFloat64) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("convert: StringToFloat64 expects a JSON string: %w: %w", errUnhandledType, err)
	}
	if raw == "" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("convert: StringToFloat64 could not parse %q: %w", raw, err)
	}
	*s = StringToFloat64(f)
	return nil
}

// MarshalJSON renders the value as a quoted JSON string; the zero
// value marshals to an empty string.
func (s StringToFloat64) MarshalJSON() ([]byte, error) {
	if s == 0 {
		return json.Marshal("")
	}
	return json.Marshal(strconv.FormatFloat(float64(s), 'f', -1, 64))
}
