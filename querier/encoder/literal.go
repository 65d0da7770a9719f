package encoder

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/thisisjab/oafilter/entity"
)

// numberPattern is the numeric literal syntax the lexer reads back.
var numberPattern = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)

// formatLiteral formats value as a literal of type t, or returns "" if it cannot.
// Strings are the exception: a missing string value is the empty string literal.
func formatLiteral(t entity.ValueType, value any) string {
	switch t {
	case entity.ValueTypeString:
		if value == nil {
			return "''"
		}
		return quote(stringify(value))
	case entity.ValueTypeInteger, entity.ValueTypeFloat:
		n, _ := formatNumber(value)
		return n
	case entity.ValueTypeBoolean:
		if value == "true" || value == true {
			return "true"
		}
		return "false"
	case entity.ValueTypeDate:
		return formatTemporal("DATE", stringify(value), "")
	case entity.ValueTypeDateTime:
		return formatTemporal("TIMESTAMP", stringify(value), "Z")
	default:
		return ""
	}
}

// formatBound formats one side of an ordering comparison. Only numeric and temporal
// types can be ordered.
func formatBound(t entity.ValueType, value any) (string, bool) {
	switch {
	case t.IsNumeric():
		return formatNumber(value)
	case t.IsTemporal():
		lit := formatLiteral(t, value)
		return lit, lit != ""
	default:
		return "", false
	}
}

func formatTemporal(fn, value, suffix string) string {
	if value == "" || strings.Contains(value, "'") {
		return ""
	}
	return fmt.Sprintf("%s('%s%s')", fn, value, suffix)
}

// formatNumber writes value as an unquoted number in plain decimal notation.
func formatNumber(value any) (string, bool) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case json.Number:
		return formatNumericString(v.String())
	case string:
		return formatNumericString(v)
	default:
		return "", false
	}
}

func formatFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

func formatNumericString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if numberPattern.MatchString(s) {
		return s, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return formatFloat(f)
}

// stringify renders value as plain text; nil is the empty string.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		if n, ok := formatNumber(v); ok {
			return n
		}
		return fmt.Sprint(v)
	}
}

// likeEscaper escapes the LIKE wildcards and the escape character itself.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// quote returns a single-quoted string literal with embedded quotes doubled.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
