package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentFold strips combining marks so "Cédula" and "Cedula" compare equal.
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normKey canonicalizes an incoming JSON key: accent-insensitive, lowercase,
// camelCase split, spaces/hyphens collapsed to single underscores.
func normKey(key string) string {
	folded, _, err := transform.String(accentFold, key)
	if err != nil {
		folded = key
	}

	var b strings.Builder
	b.Grow(len(folded) + 4)
	prevUnderscore := true // suppress leading separators
	prevUpper := false
	for i, r := range folded {
		switch {
		case unicode.IsUpper(r):
			// split camelCase, but keep acronym runs ("UF") together
			if i > 0 && !prevUnderscore && !prevUpper {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
			prevUpper = true
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !prevUnderscore {
				b.WriteByte('_')
			}
			prevUnderscore = true
			prevUpper = false
		default:
			b.WriteRune(unicode.ToLower(r))
			prevUnderscore = false
			prevUpper = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// spanishMonths maps long-form month names to their number, for dates like
// "1 de septiembre de 2024" (common in the upstream extractor's output).
var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02", "02-01-2006"}

// parseDate accepts ISO dates, the regional numeric forms, and the Spanish
// long form. The result is midnight UTC to match DATE column semantics.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	lower := strings.ToLower(s)
	if parts := strings.Split(lower, " de "); len(parts) == 3 {
		month, ok := spanishMonths[strings.TrimSpace(parts[1])]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown month %q", parts[1])
		}
		day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day %q", parts[0])
		}
		year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid year %q", parts[2])
		}
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || t.Month() != month {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		return t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// parseDecimal turns a monetary value (JSON number or string with currency
// noise like "$ 1.500.000", "UF 50", "1.234,56") into an exact decimal.
func parseDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			return decimal.Decimal{}, fmt.Errorf("empty amount")
		}
		// keep digits, separators and sign only
		s = strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
				return r
			}
			return -1
		}, s)
		dot := strings.LastIndex(s, ".")
		com := strings.LastIndex(s, ",")
		switch {
		case dot >= 0 && com >= 0:
			// the separator appearing last is the decimal mark
			if com > dot {
				s = strings.ReplaceAll(s, ".", "")
				s = strings.ReplaceAll(s, ",", ".")
			} else {
				s = strings.ReplaceAll(s, ",", "")
			}
		case com >= 0:
			if strings.Count(s, ",") > 1 {
				s = strings.ReplaceAll(s, ",", "")
			} else {
				s = strings.ReplaceAll(s, ",", ".")
			}
		case dot >= 0:
			// regional thousands grouping: every group after the first has
			// three digits ("2.500.000", "500.000")
			groups := strings.Split(s, ".")
			grouped := len(groups) > 1
			for _, g := range groups[1:] {
				if len(g) != 3 {
					grouped = false
					break
				}
			}
			if grouped {
				s = strings.ReplaceAll(s, ".", "")
			}
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("not a decimal amount: %q", t)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported amount type %T", v)
	}
}

// parseBool accepts native booleans and the textual equivalents the extractor
// emits ("si"/"no", "true"/"false").
func parseBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "si", "sí", "true", "1", "yes":
			return true, nil
		case "no", "false", "0", "":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", t)
	default:
		return false, fmt.Errorf("unsupported boolean type %T", v)
	}
}

func parseInt(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("empty integer")
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		// tolerate trailing units ("30 días")
		i := 0
		if i < len(s) && (s[i] == '-' || s[i] == '+') {
			i++
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == i {
			return 0, fmt.Errorf("not an integer: %q", t)
		}
		return strconv.Atoi(s[:j])
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}

// asString renders scalar JSON values as trimmed strings; nil stays empty.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
