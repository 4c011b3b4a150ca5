package vars

import (
	"strings"
	"time"
)

// ToLayout converts a strftime-style pattern to a Go time layout. Only the
// directives date variables and Date schema nodes need are supported; any
// other directive is a FormatError at use time, not a silent passthrough.
func ToLayout(pattern string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(pattern) {
			return "", &FormatError{Pattern: pattern, Reason: "dangling % at end of pattern"}
		}

		directive := pattern[i+1 : i+2]
		consumed := 2
		if directive == "." && i+2 < len(pattern) {
			// %.f family: dot plus fractional seconds.
			end := i + 2
			for end < len(pattern) && pattern[end] != 'f' {
				end++
			}
			if end >= len(pattern) {
				return "", &FormatError{Pattern: pattern, Reason: "unterminated %. directive"}
			}
			directive = pattern[i+1 : end+1]
			consumed = end + 1 - i
		} else if directive >= "1" && directive <= "9" && i+2 < len(pattern) && pattern[i+2] == 'f' {
			directive = pattern[i+1 : i+3]
			consumed = 3
		}

		layout, err := directiveLayout(directive, &b, pattern)
		if err != nil {
			return "", err
		}
		b.WriteString(layout)
		i += consumed
	}
	return b.String(), nil
}

func directiveLayout(directive string, b *strings.Builder, pattern string) (string, error) {
	switch directive {
	case "Y":
		return "2006", nil
	case "y":
		return "06", nil
	case "m":
		return "01", nil
	case "d":
		return "02", nil
	case "e":
		return "_2", nil
	case "j":
		return "002", nil
	case "H":
		return "15", nil
	case "M":
		return "04", nil
	case "S":
		return "05", nil
	case "b":
		return "Jan", nil
	case "B":
		return "January", nil
	case "a":
		return "Mon", nil
	case "A":
		return "Monday", nil
	case "Z":
		return "MST", nil
	case "z":
		return "-0700", nil
	case "%":
		return "%", nil
	case ".f":
		return ".9", nil
	case ".3f":
		return ".000", nil
	case ".6f":
		return ".000000", nil
	case ".9f":
		return ".000000000", nil
	case "3f", "6f", "9f", "f":
		// Go expresses fractional seconds only after a literal dot; require
		// the pattern to carry it.
		emitted := b.String()
		if !strings.HasSuffix(emitted, ".") {
			return "", &FormatError{Pattern: pattern, Reason: "%" + directive + " must follow a '.'"}
		}
		switch directive {
		case "3f":
			return "000", nil
		case "6f":
			return "000000", nil
		default:
			return "000000000", nil
		}
	default:
		return "", &FormatError{Pattern: pattern, Reason: "unsupported directive %" + directive}
	}
}

// FormatTime applies a strftime pattern to an instant.
func FormatTime(t time.Time, pattern string) (string, error) {
	layout, err := ToLayout(pattern)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// ParseTime parses a value under a strftime pattern.
func ParseTime(value, pattern string) (time.Time, error) {
	layout, err := ToLayout(pattern)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, value)
}
