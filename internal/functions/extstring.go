package functions

import "strings"

// soundexCode is MariaDB's extended SOUNDEX digit map: letters not listed
// (vowels, H, W, Y) are dropped rather than coded.
var soundexCode = map[byte]byte{
	'B': '1', 'F': '1', 'P': '1', 'V': '1',
	'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
	'D': '3', 'T': '3',
	'L': '4',
	'M': '5', 'N': '5',
	'R': '6',
}

// Soundex computes MariaDB's extended SOUNDEX: first letter kept verbatim,
// remaining letters mapped and deduplicated against the previous code,
// padded to at least 4 characters.
func Soundex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte(s[0])
	last := soundexCode[s[0]]
	for i := 1; i < len(s); i++ {
		code, ok := soundexCode[s[i]]
		if !ok {
			last = 0
			continue
		}
		if code != last {
			b.WriteByte(code)
		}
		last = code
	}
	out := b.String()
	for len(out) < 4 {
		out += "0"
	}
	return out
}

// FormatNumber implements FORMAT(x,d): fixed-point rounding to d decimals
// plus comma grouping of the integer part every three digits.
func FormatNumber(x float64, d int) string {
	neg := x < 0
	if neg {
		x = -x
	}
	scaled := roundHalfAwayFromZero(x, d)
	intPart := int64(scaled)
	frac := scaled - float64(intPart)

	grouped := groupThousands(intPart)
	out := grouped
	if d > 0 {
		fracStr := fracDigits(frac, d)
		out = grouped + "." + fracStr
	}
	if neg {
		out = "-" + out
	}
	return out
}

func roundHalfAwayFromZero(x float64, d int) float64 {
	mult := 1.0
	for i := 0; i < d; i++ {
		mult *= 10
	}
	return float64(int64(x*mult+0.5)) / mult
}

func groupThousands(n int64) string {
	s := itoa(n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

func fracDigits(frac float64, d int) string {
	mult := 1.0
	for i := 0; i < d; i++ {
		mult *= 10
	}
	n := int64(frac*mult + 0.5)
	s := itoa(n)
	for len(s) < d {
		s = "0" + s
	}
	return s
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func registerExtendedString() {
	register(FamilyExtendedString, []string{"CONCAT_WS"}, func(args []string) (interface{}, error) {
		if len(args) < 2 {
			return nil, &UnknownFunctionError{Name: "CONCAT_WS"}
		}
		sep := FieldExpr(args[0])
		parts := A{}
		for i, a := range args[1:] {
			if i > 0 {
				parts = append(parts, sep)
			}
			parts = append(parts, FieldExpr(a))
		}
		return M{"$concat": parts}, nil
	})

	register(FamilyExtendedString, []string{"REGEXP_SUBSTR"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "REGEXP_SUBSTR"}
		}
		pattern, _ := StripQuotes(strings.TrimSpace(args[1]))
		return M{"$regexFind": M{"input": FieldExpr(args[0]), "regex": pattern}}, nil
	})

	register(FamilyExtendedString, []string{"FORMAT"}, func(args []string) (interface{}, error) {
		if len(args) < 2 {
			return nil, &UnknownFunctionError{Name: "FORMAT"}
		}
		if IsLiteral(args[0]) {
			f := toFloat(numericLiteral(strings.TrimSpace(args[0])))
			d := int(toFloat(numericLiteral(strings.TrimSpace(args[1]))))
			return M{"$literal": FormatNumber(f, d)}, nil
		}
		return M{"$formatNumber": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})

	register(FamilyExtendedString, []string{"SOUNDEX"}, func(args []string) (interface{}, error) {
		if len(args) != 1 {
			return nil, &UnknownFunctionError{Name: "SOUNDEX"}
		}
		if s, quoted := StripQuotes(strings.TrimSpace(args[0])); quoted {
			return M{"$literal": Soundex(s)}, nil
		}
		return M{"$soundex": FieldExpr(args[0])}, nil
	})

	register(FamilyExtendedString, []string{"HEX"}, func(args []string) (interface{}, error) {
		return M{"$hex": FieldExpr(args[0])}, nil
	})
	register(FamilyExtendedString, []string{"UNHEX"}, func(args []string) (interface{}, error) {
		return M{"$unhex": FieldExpr(args[0])}, nil
	})
	register(FamilyExtendedString, []string{"BIN"}, func(args []string) (interface{}, error) {
		return M{"$bin": FieldExpr(args[0])}, nil
	})
}
