package functions

import "strings"

// dateFormatSpecifiers is the fixed MySQL -> MongoDB DATE_FORMAT specifier
// table from spec §4.F. Unsupported specifiers pass through unchanged.
var dateFormatSpecifiers = map[string]string{
	"%Y": "%Y", "%M": "%B", "%m": "%m", "%d": "%d", "%W": "%A",
	"%H": "%H", "%h": "%I", "%i": "%M", "%s": "%S", "%p": "%p",
	"%r": "%I:%M:%S %p", "%T": "%H:%M:%S", "%%": "%",
}

// TranslateDateFormat rewrites a MySQL DATE_FORMAT pattern into the
// MongoDB $dateToString format string.
func TranslateDateFormat(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' && i+1 < len(pattern) {
			spec := pattern[i : i+2]
			if repl, ok := dateFormatSpecifiers[spec]; ok {
				b.WriteString(repl)
				i++
				continue
			}
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}

// LooksLikeTimeOnly recognises a bare "HH:MM:SS"-shaped literal so callers
// can prefix it with the MariaDB-compatible epoch date before parsing.
func LooksLikeTimeOnly(s string) bool {
	if len(s) < 5 || len(s) > 8 {
		return false
	}
	return strings.Count(s, ":") >= 1 && !strings.Contains(s, "-")
}

// dateAddUnits maps the unit keyword to $dateAdd's unit string.
var dateAddUnits = map[string]string{
	"YEAR": "year", "QUARTER": "quarter", "MONTH": "month", "WEEK": "week",
	"DAY": "day", "HOUR": "hour", "MINUTE": "minute", "SECOND": "second",
	"MICROSECOND": "millisecond",
}

func registerDateTime() {
	nowExpr := M{"$dateToString": M{"format": "%Y-%m-%d %H:%M:%S", "date": "$$NOW"}}
	register(FamilyDateTime, []string{"NOW", "SYSDATE", "LOCALTIMESTAMP", "CURRENT_TIMESTAMP"}, func(args []string) (interface{}, error) {
		return nowExpr, nil
	})
	register(FamilyDateTime, []string{"CURDATE", "CURRENT_DATE", "UTC_DATE"}, func(args []string) (interface{}, error) {
		return M{"$dateToString": M{"format": "%Y-%m-%d", "date": "$$NOW"}}, nil
	})
	register(FamilyDateTime, []string{"CURTIME", "CURRENT_TIME", "UTC_TIME", "LOCALTIME"}, func(args []string) (interface{}, error) {
		return M{"$dateToString": M{"format": "%H:%M:%S", "date": "$$NOW"}}, nil
	})
	register(FamilyDateTime, []string{"UTC_TIMESTAMP"}, func(args []string) (interface{}, error) {
		return nowExpr, nil
	})

	extractor := func(mongoOp string) Handler {
		return func(args []string) (interface{}, error) {
			if len(args) != 1 {
				return nil, &UnknownFunctionError{Name: mongoOp}
			}
			return M{mongoOp: dateArg(args[0])}, nil
		}
	}
	register(FamilyDateTime, []string{"YEAR"}, extractor("$year"))
	register(FamilyDateTime, []string{"MONTH"}, extractor("$month"))
	register(FamilyDateTime, []string{"DAY", "DAYOFMONTH"}, extractor("$dayOfMonth"))
	register(FamilyDateTime, []string{"HOUR"}, extractor("$hour"))
	register(FamilyDateTime, []string{"MINUTE"}, extractor("$minute"))
	register(FamilyDateTime, []string{"SECOND"}, extractor("$second"))
	register(FamilyDateTime, []string{"DAYOFYEAR"}, extractor("$dayOfYear"))
	register(FamilyDateTime, []string{"MICROSECOND"}, extractor("$millisecond"))
	register(FamilyDateTime, []string{"QUARTER"}, func(args []string) (interface{}, error) {
		month := M{"$month": dateArg(args[0])}
		return M{"$ceil": M{"$divide": A{month, 3}}}, nil
	})
	register(FamilyDateTime, []string{"WEEK", "WEEKOFYEAR"}, extractor("$week"))
	register(FamilyDateTime, []string{"YEARWEEK"}, func(args []string) (interface{}, error) {
		d := dateArg(args[0])
		return M{"$add": A{
			M{"$multiply": A{M{"$year": d}, 100}},
			M{"$week": d},
		}}, nil
	})

	// WEEKDAY maps MongoDB's 1=Sunday convention to MySQL's 0=Monday by
	// arithmetic: mysql = (mongo + 5) % 7.
	register(FamilyDateTime, []string{"WEEKDAY"}, func(args []string) (interface{}, error) {
		d := dateArg(args[0])
		mongoDow := M{"$dayOfWeek": d}
		return M{"$mod": A{M{"$add": A{mongoDow, 5}}, 7}}, nil
	})
	register(FamilyDateTime, []string{"DAYOFWEEK"}, extractor("$dayOfWeek"))

	register(FamilyDateTime, []string{"DAYNAME"}, func(args []string) (interface{}, error) {
		d := dateArg(args[0])
		dow := M{"$dayOfWeek": d}
		return M{"$switch": M{
			"branches": A{
				M{"case": M{"$eq": A{dow, 1}}, "then": "Sunday"},
				M{"case": M{"$eq": A{dow, 2}}, "then": "Monday"},
				M{"case": M{"$eq": A{dow, 3}}, "then": "Tuesday"},
				M{"case": M{"$eq": A{dow, 4}}, "then": "Wednesday"},
				M{"case": M{"$eq": A{dow, 5}}, "then": "Thursday"},
				M{"case": M{"$eq": A{dow, 6}}, "then": "Friday"},
				M{"case": M{"$eq": A{dow, 7}}, "then": "Saturday"},
			},
			"default": "",
		}}, nil
	})
	register(FamilyDateTime, []string{"MONTHNAME"}, func(args []string) (interface{}, error) {
		return M{"$dateToString": M{"format": "%B", "date": dateArg(args[0])}}, nil
	})

	register(FamilyDateTime, []string{"DATE_FORMAT", "TIME_FORMAT"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "DATE_FORMAT"}
		}
		pattern, _ := StripQuotes(strings.TrimSpace(args[1]))
		return M{"$dateToString": M{"format": TranslateDateFormat(pattern), "date": dateArg(args[0])}}, nil
	})

	dateAdd := func(sign int) Handler {
		return func(args []string) (interface{}, error) {
			if len(args) != 2 {
				return nil, &UnknownFunctionError{Name: "DATE_ADD"}
			}
			amount, unit := splitIntervalArg(args[1])
			if sign < 0 {
				return M{"$dateSubtract": M{"startDate": dateArg(args[0]), "unit": unit, "amount": amount}}, nil
			}
			return M{"$dateAdd": M{"startDate": dateArg(args[0]), "unit": unit, "amount": amount}}, nil
		}
	}
	register(FamilyDateTime, []string{"DATE_ADD", "ADDDATE"}, dateAdd(1))
	register(FamilyDateTime, []string{"DATE_SUB", "SUBDATE"}, dateAdd(-1))

	register(FamilyDateTime, []string{"TIMESTAMPADD"}, func(args []string) (interface{}, error) {
		if len(args) != 3 {
			return nil, &UnknownFunctionError{Name: "TIMESTAMPADD"}
		}
		unit := dateAddUnits[strings.ToUpper(strings.TrimSpace(args[0]))]
		return M{"$dateAdd": M{"startDate": dateArg(args[2]), "unit": unit, "amount": numericLiteral(strings.TrimSpace(args[1]))}}, nil
	})

	register(FamilyDateTime, []string{"DATEDIFF"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "DATEDIFF"}
		}
		diffMs := M{"$subtract": A{M{"$toLong": dateArg(args[0])}, M{"$toLong": dateArg(args[1])}}}
		return M{"$trunc": M{"$divide": A{diffMs, 86400000}}}, nil
	})

	register(FamilyDateTime, []string{"TIMESTAMPDIFF"}, func(args []string) (interface{}, error) {
		if len(args) != 3 {
			return nil, &UnknownFunctionError{Name: "TIMESTAMPDIFF"}
		}
		unit := strings.ToUpper(strings.TrimSpace(args[0]))
		from, to := dateArg(args[1]), dateArg(args[2])
		switch unit {
		case "YEAR", "QUARTER", "MONTH":
			return M{"$dateDiff": M{"startDate": from, "endDate": to, "unit": dateAddUnits[unit]}}, nil
		default:
			diffMs := M{"$subtract": A{M{"$toLong": to}, M{"$toLong": from}}}
			divisor := map[string]int64{"WEEK": 604800000, "DAY": 86400000, "HOUR": 3600000, "MINUTE": 60000, "SECOND": 1000}[unit]
			if divisor == 0 {
				divisor = 1
			}
			return M{"$trunc": M{"$divide": A{diffMs, divisor}}}, nil
		}
	})

	register(FamilyDateTime, []string{"TO_DAYS"}, func(args []string) (interface{}, error) {
		return M{"$toDays": dateArg(args[0])}, nil
	})
	register(FamilyDateTime, []string{"FROM_DAYS"}, func(args []string) (interface{}, error) {
		return M{"$fromDays": FieldExpr(args[0])}, nil
	})
	register(FamilyDateTime, []string{"SEC_TO_TIME"}, func(args []string) (interface{}, error) {
		return M{"$secToTime": FieldExpr(args[0])}, nil
	})
	register(FamilyDateTime, []string{"TIME_TO_SEC"}, func(args []string) (interface{}, error) {
		return M{"$timeToSec": dateArg(args[0])}, nil
	})
	register(FamilyDateTime, []string{"MAKEDATE"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "MAKEDATE"}
		}
		return M{"$makeDate": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})
	register(FamilyDateTime, []string{"MAKETIME"}, func(args []string) (interface{}, error) {
		if len(args) != 3 {
			return nil, &UnknownFunctionError{Name: "MAKETIME"}
		}
		return M{"$makeTime": A{FieldExpr(args[0]), FieldExpr(args[1]), FieldExpr(args[2])}}, nil
	})
	register(FamilyDateTime, []string{"PERIOD_ADD"}, func(args []string) (interface{}, error) {
		return M{"$periodAdd": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})
	register(FamilyDateTime, []string{"PERIOD_DIFF"}, func(args []string) (interface{}, error) {
		return M{"$periodDiff": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})
	register(FamilyDateTime, []string{"ADDTIME"}, func(args []string) (interface{}, error) {
		return M{"$addTime": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})
	register(FamilyDateTime, []string{"SUBTIME"}, func(args []string) (interface{}, error) {
		return M{"$subTime": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})
}

// dateArg builds the $dateFromString conversion a field/literal argument
// needs before any date expression can operate on it; bare field
// references are passed through since the document is expected to already
// store a BSON date.
func dateArg(arg string) interface{} {
	arg = strings.TrimSpace(arg)
	if s, quoted := StripQuotes(arg); quoted {
		if LooksLikeTimeOnly(s) {
			s = "1970-01-01T" + s
		}
		return M{"$dateFromString": M{"dateString": s}}
	}
	return FieldExpr(arg)
}

// splitIntervalArg parses MySQL's "INTERVAL n UNIT" shape (the parser
// leaves it as raw text in the argument) into ($dateAdd amount, unit).
func splitIntervalArg(arg string) (interface{}, string) {
	arg = strings.TrimSpace(arg)
	upper := strings.ToUpper(arg)
	upper = strings.TrimPrefix(upper, "INTERVAL ")
	fields := strings.Fields(upper)
	if len(fields) != 2 {
		return 0, "day"
	}
	unit, ok := dateAddUnits[fields[1]]
	if !ok {
		unit = "day"
	}
	return numericLiteral(fields[0]), unit
}
