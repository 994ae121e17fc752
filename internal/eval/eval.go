// Package eval implements spec §4.E's local expression evaluator: for a
// FROM-less query (SELECT NOW(), SELECT 1+1, SELECT DATE_FORMAT(...)) the
// translator builds a MongoDB aggregation-expression projection but never
// contacts the server, so this package interprets that same expression
// tree in-process to produce the single result row.
//
// A handler that cannot evaluate its operand degrades that column to nil
// rather than failing the whole query, per spec §7's "the expression
// evaluator... degrades individual cells to null" rule.
package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Row evaluates every projection expression in proj (name -> Mongo
// aggregation expression, as built by the translator's columnExpr) and
// returns the resulting values keyed by the same names, preserving
// insertion order via order.
func Row(proj map[string]interface{}, order []string) map[string]interface{} {
	out := make(map[string]interface{}, len(proj))
	for _, name := range order {
		out[name] = safeEval(proj[name])
	}
	return out
}

// safeEval recovers from a panicking handler (e.g. a type assertion on a
// malformed operand) and degrades to nil, since one bad cell must not
// fail the whole row.
func safeEval(expr interface{}) (result interface{}) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	return Eval(expr)
}

// now is the evaluator's notion of the server clock, substituted for the
// literal "$$NOW" marker the function mappers emit for NOW()/CURDATE()/etc.
var now = time.Now

// Eval interprets one MongoDB aggregation expression fragment. Literal
// Go values (string, int64, float64, bool, nil) pass through unchanged;
// bson.M/bson.A documents are dispatched on their single operator key.
func Eval(expr interface{}) interface{} {
	switch v := expr.(type) {
	case nil:
		return nil
	case string:
		if v == "$$NOW" {
			return now()
		}
		if strings.HasPrefix(v, "$") {
			// A bare field reference with no document to draw from: a
			// FROM-less query has no source row, so this is unresolved.
			return nil
		}
		return v
	case bson.M:
		return evalDoc(v)
	case map[string]interface{}:
		return evalDoc(v)
	case bson.A:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = Eval(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = Eval(e)
		}
		return out
	default:
		return v
	}
}

func evalDoc(m map[string]interface{}) interface{} {
	if lit, ok := m["$literal"]; ok {
		return lit
	}
	for op, arg := range m {
		if h, ok := operators[op]; ok {
			return h(arg)
		}
	}
	// Unknown operator: diagnostic, not fatal, per spec §4.E.
	for op := range m {
		return op
	}
	return nil
}

type opHandler func(arg interface{}) interface{}

var operators map[string]opHandler

func init() {
	operators = map[string]opHandler{
		"$concat":      func(a interface{}) interface{} { return opConcat(args(a)) },
		"$toUpper":     func(a interface{}) interface{} { return strings.ToUpper(asString(Eval(a))) },
		"$toLower":     func(a interface{}) interface{} { return strings.ToLower(asString(Eval(a))) },
		"$trim":        opTrim,
		"$ltrim":       opLTrim,
		"$rtrim":       opRTrim,
		"$strLenCP":    func(a interface{}) interface{} { return int64(len([]rune(asString(Eval(a))))) },
		"$substrCP":    func(a interface{}) interface{} { return opSubstrCP(args(a)) },
		"$replaceAll":  opReplaceAll,
		"$reverse":     func(a interface{}) interface{} { return opReverse(asString(Eval(a))) },
		"$repeat":      func(a interface{}) interface{} { return opRepeat(args(a)) },
		"$space":       func(a interface{}) interface{} { return strings.Repeat(" ", int(asInt(Eval(a)))) },
		"$indexOfCP":   func(a interface{}) interface{} { return opIndexOfCP(args(a)) },
		"$cmp":         func(a interface{}) interface{} { return opCmp(args(a)) },

		"$round": func(a interface{}) interface{} { return opRound(args(a)) },
		"$ceil":  func(a interface{}) interface{} { return math.Ceil(asFloat(Eval(a))) },
		"$floor": func(a interface{}) interface{} { return math.Floor(asFloat(Eval(a))) },
		"$sqrt":  func(a interface{}) interface{} { return math.Sqrt(asFloat(Eval(a))) },
		"$abs":   opAbs,
		"$sin":   func(a interface{}) interface{} { return math.Sin(asFloat(Eval(a))) },
		"$cos":   func(a interface{}) interface{} { return math.Cos(asFloat(Eval(a))) },
		"$tan":   func(a interface{}) interface{} { return math.Tan(asFloat(Eval(a))) },
		"$ln":    func(a interface{}) interface{} { return math.Log(asFloat(Eval(a))) },
		"$exp":   func(a interface{}) interface{} { return math.Exp(asFloat(Eval(a))) },
		"$sign":  opSign,
		"$pow":   func(a interface{}) interface{} { vs := args(a); return math.Pow(asFloat(Eval(vs[0])), asFloat(Eval(vs[1]))) },
		"$mod":   func(a interface{}) interface{} { vs := args(a); return opMod(Eval(vs[0]), Eval(vs[1])) },
		"$max":   func(a interface{}) interface{} { return opMax(args(a)) },
		"$min":   func(a interface{}) interface{} { return opMin(args(a)) },
		"$degreesToRadians": func(a interface{}) interface{} { return asFloat(Eval(a)) * math.Pi / 180 },
		"$radiansToDegrees": func(a interface{}) interface{} { return asFloat(Eval(a)) * 180 / math.Pi },

		"$add":      func(a interface{}) interface{} { return opArith(args(a), "+") },
		"$subtract": func(a interface{}) interface{} { return opArith(args(a), "-") },
		"$multiply": func(a interface{}) interface{} { return opArith(args(a), "*") },
		"$divide":   func(a interface{}) interface{} { return opArith(args(a), "/") },
		"$trunc":    func(a interface{}) interface{} { return math.Trunc(asFloat(Eval(a))) },

		"$toInt":    func(a interface{}) interface{} { return asInt(Eval(a)) },
		"$toLong":   func(a interface{}) interface{} { return asInt(Eval(a)) },
		"$toString": func(a interface{}) interface{} { return asString(Eval(a)) },
		"$toDouble": func(a interface{}) interface{} { return asFloat(Eval(a)) },

		"$cond":       opCond,
		"$switch":     opSwitch,
		"$ifNull":     func(a interface{}) interface{} { vs := args(a); return opIfNull(vs) },
		"$eq":         func(a interface{}) interface{} { vs := args(a); return compareOp(vs, "eq") },
		"$ne":         func(a interface{}) interface{} { vs := args(a); return compareOp(vs, "ne") },
		"$gt":         func(a interface{}) interface{} { vs := args(a); return compareOp(vs, "gt") },
		"$gte":        func(a interface{}) interface{} { vs := args(a); return compareOp(vs, "gte") },
		"$lt":         func(a interface{}) interface{} { vs := args(a); return compareOp(vs, "lt") },
		"$lte":        func(a interface{}) interface{} { vs := args(a); return compareOp(vs, "lte") },

		"$dateFromParts":  opDateFromParts,
		"$dateToString":   opDateToString,
		"$dateFromString": opDateFromString,
		"$dateAdd":        opDateAdd,
		"$dateSubtract":   opDateSubtract,
		"$dateDiff":       opDateDiff,
		"$year":           func(a interface{}) interface{} { return int64(asTime(Eval(a)).Year()) },
		"$month":          func(a interface{}) interface{} { return int64(asTime(Eval(a)).Month()) },
		"$dayOfMonth":     func(a interface{}) interface{} { return int64(asTime(Eval(a)).Day()) },
		"$hour":           func(a interface{}) interface{} { return int64(asTime(Eval(a)).Hour()) },
		"$minute":         func(a interface{}) interface{} { return int64(asTime(Eval(a)).Minute()) },
		"$second":         func(a interface{}) interface{} { return int64(asTime(Eval(a)).Second()) },
		"$dayOfWeek":      func(a interface{}) interface{} { return int64(asTime(Eval(a)).Weekday()) + 1 },
		"$dayOfYear":      func(a interface{}) interface{} { return int64(asTime(Eval(a)).YearDay()) },
		"$week":           func(a interface{}) interface{} { _, w := asTime(Eval(a)).ISOWeek(); return int64(w) },

		"$toDays":     func(a interface{}) interface{} { return opToDays(asTime(Eval(a))) },
		"$fromDays":   func(a interface{}) interface{} { return opFromDays(asInt(Eval(a))) },
		"$timeToSec":  func(a interface{}) interface{} { t := asTime(Eval(a)); return int64(t.Hour()*3600 + t.Minute()*60 + t.Second()) },
		"$secToTime":  func(a interface{}) interface{} { return opSecToTime(asInt(Eval(a))) },
		"$makeDate":   func(a interface{}) interface{} { vs := args(a); return opMakeDate(asInt(Eval(vs[0])), asInt(Eval(vs[1]))) },
		"$makeTime":   func(a interface{}) interface{} { vs := args(a); return opMakeTime(asInt(Eval(vs[0])), asInt(Eval(vs[1])), asInt(Eval(vs[2]))) },
		"$periodAdd":  func(a interface{}) interface{} { vs := args(a); return opPeriodAdd(asInt(Eval(vs[0])), asInt(Eval(vs[1]))) },
		"$periodDiff": func(a interface{}) interface{} { vs := args(a); return opPeriodDiff(asInt(Eval(vs[0])), asInt(Eval(vs[1]))) },
		"$addTime":    func(a interface{}) interface{} { vs := args(a); return opAddSubTime(Eval(vs[0]), Eval(vs[1]), 1) },
		"$subTime":    func(a interface{}) interface{} { vs := args(a); return opAddSubTime(Eval(vs[0]), Eval(vs[1]), -1) },
	}
}

func args(a interface{}) []interface{} {
	switch v := a.(type) {
	case bson.A:
		return []interface{}(v)
	case []interface{}:
		return v
	default:
		return []interface{}{a}
	}
}

func asString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func asFloat(v interface{}) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	default:
		return 0
	}
}

func asInt(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}

func isIntType(v interface{}) bool {
	switch v.(type) {
	case int64, int:
		return true
	}
	return false
}

func asTime(v interface{}) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		t, err := parseDateString(x)
		if err == nil {
			return t
		}
	}
	return now()
}

func parseDateString(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		time.RFC3339,
	}
	var lastErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
