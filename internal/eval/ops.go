package eval

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// opConcat implements $concat: every argument is evaluated and stringified.
func opConcat(vs []interface{}) interface{} {
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(asString(Eval(v)))
	}
	return b.String()
}

func opTrim(a interface{}) interface{} {
	m, _ := asBSONM(a)
	return strings.TrimSpace(asString(Eval(m["input"])))
}

func opLTrim(a interface{}) interface{} {
	m, _ := asBSONM(a)
	return strings.TrimLeft(asString(Eval(m["input"])), " \t\n\r")
}

func opRTrim(a interface{}) interface{} {
	m, _ := asBSONM(a)
	return strings.TrimRight(asString(Eval(m["input"])), " \t\n\r")
}

func asBSONM(a interface{}) (map[string]interface{}, bool) {
	switch v := a.(type) {
	case map[string]interface{}:
		return v, true
	case bson.M:
		return map[string]interface{}(v), true
	default:
		return map[string]interface{}{}, false
	}
}

func opSubstrCP(vs []interface{}) interface{} {
	if len(vs) != 3 {
		return nil
	}
	s := []rune(asString(Eval(vs[0])))
	start := int(asInt(Eval(vs[1])))
	length := int(asInt(Eval(vs[2])))
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		return ""
	}
	end := start + length
	if end > len(s) || length < 0 {
		end = len(s)
	}
	return string(s[start:end])
}

func opReplaceAll(a interface{}) interface{} {
	m, _ := asBSONM(a)
	input := asString(Eval(m["input"]))
	find := asString(Eval(m["find"]))
	repl := asString(Eval(m["replacement"]))
	if find == "" {
		return input
	}
	return strings.ReplaceAll(input, find, repl)
}

func opReverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func opRepeat(vs []interface{}) interface{} {
	if len(vs) != 2 {
		return ""
	}
	s := asString(Eval(vs[0]))
	n := int(asInt(Eval(vs[1])))
	if n < 0 {
		n = 0
	}
	return strings.Repeat(s, n)
}

func opIndexOfCP(vs []interface{}) interface{} {
	if len(vs) != 2 {
		return int64(-1)
	}
	s := asString(Eval(vs[0]))
	sub := asString(Eval(vs[1]))
	idx := strings.Index(s, sub)
	if idx < 0 {
		return int64(-1)
	}
	return int64(len([]rune(s[:idx])))
}

func opCmp(vs []interface{}) interface{} {
	if len(vs) != 2 {
		return int64(0)
	}
	a, b := asString(Eval(vs[0])), asString(Eval(vs[1]))
	switch {
	case a < b:
		return int64(-1)
	case a > b:
		return int64(1)
	default:
		return int64(0)
	}
}

func opRound(vs []interface{}) interface{} {
	if len(vs) == 0 {
		return int64(0)
	}
	val := Eval(vs[0])
	d := 0
	if len(vs) == 2 {
		d = int(asInt(Eval(vs[1])))
	}
	f := asFloat(val)
	mult := 1.0
	for i := 0; i < d; i++ {
		mult *= 10
	}
	rounded := roundHalfAwayFromZero(f * mult) / mult
	if isIntType(val) && d <= 0 {
		return int64(rounded)
	}
	return rounded
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return -float64(int64(-x + 0.5))
}

func opAbs(a interface{}) interface{} {
	v := Eval(a)
	if isIntType(v) {
		n := asInt(v)
		if n < 0 {
			n = -n
		}
		return n
	}
	f := asFloat(v)
	if f < 0 {
		f = -f
	}
	return f
}

func opSign(a interface{}) interface{} {
	f := asFloat(Eval(a))
	switch {
	case f > 0:
		return int64(1)
	case f < 0:
		return int64(-1)
	default:
		return int64(0)
	}
}

func opMod(a, b interface{}) interface{} {
	if isIntType(a) && isIntType(b) {
		bi := asInt(b)
		if bi == 0 {
			return nil
		}
		return asInt(a) % bi
	}
	af, bf := asFloat(a), asFloat(b)
	if bf == 0 {
		return nil
	}
	return float64(int64(af) % int64(bf))
}

func opMax(vs []interface{}) interface{} {
	if len(vs) == 0 {
		return nil
	}
	best := Eval(vs[0])
	for _, v := range vs[1:] {
		cur := Eval(v)
		if asFloat(cur) > asFloat(best) {
			best = cur
		}
	}
	return best
}

func opMin(vs []interface{}) interface{} {
	if len(vs) == 0 {
		return nil
	}
	best := Eval(vs[0])
	for _, v := range vs[1:] {
		cur := Eval(v)
		if asFloat(cur) < asFloat(best) {
			best = cur
		}
	}
	return best
}

// opArith implements §4.E's type-coercion rule: integer inputs stay
// integer, but division always produces a float.
func opArith(vs []interface{}, op string) interface{} {
	if len(vs) == 0 {
		return nil
	}
	evaled := make([]interface{}, len(vs))
	allInt := true
	for i, v := range vs {
		evaled[i] = Eval(v)
		if !isIntType(evaled[i]) {
			allInt = false
		}
	}
	if op == "/" {
		allInt = false
	}
	if allInt {
		result := asInt(evaled[0])
		for _, v := range evaled[1:] {
			switch op {
			case "+":
				result += asInt(v)
			case "-":
				result -= asInt(v)
			case "*":
				result *= asInt(v)
			}
		}
		return result
	}
	result := asFloat(evaled[0])
	for _, v := range evaled[1:] {
		switch op {
		case "+":
			result += asFloat(v)
		case "-":
			result -= asFloat(v)
		case "*":
			result *= asFloat(v)
		case "/":
			d := asFloat(v)
			if d == 0 {
				return nil
			}
			result /= d
		}
	}
	return result
}

func opCond(a interface{}) interface{} {
	m, _ := asBSONM(a)
	ifVal := Eval(m["if"])
	if truthy(ifVal) {
		return Eval(m["then"])
	}
	return Eval(m["else"])
}

func opSwitch(a interface{}) interface{} {
	m, _ := asBSONM(a)
	branches := args(m["branches"])
	for _, br := range branches {
		bm, _ := asBSONM(br)
		if truthy(Eval(bm["case"])) {
			return Eval(bm["then"])
		}
	}
	return Eval(m["default"])
}

func opIfNull(vs []interface{}) interface{} {
	for _, v := range vs {
		if r := Eval(v); r != nil {
			return r
		}
	}
	return nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case nil:
		return false
	default:
		return true
	}
}

func compareOp(vs []interface{}, kind string) interface{} {
	if len(vs) != 2 {
		return false
	}
	a, b := Eval(vs[0]), Eval(vs[1])
	if _, aOK := a.(string); aOK {
		as, bs := asString(a), asString(b)
		switch kind {
		case "eq":
			return as == bs
		case "ne":
			return as != bs
		case "gt":
			return as > bs
		case "gte":
			return as >= bs
		case "lt":
			return as < bs
		case "lte":
			return as <= bs
		}
	}
	af, bf := asFloat(a), asFloat(b)
	switch kind {
	case "eq":
		return af == bf
	case "ne":
		return af != bf
	case "gt":
		return af > bf
	case "gte":
		return af >= bf
	case "lt":
		return af < bf
	case "lte":
		return af <= bf
	}
	return false
}

func opDateFromParts(a interface{}) interface{} {
	m, _ := asBSONM(a)
	year := int(asInt(Eval(m["year"])))
	month := int(asInt(Eval(m["month"])))
	day := int(asInt(Eval(m["day"])))
	hour := int(asInt(Eval(m["hour"])))
	minute := int(asInt(Eval(m["minute"])))
	second := int(asInt(Eval(m["second"])))
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

func opDateToString(a interface{}) interface{} {
	m, _ := asBSONM(a)
	format := asString(Eval(m["format"]))
	t := asTime(Eval(m["date"]))
	return formatStrftime(t, format)
}

func opDateFromString(a interface{}) interface{} {
	m, _ := asBSONM(a)
	s := asString(Eval(m["dateString"]))
	t, err := parseDateString(s)
	if err != nil {
		return nil
	}
	return t
}

func opDateAdd(a interface{}) interface{} {
	m, _ := asBSONM(a)
	t := asTime(Eval(m["startDate"]))
	unit := asString(Eval(m["unit"]))
	amount := asInt(Eval(m["amount"]))
	return addUnit(t, unit, amount)
}

func opDateSubtract(a interface{}) interface{} {
	m, _ := asBSONM(a)
	t := asTime(Eval(m["startDate"]))
	unit := asString(Eval(m["unit"]))
	amount := asInt(Eval(m["amount"]))
	return addUnit(t, unit, -amount)
}

func addUnit(t time.Time, unit string, amount int64) time.Time {
	switch unit {
	case "year":
		return t.AddDate(int(amount), 0, 0)
	case "quarter":
		return t.AddDate(0, int(amount)*3, 0)
	case "month":
		return t.AddDate(0, int(amount), 0)
	case "week":
		return t.AddDate(0, 0, int(amount)*7)
	case "day":
		return t.AddDate(0, 0, int(amount))
	case "hour":
		return t.Add(time.Duration(amount) * time.Hour)
	case "minute":
		return t.Add(time.Duration(amount) * time.Minute)
	case "second":
		return t.Add(time.Duration(amount) * time.Second)
	case "millisecond":
		return t.Add(time.Duration(amount) * time.Millisecond)
	default:
		return t
	}
}

func opDateDiff(a interface{}) interface{} {
	m, _ := asBSONM(a)
	start := asTime(Eval(m["startDate"]))
	end := asTime(Eval(m["endDate"]))
	unit := asString(Eval(m["unit"]))
	switch unit {
	case "year":
		return int64(end.Year() - start.Year())
	case "quarter":
		months := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
		return int64(months / 3)
	case "month":
		return int64((end.Year()-start.Year())*12 + int(end.Month()-start.Month()))
	default:
		return int64(end.Sub(start).Hours() / 24)
	}
}

const daysFromYear1ToEpoch = 719162

func opToDays(t time.Time) int64 {
	days := t.Unix() / 86400
	return days + daysFromYear1ToEpoch
}

func opFromDays(n int64) time.Time {
	days := n - daysFromYear1ToEpoch
	return time.Unix(days*86400, 0).UTC()
}

func opSecToTime(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return padInt(h) + ":" + padInt(m) + ":" + padInt(s)
}

func padInt(n int64) string {
	s := asString(n)
	if n < 10 {
		return "0" + s
	}
	return s
}

func opMakeDate(year, dayOfYear int64) time.Time {
	return time.Date(int(year), time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(dayOfYear)-1)
}

func opMakeTime(hour, minute, second int64) string {
	return padInt(hour) + ":" + padInt(minute) + ":" + padInt(second)
}

func opPeriodAdd(period, months int64) int64 {
	year, month := period/100, period%100
	month += months
	for month > 12 {
		month -= 12
		year++
	}
	for month < 1 {
		month += 12
		year--
	}
	return year*100 + month
}

func opPeriodDiff(p1, p2 int64) int64 {
	y1, m1 := p1/100, p1%100
	y2, m2 := p2/100, p2%100
	return (y1-y2)*12 + (m1 - m2)
}

func opAddSubTime(a, b interface{}, sign int) interface{} {
	t := asTime(a)
	var d time.Duration
	switch bt := b.(type) {
	case string:
		parts := strings.Split(bt, ":")
		if len(parts) == 3 {
			h := asInt(parts[0])
			m := asInt(parts[1])
			s := asInt(parts[2])
			d = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
		}
	}
	return t.Add(time.Duration(sign) * d)
}

// formatStrftime renders t using MongoDB's %-specifier vocabulary (the
// target of functions.TranslateDateFormat), not Go's reference-time layout.
func formatStrftime(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			b.WriteString(padYear(t.Year()))
		case 'm':
			b.WriteString(pad2(int(t.Month())))
		case 'd':
			b.WriteString(pad2(t.Day()))
		case 'H':
			b.WriteString(pad2(t.Hour()))
		case 'M':
			b.WriteString(pad2(t.Minute()))
		case 'S':
			b.WriteString(pad2(t.Second()))
		case 'B':
			b.WriteString(t.Month().String())
		case 'A':
			b.WriteString(t.Weekday().String())
		case 'I':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			b.WriteString(pad2(h))
		case 'p':
			if t.Hour() < 12 {
				b.WriteString("AM")
			} else {
				b.WriteString("PM")
			}
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func pad2(n int) string {
	if n < 10 {
		return "0" + asString(int64(n))
	}
	return asString(int64(n))
}

func padYear(y int) string {
	s := asString(int64(y))
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
