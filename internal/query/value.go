// Package query holds the tagged-sum-type data model shared by the parser,
// function mappers, and translators: Value, Column, Predicate, JoinOp,
// Subquery, Query and Request. Every variant is encoded as a Go struct with
// a Kind discriminant field rather than an interface hierarchy, so callers
// switch exhaustively on Kind and a missing case panics loudly instead of
// falling through silently.
package query

import "strconv"

// ValueKind discriminates the Value sum type.
type ValueKind int

const (
	ValNull ValueKind = iota
	ValBool
	ValInt
	ValFloat
	ValStr
	ValFieldRef
	ValExpr
)

// Value is a literal, field reference, or already-built Mongo expression
// document appearing in a predicate or projection. Quoted records whether
// the source token was quoted: a quoted token is always ValStr even if it
// looks numeric, per the data model's literal-coercion rule.
type Value struct {
	Kind    ValueKind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Field   string
	Expr    interface{} // bson.M / bson.D fragment, built lazily by a mapper
	Quoted  bool
}

func Null() Value                 { return Value{Kind: ValNull} }
func BoolVal(b bool) Value        { return Value{Kind: ValBool, Bool: b} }
func IntVal(i int64) Value        { return Value{Kind: ValInt, Int: i} }
func FloatVal(f float64) Value    { return Value{Kind: ValFloat, Float: f} }
func StrVal(s string) Value       { return Value{Kind: ValStr, Str: s, Quoted: true} }
func FieldRef(name string) Value  { return Value{Kind: ValFieldRef, Field: name} }
func ExprVal(e interface{}) Value { return Value{Kind: ValExpr, Expr: e} }

// Literal coerces an unquoted token's text into the right Value kind:
// NULL / TRUE / FALSE keywords, then integer, then float, falling back to
// a bare string. A quoted source token skips coercion entirely.
func Literal(text string, quoted bool) Value {
	if quoted {
		return StrVal(text)
	}
	switch text {
	case "NULL", "null":
		return Null()
	case "TRUE", "true":
		return BoolVal(true)
	case "FALSE", "false":
		return BoolVal(false)
	}
	if i, ok := parseInt(text); ok {
		return IntVal(i)
	}
	if f, ok := parseFloat(text); ok {
		return FloatVal(f)
	}
	return Value{Kind: ValStr, Str: text}
}

func parseInt(s string) (int64, bool) {
	var n int64
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		i = 1
	}
	if i >= len(s) {
		return 0, false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int64(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
