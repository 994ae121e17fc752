package functions

import (
	"strings"

	"github.com/mongosql-go/mongosql/internal/query"
)

// ConditionExpr re-parses a simple condition string recognising
// =, !=, <>, <, <=, >, >=, IS NULL, IS NOT NULL, splitting around the
// operator — spec §4.F's "local expression parser" used inside IF/CASE/
// COALESCE/NULLIF argument text.
func ConditionExpr(cond string) interface{} {
	cond = strings.TrimSpace(cond)
	upper := strings.ToUpper(cond)
	if strings.HasSuffix(upper, "IS NOT NULL") {
		field := strings.TrimSpace(cond[:len(cond)-len("IS NOT NULL")])
		return M{"$ne": A{FieldExpr(field), nil}}
	}
	if strings.HasSuffix(upper, "IS NULL") {
		field := strings.TrimSpace(cond[:len(cond)-len("IS NULL")])
		return M{"$eq": A{FieldExpr(field), nil}}
	}
	ops := []struct {
		text string
		op   string
	}{
		{"!=", "$ne"}, {"<>", "$ne"}, {"<=", "$lte"}, {">=", "$gte"},
		{"=", "$eq"}, {"<", "$lt"}, {">", "$gt"},
	}
	for _, o := range ops {
		if idx := strings.Index(cond, o.text); idx >= 0 {
			left := strings.TrimSpace(cond[:idx])
			right := strings.TrimSpace(cond[idx+len(o.text):])
			return M{o.op: A{FieldExpr(left), FieldExpr(right)}}
		}
	}
	return FieldExpr(cond)
}

func registerConditional() {
	register(FamilyConditional, []string{"IF"}, func(args []string) (interface{}, error) {
		if len(args) != 3 {
			return nil, &UnknownFunctionError{Name: "IF"}
		}
		return M{"$cond": M{
			"if":   ConditionExpr(args[0]),
			"then": FieldExpr(args[1]),
			"else": FieldExpr(args[2]),
		}}, nil
	})

	register(FamilyConditional, []string{"COALESCE"}, func(args []string) (interface{}, error) {
		if len(args) == 0 {
			return nil, &UnknownFunctionError{Name: "COALESCE"}
		}
		expr := FieldExpr(args[len(args)-1])
		for i := len(args) - 2; i >= 0; i-- {
			expr = M{"$ifNull": A{FieldExpr(args[i]), expr}}
		}
		return expr, nil
	})

	register(FamilyConditional, []string{"NULLIF"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "NULLIF"}
		}
		a, b := FieldExpr(args[0]), FieldExpr(args[1])
		return M{"$cond": M{"if": M{"$eq": A{a, b}}, "then": nil, "else": a}}, nil
	})
}

// BuildCase translates a CASE expression's WHEN/THEN[/ELSE] arms (captured
// verbatim as raw text by the parser) into a $switch document.
func BuildCase(whens []query.WhenClause, elseVal string) interface{} {
	branches := make(A, 0, len(whens))
	for _, w := range whens {
		branches = append(branches, M{"case": ConditionExpr(w.Cond), "then": FieldExpr(strings.TrimSpace(w.Then))})
	}
	sw := M{"branches": branches}
	if elseVal != "" {
		sw["default"] = FieldExpr(strings.TrimSpace(elseVal))
	} else {
		sw["default"] = nil
	}
	return M{"$switch": sw}
}
