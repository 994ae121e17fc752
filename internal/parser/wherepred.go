package parser

import (
	"strings"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/token"
)

// parseWhereExpr implements spec §4.P's simplified WHERE grammar: split on
// top-level AND/OR into a flat predicate list plus the operator sequence
// between them. If every operator is the same, a single Compound of that
// kind is produced; mixed AND/OR collapses to Compound{AND} without
// honouring precedence — a known, intentionally preserved ambiguity
// (spec §9), not a bug to fix here.
func (p *parser) parseWhereExpr() (*query.Predicate, []query.Subquery, error) {
	var leaves []query.Predicate
	var ops []query.LogicalOp
	var subs []query.Subquery

	for {
		leaf, leafSubs, err := p.parsePredicateUnit()
		if err != nil {
			return nil, nil, err
		}
		leaves = append(leaves, leaf)
		subs = append(subs, leafSubs...)

		switch p.peek().Text {
		case "AND":
			ops = append(ops, query.LogicalAnd)
			p.advance()
			continue
		case "OR":
			ops = append(ops, query.LogicalOr)
			p.advance()
			continue
		}
		break
	}

	if len(leaves) == 1 {
		return &leaves[0], subs, nil
	}

	allSame := true
	for _, o := range ops {
		if o != ops[0] {
			allSame = false
			break
		}
	}
	op := query.LogicalAnd
	if allSame {
		op = ops[0]
	}
	pred := query.Compound(op, leaves...)
	return &pred, subs, nil
}

// parsePredicateUnit parses one leaf: a parenthesised nested predicate, or
// a simple comparison/LIKE/REGEXP/IN/BETWEEN/IS NULL/EXISTS condition.
func (p *parser) parsePredicateUnit() (query.Predicate, []query.Subquery, error) {
	if p.peek().Text == "EXISTS" {
		return p.parseExistsPredicate(false)
	}
	if p.peek().Text == "NOT" && p.peekAt(1).Text == "EXISTS" {
		p.advance() // NOT
		return p.parseExistsPredicate(true)
	}

	if p.peek().Kind == token.Punctuation && p.peek().Text == "(" && p.peekAt(1).Text != "SELECT" {
		p.advance() // "("
		inner, subs, err := p.parseWhereExpr()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		if p.peek().Text != ")" {
			return query.Predicate{}, nil, p.errorf("expected ) to close grouped predicate")
		}
		p.advance()
		return *inner, subs, nil
	}

	return p.parseSimplePredicate()
}

func (p *parser) parseExistsPredicate(negated bool) (query.Predicate, []query.Subquery, error) {
	p.advance() // EXISTS
	if p.peek().Text != "(" {
		return query.Predicate{}, nil, p.errorf("expected ( after EXISTS")
	}
	innerSQL, err := p.captureParenSQL()
	if err != nil {
		return query.Predicate{}, nil, err
	}
	op := query.OpExists
	comparisonOp := query.OpExists
	if negated {
		op = query.OpNotExists
		comparisonOp = query.OpNotExists
	}
	sub := query.Subquery{Kind: query.SubExists, InnerSQL: innerSQL, ComparisonOp: comparisonOp}
	pred := query.Predicate{Kind: query.PredSimple, Op: op, Subquery: &sub}
	return pred, []query.Subquery{sub}, nil
}

// captureParenSQL consumes a balanced ( ... ) and returns its inner text,
// used for EXISTS/IN/scalar subquery bodies.
func (p *parser) captureParenSQL() (string, error) {
	p.advance() // "("
	start := p.peek().Pos
	depth := 1
	for depth > 0 {
		t := p.peek()
		if t.Kind == token.EOF {
			return "", p.errorf("unbalanced parentheses in subquery")
		}
		if t.Text == "(" {
			depth++
		}
		if t.Text == ")" {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}
	end := p.peek().Pos
	p.advance() // ")"
	return strings.TrimSpace(p.src[start:end]), nil
}

var comparisonOpText = map[string]query.PredOp{
	"=": query.OpEq, "!=": query.OpNe, "<>": query.OpNe,
	"<": query.OpLt, "<=": query.OpLte, ">": query.OpGt, ">=": query.OpGte,
}

func (p *parser) parseSimplePredicate() (query.Predicate, []query.Subquery, error) {
	// ROW subquery: ( f1 , f2 ) = ( SELECT ... )
	if p.peek().Text == "(" && p.peekAt(1).Kind == token.Name {
		if row, subs, ok, err := p.tryParseRowSubquery(); ok || err != nil {
			return row, subs, err
		}
	}

	field, err := p.parseQualifiedName()
	if err != nil {
		return query.Predicate{}, nil, err
	}
	fieldName := field.col
	if field.table != "" {
		fieldName = field.table + "." + field.col
	}

	switch p.peek().Text {
	case "IS NULL":
		p.advance()
		return query.Simple(fieldName, query.OpIsNull, query.Null()), nil, nil
	case "IS":
		// The lexer only folds two-word combinations, so "IS NOT NULL"
		// arrives as separate IS / NOT / NULL tokens.
		p.advance()
		if p.peek().Text != "NOT" {
			return query.Predicate{}, nil, p.errorf("expected NOT or NULL after IS")
		}
		p.advance()
		if p.peek().Text != "NULL" {
			return query.Predicate{}, nil, p.errorf("expected NULL after IS NOT")
		}
		p.advance()
		return query.Simple(fieldName, query.OpIsNotNull, query.Null()), nil, nil
	case "BETWEEN", "NOT BETWEEN":
		neg := p.peek().Text == "NOT BETWEEN"
		p.advance()
		lo, err := p.parseValue()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		if p.peek().Text != "AND" {
			return query.Predicate{}, nil, p.errorf("expected AND in BETWEEN")
		}
		p.advance()
		hi, err := p.parseValue()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		op := query.OpBetween
		if neg {
			op = query.OpNotBetween
		}
		return query.Predicate{Kind: query.PredSimple, Field: fieldName, Op: op, Value: lo, Upper: hi}, nil, nil
	case "IN", "NOT IN":
		neg := p.peek().Text == "NOT IN"
		p.advance()
		if p.peek().Text != "(" {
			return query.Predicate{}, nil, p.errorf("expected ( after IN")
		}
		if p.peekAt(1).Text == "SELECT" {
			innerSQL, err := p.captureParenSQL()
			if err != nil {
				return query.Predicate{}, nil, err
			}
			op := query.OpIn
			if neg {
				op = query.OpNotIn
			}
			sub := query.Subquery{Kind: query.SubInList, OuterField: fieldName, InnerSQL: innerSQL, ComparisonOp: op}
			pred := query.Predicate{Kind: query.PredSimple, Field: fieldName, Op: op, Subquery: &sub}
			return pred, []query.Subquery{sub}, nil
		}
		list, err := p.parseValueList()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		op := query.OpIn
		if neg {
			op = query.OpNotIn
		}
		return query.Predicate{Kind: query.PredSimple, Field: fieldName, Op: op, List: list}, nil, nil
	case "LIKE", "NOT LIKE":
		neg := p.peek().Text == "NOT LIKE"
		p.advance()
		v, err := p.parseValue()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		op := query.OpLike
		if neg {
			op = query.OpNotLike
		}
		return query.Simple(fieldName, op, v), nil, nil
	case "REGEXP", "NOT REGEXP", "RLIKE":
		opText := p.advance().Text
		v, err := p.parseValue()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		var op query.PredOp
		switch opText {
		case "REGEXP":
			op = query.OpRegexp
		case "RLIKE":
			op = query.OpRlike
		default:
			op = query.OpNotRegexp
		}
		return query.Simple(fieldName, op, v), nil, nil
	}

	opTok := p.peek()
	cmpOp, ok := comparisonOpText[opTok.Text]
	if !ok {
		return query.Predicate{}, nil, p.errorf("expected comparison operator, got %q", opTok.Text)
	}
	p.advance()

	if p.peek().Text == "(" && p.peekAt(1).Text == "SELECT" {
		innerSQL, err := p.captureParenSQL()
		if err != nil {
			return query.Predicate{}, nil, err
		}
		sub := query.Subquery{Kind: query.SubScalar, OuterField: fieldName, InnerSQL: innerSQL, ComparisonOp: cmpOp}
		pred := query.Predicate{Kind: query.PredSimple, Field: fieldName, Op: cmpOp, Subquery: &sub}
		return pred, []query.Subquery{sub}, nil
	}

	v, err := p.parseValue()
	if err != nil {
		return query.Predicate{}, nil, err
	}
	return query.Simple(fieldName, cmpOp, v), nil, nil
}

// tryParseRowSubquery speculatively parses "( f1 , f2 , ... ) = ( SELECT
// ... )"; ok is false (with the cursor unmoved) if the lookahead does not
// match this shape, so the caller falls back to a normal leaf parse.
func (p *parser) tryParseRowSubquery() (query.Predicate, []query.Subquery, bool, error) {
	save := p.pos
	p.advance() // "("
	var fields []string
	for {
		if p.peek().Kind != token.Name {
			p.pos = save
			return query.Predicate{}, nil, false, nil
		}
		fields = append(fields, p.advance().Text)
		if p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Text != ")" {
		p.pos = save
		return query.Predicate{}, nil, false, nil
	}
	p.advance()
	if p.peek().Text != "=" || len(fields) < 2 {
		p.pos = save
		return query.Predicate{}, nil, false, nil
	}
	p.advance()
	if p.peek().Text != "(" || p.peekAt(1).Text != "SELECT" {
		p.pos = save
		return query.Predicate{}, nil, false, nil
	}
	innerSQL, err := p.captureParenSQL()
	if err != nil {
		return query.Predicate{}, nil, true, err
	}
	sub := query.Subquery{Kind: query.SubRow, OuterField: strings.Join(fields, ","), InnerSQL: innerSQL}
	pred := query.Predicate{Kind: query.PredSimple, Field: sub.OuterField, Op: query.OpEq, Subquery: &sub}
	return pred, []query.Subquery{sub}, true, nil
}

func (p *parser) parseValue() (query.Value, error) {
	t := p.advance()
	switch t.Kind {
	case token.String:
		return query.StrVal(t.Text), nil
	case token.Number:
		return query.Literal(t.Text, false), nil
	case token.Name:
		if t.Text == "NULL" {
			return query.Null(), nil
		}
		return query.FieldRef(t.Text), nil
	default:
		return query.Literal(t.Text, false), nil
	}
}

func (p *parser) parseValueList() ([]query.Value, error) {
	p.advance() // "("
	var vals []query.Value
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Text != ")" {
		return nil, p.errorf("expected ) to close value list")
	}
	p.advance()
	return vals, nil
}
