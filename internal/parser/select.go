package parser

import (
	"strings"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/token"
)

func (p *parser) parseSelect() (*query.Query, error) {
	start := p.peek().Pos
	p.advance() // SELECT

	q := &query.Query{Kind: query.StmtSelect}

	if p.peek().Text == "DISTINCT" {
		q.Distinct = true
		p.advance()
	}

	cols, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	q.Columns = cols

	if p.peek().Text == "FROM" {
		p.advance()
		if p.peek().Text == "(" && p.peekAt(1).Text == "SELECT" {
			sub, alias, err := p.parseDerivedTable()
			if err != nil {
				return nil, err
			}
			q.FromSubquery = sub
			q.FromAlias = alias
			q.Subqueries = append(q.Subqueries, *sub)
		} else {
			table, alias, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			q.FromTable, q.FromAlias = table, alias

			joins, err := p.parseJoins()
			if err != nil {
				return nil, err
			}
			q.Joins = joins
		}
	}

	if p.peek().Text == "WHERE" {
		p.advance()
		pred, subs, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		q.Where = pred
		q.Subqueries = append(q.Subqueries, subs...)
	}

	if p.peek().Text == "GROUP BY" {
		p.advance()
		fields, err := p.parseFieldList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = fields
	}

	if p.peek().Text == "HAVING" {
		p.advance()
		raw := p.captureRawUntilClause()
		q.HavingRaw = raw
	}

	if p.peek().Text == "ORDER BY" {
		p.advance()
		obs, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = obs
	}

	if p.peek().Text == "LIMIT" {
		p.advance()
		lim, err := p.parseLimit()
		if err != nil {
			return nil, err
		}
		q.Limit = lim
	}

	if !p.atEnd() && p.peek().Kind != token.Punctuation {
		return nil, p.errorf("unexpected token %q", p.peek().Text)
	}

	q.OriginalText = strings.TrimSpace(p.src[start:])
	return q, nil
}

// parseColumnList parses the SELECT column list, splitting on top-level
// commas (tracked via paren depth), recognising bare/qualified names,
// aliases, function calls (incl. CASE and window specs), and REGEXP/RLIKE
// infix expressions, per spec §4.P.
func (p *parser) parseColumnList() ([]query.Column, error) {
	var cols []query.Column
	for {
		col, err := p.parseOneColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.peek().Kind == token.Punctuation && p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

func (p *parser) parseOneColumn() (query.Column, error) {
	start := p.peek().Pos

	if p.peek().Text == "*" {
		p.advance()
		return query.Column{Kind: query.ColStar}, nil
	}

	if p.peek().Text == "CASE" {
		return p.parseCaseColumn()
	}

	// name, name.name, or name(...)
	if p.peek().Kind == token.Name {
		nameTok := p.advance()

		if p.peek().Kind == token.Punctuation && p.peek().Text == "(" {
			return p.parseFunctionColumn(nameTok, start)
		}

		table := ""
		name := nameTok.Text
		if p.peek().Kind == token.Punctuation && p.peek().Text == "." {
			p.advance()
			table = name
			name = p.advance().Text
		}

		// REGEXP/RLIKE infix
		if p.peek().Text == "REGEXP" || p.peek().Text == "RLIKE" || p.peek().Text == "NOT REGEXP" {
			op := p.advance().Text
			right := p.advance().Text
			alias := p.parseOptionalAlias()
			left := name
			if table != "" {
				left = table + "." + name
			}
			return query.Column{Kind: query.ColRegexpInfix, Left: left, Operator: op, Right: right, Alias: alias}, nil
		}

		// raw arithmetic expression: name (op name|lit)+
		if isArithOp(p.peek()) {
			raw := p.consumeRawExpr(start)
			alias := p.parseOptionalAlias()
			return query.Column{Kind: query.ColRaw, Raw: strings.TrimSpace(raw), Alias: alias}, nil
		}

		alias := p.parseOptionalAlias()
		return query.Column{Kind: query.ColPlain, Name: name, TableQualifier: table, Alias: alias}, nil
	}

	// bare literal/expression column, e.g. "SELECT 1+1"
	raw := p.consumeRawExpr(start)
	alias := p.parseOptionalAlias()
	return query.Column{Kind: query.ColRaw, Raw: strings.TrimSpace(raw), Alias: alias}, nil
}

func isArithOp(t token.Token) bool {
	return t.Kind == token.Operator && (t.Text == "+" || t.Text == "-" || t.Text == "*" || t.Text == "/" || t.Text == "%")
}

// consumeRawExpr advances past a bare expression (numbers/operators/names)
// up to the next comma, alias, or clause keyword, and returns the verbatim
// source text from start to the cursor.
func (p *parser) consumeRawExpr(start int) string {
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			break
		}
		if t.Kind == token.Punctuation && (t.Text == "," || t.Text == ")") {
			break
		}
		if t.Text == "AS" || isClauseKeyword(t.Text) {
			break
		}
		p.advance()
	}
	end := p.peek().Pos
	if p.pos > 0 {
		end = p.tokens[p.pos-1].End
	}
	return p.src[start:end]
}

func (p *parser) parseOptionalAlias() string {
	if p.peek().Text == "AS" {
		p.advance()
		return p.advance().Text
	}
	if p.peek().Kind == token.Name {
		return p.advance().Text
	}
	return ""
}

// parseFunctionColumn parses NAME( args ) [OVER (...)] [AS alias], keeping
// the argument text verbatim so nested parens/quoted commas are preserved
// for the function-mapper registry to re-split itself.
func (p *parser) parseFunctionColumn(nameTok token.Token, start int) (query.Column, error) {
	openParen := p.advance() // "("
	argsStart := openParen.End
	depth := 1
	for depth > 0 {
		t := p.peek()
		if t.Kind == token.EOF {
			return query.Column{}, p.errorf("unbalanced parentheses in function call")
		}
		if t.Kind == token.Punctuation && t.Text == "(" {
			depth++
		}
		if t.Kind == token.Punctuation && t.Text == ")" {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}
	argsEnd := p.peek().Pos
	closeParen := p.advance() // ")"
	_ = closeParen

	originalEnd := p.tokens[p.pos-1].End
	name := strings.ToUpper(nameTok.Text)
	argsText := p.src[argsStart:argsEnd]

	col := query.Column{
		Kind:         query.ColFunction,
		FuncName:     name,
		ArgsText:     argsText,
		IsAggregate:  isAggregateFuncName(name),
		OriginalText: strings.TrimSpace(p.src[start:originalEnd]),
	}

	if p.peek().Text == "OVER" {
		p.advance()
		col.IsWindow = true
		spec, err := p.parseWindowSpec()
		if err != nil {
			return query.Column{}, err
		}
		col.WindowSpec = spec
		col.OriginalText = strings.TrimSpace(p.src[start:p.tokens[p.pos-1].End])
	}

	col.Alias = p.parseOptionalAlias()
	return col, nil
}

// isAggregateFuncName is a local, syntax-only check used while the parser
// builds a Column; the function registry (internal/functions) remains the
// authoritative source consulted by the translator.
func isAggregateFuncName(name string) bool {
	switch name {
	case "COUNT", "SUM", "AVG", "MIN", "MAX", "FIRST", "LAST",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP", "VAR_POP", "VAR_SAMP",
		"GROUP_CONCAT", "BIT_AND", "BIT_OR", "BIT_XOR":
		return true
	}
	return false
}

func (p *parser) parseWindowSpec() (*query.WindowSpec, error) {
	if p.peek().Text != "(" {
		return nil, p.errorf("expected ( after OVER")
	}
	open := p.advance()
	start := open.End
	depth := 1
	for depth > 0 {
		t := p.peek()
		if t.Kind == token.EOF {
			return nil, p.errorf("unbalanced parentheses in OVER clause")
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

	raw := p.src[start:end]
	spec := &query.WindowSpec{Raw: raw}
	if idx := strings.Index(strings.ToUpper(raw), "ORDER BY"); idx >= 0 {
		orderText := raw[idx+len("ORDER BY"):]
		spec.OrderBy = parseOrderByText(orderText)
	}
	return spec, nil
}

func parseOrderByText(text string) []query.OrderField {
	var out []query.OrderField
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := false
		fields := strings.Fields(part)
		name := fields[0]
		if len(fields) > 1 {
			switch strings.ToUpper(fields[1]) {
			case "DESC":
				desc = true
			}
		}
		out = append(out, query.OrderField{Field: name, Desc: desc})
	}
	return out
}

func (p *parser) parseCaseColumn() (query.Column, error) {
	start := p.peek().Pos
	p.advance() // CASE
	col := query.Column{Kind: query.ColCase}
	for p.peek().Text == "WHEN" {
		p.advance()
		cond := p.captureUntil("THEN")
		if p.peek().Text != "THEN" {
			return query.Column{}, p.errorf("expected THEN in CASE")
		}
		p.advance()
		then := p.captureUntil("WHEN", "ELSE", "END")
		col.WhenClauses = append(col.WhenClauses, query.WhenClause{Cond: strings.TrimSpace(cond), Then: strings.TrimSpace(then)})
	}
	if p.peek().Text == "ELSE" {
		p.advance()
		col.Else = strings.TrimSpace(p.captureUntil("END"))
	}
	if p.peek().Text != "END" {
		return query.Column{}, p.errorf("expected END in CASE")
	}
	p.advance()
	col.Raw = strings.TrimSpace(p.src[start:p.tokens[p.pos-1].End])
	col.Alias = p.parseOptionalAlias()
	return col, nil
}

// captureUntil advances the cursor up to (not including) the next token
// whose text matches one of stop, returning the verbatim source text
// spanned.
func (p *parser) captureUntil(stop ...string) string {
	start := p.peek().Pos
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			break
		}
		for _, s := range stop {
			if t.Text == s {
				end := t.Pos
				return p.src[start:end]
			}
		}
		p.advance()
	}
	end := p.peek().Pos
	if p.pos > 0 {
		end = p.tokens[p.pos-1].End
	}
	return p.src[start:end]
}

// captureRawUntilClause collects a raw token sequence up to the next
// top-level clause keyword, used for HAVING (spec §4.P: "collected as a
// raw token sequence up to next clause").
func (p *parser) captureRawUntilClause() string {
	start := p.peek().Pos
	for {
		t := p.peek()
		if t.Kind == token.EOF {
			break
		}
		if isClauseKeyword(t.Text) || t.Text == "ORDER BY" || t.Text == "LIMIT" {
			break
		}
		p.advance()
	}
	end := p.peek().Pos
	if p.pos > 0 && end < p.tokens[p.pos-1].End {
		end = p.tokens[p.pos-1].End
	}
	return strings.TrimSpace(p.src[start:end])
}
