package parser

import (
	"strings"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/token"
)

// parseTableRef parses a table name and optional alias, honouring an
// optional AS keyword or trailing bareword alias.
func (p *parser) parseTableRef() (table, alias string, err error) {
	if p.peek().Kind != token.Name {
		return "", "", p.errorf("expected table name, got %q", p.peek().Text)
	}
	table = p.advance().Text
	if p.peek().Text == "AS" {
		p.advance()
		alias = p.advance().Text
		return table, alias, nil
	}
	if p.peek().Kind == token.Name {
		alias = p.advance().Text
	}
	return table, alias, nil
}

// parseDerivedTable parses "( SELECT ... ) [AS] alias", spec §4.S's
// DERIVED subquery appearing as the query's own data source rather than a
// WHERE-embedded leaf. The caller has already confirmed the lookahead is
// "(" followed by "SELECT".
func (p *parser) parseDerivedTable() (*query.Subquery, string, error) {
	innerSQL, err := p.captureParenSQL()
	if err != nil {
		return nil, "", err
	}
	alias := ""
	if p.peek().Text == "AS" {
		p.advance()
		alias = p.advance().Text
	} else if p.peek().Kind == token.Name {
		alias = p.advance().Text
	}
	if alias == "" {
		return nil, "", p.errorf("derived table in FROM requires an alias")
	}
	return &query.Subquery{Kind: query.SubDerived, InnerSQL: innerSQL, Alias: alias}, alias, nil
}

var joinKeywordKind = map[string]query.JoinKind{
	"JOIN": query.JoinInner, "INNER JOIN": query.JoinInner,
	"LEFT JOIN": query.JoinLeft, "RIGHT JOIN": query.JoinRight,
	"FULL JOIN": query.JoinFull, "CROSS JOIN": query.JoinCross,
}

// parseJoins parses the left-to-right JOIN chain following FROM, per spec
// §4.P: each JOIN captures its kind, target table/alias, and ON predicate
// as a sequence of simple equality conditions ANDed together.
func (p *parser) parseJoins() ([]query.JoinOp, error) {
	var joins []query.JoinOp
	for {
		kind, ok, err := p.matchJoinKeyword()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		table, alias, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		j := query.JoinOp{Kind: kind, RightTable: table, RightAlias: alias}

		if p.peek().Text == "ON" {
			p.advance()
			conds, err := p.parseJoinConditions()
			if err != nil {
				return nil, err
			}
			j.Conditions = conds
		}
		joins = append(joins, j)
	}
	return joins, nil
}

// matchJoinKeyword consumes a (possibly multi-token) JOIN keyword sequence:
// the lexer already folds "LEFT JOIN" etc into one token, but FULL OUTER
// JOIN needs one extra token consumed (FULL OUTER, then JOIN), and LEFT/RIGHT
// OUTER JOIN arrive as three tokens (LEFT or RIGHT, OUTER, JOIN).
func (p *parser) matchJoinKeyword() (query.JoinKind, bool, error) {
	t := p.peek()
	if t.Text == "FULL OUTER" {
		p.advance()
		if p.peek().Text != "JOIN" {
			return 0, false, p.errorf("expected JOIN after FULL OUTER")
		}
		p.advance()
		return query.JoinFull, true, nil
	}
	if (t.Text == "LEFT" || t.Text == "RIGHT") && p.peekAt(1).Text == "OUTER" && p.peekAt(2).Text == "JOIN" {
		p.advance()
		p.advance()
		p.advance()
		if t.Text == "LEFT" {
			return query.JoinLeft, true, nil
		}
		return query.JoinRight, true, nil
	}
	if kind, ok := joinKeywordKind[t.Text]; ok {
		p.advance()
		return kind, true, nil
	}
	return 0, false, nil
}

// parseJoinConditions parses "t1.c1 = t2.c2 [AND t1.c3 = t2.c4 ...]".
func (p *parser) parseJoinConditions() ([]query.JoinCond, error) {
	var conds []query.JoinCond
	for {
		left, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		if p.peek().Text != "=" {
			return nil, p.errorf("expected = in JOIN ON condition")
		}
		p.advance()
		right, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		conds = append(conds, query.JoinCond{
			LeftTable: left.table, LeftCol: left.col, Op: "=",
			RightTable: right.table, RightCol: right.col,
		})
		if p.peek().Text == "AND" {
			p.advance()
			continue
		}
		break
	}
	return conds, nil
}

type qualifiedName struct{ table, col string }

func (p *parser) parseQualifiedName() (qualifiedName, error) {
	if p.peek().Kind != token.Name {
		return qualifiedName{}, p.errorf("expected identifier, got %q", p.peek().Text)
	}
	first := p.advance().Text
	if p.peek().Kind == token.Punctuation && p.peek().Text == "." {
		p.advance()
		second := p.advance().Text
		return qualifiedName{table: first, col: second}, nil
	}
	return qualifiedName{col: first}, nil
}

func (p *parser) parseFieldList() ([]string, error) {
	var fields []string
	for {
		name, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		f := name.col
		if name.table != "" {
			f = name.table + "." + name.col
		}
		fields = append(fields, f)
		if p.peek().Kind == token.Punctuation && p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}
	return fields, nil
}

func (p *parser) parseOrderByList() ([]query.OrderField, error) {
	var obs []query.OrderField
	for {
		name, err := p.parseQualifiedName()
		if err != nil {
			return nil, err
		}
		f := name.col
		if name.table != "" {
			f = name.table + "." + name.col
		}
		desc := false
		if p.peek().Text == "ASC" {
			p.advance()
		} else if p.peek().Text == "DESC" {
			desc = true
			p.advance()
		}
		obs = append(obs, query.OrderField{Field: f, Desc: desc})
		if p.peek().Kind == token.Punctuation && p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}
	return obs, nil
}

func (p *parser) parseLimit() (*query.Limit, error) {
	if p.peek().Kind != token.Number {
		return nil, p.errorf("expected integer after LIMIT")
	}
	n := p.advance().Text
	count := parseIntLiteral(n)
	lim := &query.Limit{Count: count}
	if p.peek().Kind == token.Punctuation && p.peek().Text == "," {
		// MySQL's "LIMIT offset, count" alternate form.
		p.advance()
		count2 := p.advance().Text
		lim.Offset = count
		lim.Count = parseIntLiteral(count2)
		return lim, nil
	}
	if p.peek().Text == "OFFSET" {
		p.advance()
		off := p.advance().Text
		lim.Offset = parseIntLiteral(off)
	}
	return lim, nil
}

func parseIntLiteral(s string) int64 {
	s = strings.TrimSpace(s)
	var n int64
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return n
		}
		n = n*10 + int64(ch-'0')
	}
	return n
}
