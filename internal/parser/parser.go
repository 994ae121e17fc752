// Package parser builds a query.Query tree from a token stream, per
// spec §4.P. Statement discrimination is by the first DML/keyword token;
// SELECT is parsed in full, INSERT/UPDATE/DELETE/SHOW/USE only deeply
// enough to satisfy their documented contract (spec §1).
package parser

import (
	"fmt"
	"strings"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/token"
)

// ParseError reports malformed SQL: an unbalanced paren, a missing
// required keyword, or an unparsable clause, with the offending token's
// byte position.
type ParseError struct {
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

// UnsupportedStatementError is returned when the first token is not one of
// SELECT/INSERT/UPDATE/DELETE/SHOW/USE.
type UnsupportedStatementError struct{ Text string }

func (e *UnsupportedStatementError) Error() string {
	return "unsupported statement: " + e.Text
}

// parser holds the token stream and cursor for a single Parse call.
type parser struct {
	src    string
	tokens []token.Token
	pos    int
}

// Parse tokenises sql and builds its Query tree.
func Parse(sql string) (*query.Query, error) {
	toks, err := token.Tokenize(sql)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	p := &parser{src: sql, tokens: toks}
	return p.parseStatement()
}

func (p *parser) parseStatement() (*query.Query, error) {
	tok := p.peek()
	if tok.Kind != token.DMLKeyword {
		return nil, &UnsupportedStatementError{Text: tok.Text}
	}
	switch tok.Text {
	case "SELECT":
		return p.parseSelect()
	case "INSERT":
		return p.parseInsert()
	case "UPDATE":
		return p.parseUpdate()
	case "DELETE":
		return p.parseDelete()
	case "SHOW":
		return p.parseShow()
	case "USE":
		return p.parseUse()
	default:
		return nil, &UnsupportedStatementError{Text: tok.Text}
	}
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i < 0 || i >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[i]
}

func (p *parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Position: p.peek().Pos, Message: fmt.Sprintf(format, args...)}
}

// isClauseKeyword reports whether text is one of the top-level SELECT
// clause keywords spec §4.P lists, used to know where an un-delimited
// region (column list, argument text, raw HAVING) ends.
func isClauseKeyword(text string) bool {
	switch text {
	case "FROM", "WHERE", "GROUP BY", "HAVING", "ORDER BY", "LIMIT",
		"JOIN", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL JOIN",
		"CROSS JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS", "ON":
		return true
	}
	return false
}

func upperText(s string) string { return strings.ToUpper(s) }
