package parser

import (
	"strings"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/token"
)

// parseInsert parses just enough of INSERT INTO table (cols) VALUES (...),
// (...)... to satisfy spec §1's INSERT contract; it does not support
// INSERT ... SELECT or ON DUPLICATE KEY UPDATE.
func (p *parser) parseInsert() (*query.Query, error) {
	start := p.peek().Pos
	p.advance() // INSERT
	if p.peek().Text == "INTO" {
		p.advance()
	}
	if p.peek().Kind != token.Name {
		return nil, p.errorf("expected table name after INSERT INTO")
	}
	q := &query.Query{Kind: query.StmtInsert, InsertTable: p.advance().Text}

	if p.peek().Text == "(" {
		cols, err := p.parseParenFieldList()
		if err != nil {
			return nil, err
		}
		q.InsertColumns = cols
	}

	if p.peek().Text != "VALUES" {
		return nil, p.errorf("expected VALUES")
	}
	p.advance()

	for {
		row, err := p.parseValueList()
		if err != nil {
			return nil, err
		}
		q.InsertRows = append(q.InsertRows, row)
		if p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}

	q.OriginalText = strings.TrimSpace(p.src[start:])
	return q, nil
}

// parseParenFieldList parses "( a, b, c )" as a bare field-name list.
func (p *parser) parseParenFieldList() ([]string, error) {
	p.advance() // "("
	var names []string
	for {
		if p.peek().Kind != token.Name {
			return nil, p.errorf("expected column name")
		}
		names = append(names, p.advance().Text)
		if p.peek().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if p.peek().Text != ")" {
		return nil, p.errorf("expected ) to close column list")
	}
	p.advance()
	return names, nil
}

// parseUpdate parses UPDATE table SET col = val [, col = val ...] [WHERE ...],
// per spec §1's UPDATE contract (single-table, no JOIN updates).
func (p *parser) parseUpdate() (*query.Query, error) {
	start := p.peek().Pos
	p.advance() // UPDATE
	if p.peek().Kind != token.Name {
		return nil, p.errorf("expected table name after UPDATE")
	}
	q := &query.Query{Kind: query.StmtUpdate, UpdateTable: p.advance().Text, UpdateSet: map[string]query.Value{}}

	if p.peek().Text != "SET" {
		return nil, p.errorf("expected SET")
	}
	p.advance()

	for {
		if p.peek().Kind != token.Name {
			return nil, p.errorf("expected column name in SET")
		}
		col := p.advance().Text
		if p.peek().Text != "=" {
			return nil, p.errorf("expected = in SET assignment")
		}
		p.advance()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		q.UpdateSet[col] = v
		if p.peek().Text == "," {
			p.advance()
			continue
		}
		break
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

	q.OriginalText = strings.TrimSpace(p.src[start:])
	return q, nil
}

// parseDelete parses DELETE FROM table [WHERE ...], per spec §1's DELETE
// contract (single-table only).
func (p *parser) parseDelete() (*query.Query, error) {
	start := p.peek().Pos
	p.advance() // DELETE
	if p.peek().Text != "FROM" {
		return nil, p.errorf("expected FROM after DELETE")
	}
	p.advance()
	if p.peek().Kind != token.Name {
		return nil, p.errorf("expected table name after DELETE FROM")
	}
	q := &query.Query{Kind: query.StmtDelete, DeleteTable: p.advance().Text}

	if p.peek().Text == "WHERE" {
		p.advance()
		pred, subs, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		q.Where = pred
		q.Subqueries = append(q.Subqueries, subs...)
	}

	q.OriginalText = strings.TrimSpace(p.src[start:])
	return q, nil
}

// parseShow parses SHOW <word>, recording the word upper-cased in ShowWhat.
// The translator maps SHOW DATABASES to a database listing and any other
// SHOW (TABLES, COLLECTIONS) to a collection listing.
func (p *parser) parseShow() (*query.Query, error) {
	start := p.peek().Pos
	p.advance() // SHOW
	what := strings.ToUpper(p.advance().Text)
	q := &query.Query{Kind: query.StmtShow, ShowWhat: what}
	q.OriginalText = strings.TrimSpace(p.src[start:])
	return q, nil
}

// parseUse parses USE dbname.
func (p *parser) parseUse() (*query.Query, error) {
	start := p.peek().Pos
	p.advance() // USE
	if p.peek().Kind != token.Name {
		return nil, p.errorf("expected database name after USE")
	}
	q := &query.Query{Kind: query.StmtUse, UseDatabase: p.advance().Text}
	q.OriginalText = strings.TrimSpace(p.src[start:])
	return q, nil
}
