package query

// StatementKind discriminates the Query sum type's top-level statement kind.
type StatementKind int

const (
	StmtSelect StatementKind = iota
	StmtInsert
	StmtUpdate
	StmtDelete
	StmtShow
	StmtUse
)

// Limit captures LIMIT [OFFSET].
type Limit struct {
	Count  int64
	Offset int64
}

// Query is the parser's output tree for every statement kind. Fields only
// meaningful to one kind are left zero for the others; §4.P only deeply
// parses SELECT, so INSERT/UPDATE/DELETE/SHOW/USE populate just enough of
// this struct to satisfy their documented contract (spec §1: "contracts
// given, deep translation not covered").
type Query struct {
	Kind StatementKind

	Columns    []Column
	FromTable  string
	FromAlias  string
	// FromSubquery is set instead of FromTable when the query's data
	// source is itself a parenthesised SELECT: FROM (SELECT ...) AS alias,
	// spec §4.S's DERIVED subquery kind. FromAlias carries the same alias.
	FromSubquery *Subquery
	Joins        []JoinOp
	Where      *Predicate
	GroupBy    []string
	Having     *Predicate
	HavingRaw  string
	OrderBy    []OrderField
	Limit      *Limit
	Distinct   bool
	Subqueries []Subquery

	// INSERT
	InsertTable   string
	InsertColumns []string
	InsertRows    [][]Value

	// UPDATE
	UpdateTable string
	UpdateSet   map[string]Value

	// DELETE
	DeleteTable string

	// SHOW
	ShowWhat string // "COLLECTIONS" | "DATABASES" | "TABLES"

	// USE
	UseDatabase string

	OriginalText string
}

// HasJoins reports invariant I1's trigger condition.
func (q *Query) HasJoins() bool { return len(q.Joins) > 0 }

// HasAggregateColumn reports whether any SELECT column is an aggregate
// function, the trigger half of invariant I3.
func (q *Query) HasAggregateColumn() bool {
	for _, c := range q.Columns {
		if c.Kind == ColFunction && c.IsAggregate {
			return true
		}
	}
	return false
}

// NeedsGroupStage reports invariant I3 in full: an aggregate column or a
// non-empty GROUP BY.
func (q *Query) NeedsGroupStage() bool {
	return q.HasAggregateColumn() || len(q.GroupBy) > 0
}

// HasWindowColumn reports whether any SELECT column is a window function
// (a function call followed by OVER (...)), spec §4.F's "Window" family.
func (q *Query) HasWindowColumn() bool {
	for _, c := range q.Columns {
		if c.Kind == ColFunction && c.IsWindow {
			return true
		}
	}
	return false
}
