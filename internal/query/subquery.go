package query

// SubqueryKind enumerates the five subquery varieties spec §3/§4.S name.
type SubqueryKind int

const (
	SubScalar SubqueryKind = iota
	SubInList
	SubExists
	SubRow
	SubDerived
)

func (k SubqueryKind) String() string {
	switch k {
	case SubScalar:
		return "SCALAR"
	case SubInList:
		return "IN_LIST"
	case SubExists:
		return "EXISTS"
	case SubRow:
		return "ROW"
	case SubDerived:
		return "DERIVED"
	default:
		return "UNKNOWN_SUBQUERY"
	}
}

// Subquery is a parenthesised SELECT appearing inside another Query. For
// ROW subqueries OuterField is the comma-joined list of outer columns being
// compared, matching the data model's "comma-joined for ROW" note.
type Subquery struct {
	Kind              SubqueryKind
	OuterField        string
	InnerSQL          string
	InnerQuery        *Query // parsed lazily by the translator's mini-compiler
	InnerCollection   string
	InnerField        string
	ComparisonOp      PredOp
	CorrelationFields []string
	Alias             string // DERIVED subqueries are aliased in FROM
}
