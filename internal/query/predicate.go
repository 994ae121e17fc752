package query

// PredOp enumerates every WHERE/HAVING operator named in the data model.
type PredOp int

const (
	OpEq PredOp = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpLike
	OpNotLike
	OpRegexp
	OpRlike
	OpNotRegexp
	OpIn
	OpNotIn
	OpBetween
	OpNotBetween
	OpIsNull
	OpIsNotNull
	// OpExists/OpNotExists are not part of the data model's documented
	// operator list (EXISTS binds to a Subquery, not a value comparison),
	// but are modelled as pseudo-ops here so an EXISTS leaf still fits the
	// flat Predicate list the WHERE parser builds; the WHERE translator
	// treats them the same as a delegated IN-with-subquery leaf (empty
	// match, real condition built by the subquery translator).
	OpExists
	OpNotExists
)

func (o PredOp) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLike:
		return "LIKE"
	case OpNotLike:
		return "NOT LIKE"
	case OpRegexp:
		return "REGEXP"
	case OpRlike:
		return "RLIKE"
	case OpNotRegexp:
		return "NOT REGEXP"
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	case OpBetween:
		return "BETWEEN"
	case OpNotBetween:
		return "NOT BETWEEN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpExists:
		return "EXISTS"
	case OpNotExists:
		return "NOT EXISTS"
	default:
		return "UNKNOWN_OP"
	}
}

// LogicalOp is the Compound predicate's combinator.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// PredicateKind discriminates the Predicate sum type.
type PredicateKind int

const (
	PredSimple PredicateKind = iota
	PredCompound
)

// Predicate is a WHERE/HAVING/ON condition tree node.
type Predicate struct {
	Kind PredicateKind

	// PredSimple
	Field string
	Op    PredOp
	Value Value
	// BETWEEN's second bound; Value holds the first.
	Upper Value
	// IN's value list; when len==0 and Subquery is set, the list is a
	// subquery the WHERE translator delegates to the subquery translator.
	List     []Value
	Subquery *Subquery

	// PredCompound
	LogicalOp LogicalOp
	Children  []Predicate
}

// Simple constructs a leaf comparison predicate.
func Simple(field string, op PredOp, value Value) Predicate {
	return Predicate{Kind: PredSimple, Field: field, Op: op, Value: value}
}

// Compound constructs an AND/OR node over children.
func Compound(op LogicalOp, children ...Predicate) Predicate {
	return Predicate{Kind: PredCompound, LogicalOp: op, Children: children}
}
