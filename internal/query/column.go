package query

// ColumnKind discriminates the Column sum type named in the data model.
type ColumnKind int

const (
	ColStar ColumnKind = iota
	ColPlain
	ColFunction
	ColCase
	ColRegexpInfix
	ColRaw
)

// WhenClause is one WHEN/THEN arm of a CASE expression, kept as raw source
// text: the GROUP BY/conditional mappers re-parse cond/then text themselves
// rather than the parser building a nested expression tree for them.
type WhenClause struct {
	Cond string
	Then string
}

// WindowSpec is the verbatim captured body of an OVER (...) clause, split
// into its ORDER BY fields (PARTITION BY is recognised but not emitted,
// per spec §9's documented limitation).
type WindowSpec struct {
	OrderBy []OrderField
	Raw     string
}

// Column is one item of a SELECT list.
type Column struct {
	Kind ColumnKind

	// ColPlain
	Name           string
	TableQualifier string
	Alias          string

	// ColFunction
	FuncName     string
	ArgsText     string
	OriginalText string
	IsAggregate  bool
	IsWindow     bool
	WindowSpec   *WindowSpec

	// ColCase
	WhenClauses []WhenClause
	Else        string

	// ColRegexpInfix
	Left     string
	Operator string // REGEXP | RLIKE | NOT REGEXP
	Right    string

	// ColRaw (also the verbatim CASE ... END text of a ColCase)
	Raw string
}

// QualifiedName renders table.column (or just column) for error messages
// and alias-map lookups.
func (c Column) QualifiedName() string {
	if c.TableQualifier == "" {
		return c.Name
	}
	return c.TableQualifier + "." + c.Name
}

// OutputName is the label this column contributes to the projection:
// explicit alias, else the original SQL text for functions/case/raw/regexp
// columns (matching spec §4.G's "keyed by original SQL text" rule), else
// the bare column name.
func (c Column) OutputName() string {
	if c.Alias != "" {
		return c.Alias
	}
	switch c.Kind {
	case ColPlain:
		return c.Name
	case ColFunction:
		return c.OriginalText
	case ColCase, ColRaw:
		return c.Raw
	case ColRegexpInfix:
		return c.Left + " " + c.Operator + " " + c.Right
	default:
		return ""
	}
}

// OrderField is one ORDER BY item.
type OrderField struct {
	Field string
	Desc  bool
}
