package functions

import "strings"

// AggregateSpec is the shape spec §4.F requires an aggregate handler to
// return: the $group accumulator operator/value, plus optional
// post-processing the groupby compiler applies after the $group stage
// (rounding for STDDEV/VAR, the GROUP_CONCAT $reduce pipeline).
type AggregateSpec struct {
	Operator    string // "$sum", "$avg", "$min", ...
	Value       interface{}
	Stage       string // always "$group" per the data model
	PostProcess string // "stddev_round" | "variance" | "group_concat" | ""
	Precision   int
	// GroupConcat-only fields.
	Distinct    bool
	OrderBy     string
	Desc        bool
	Separator   string
}

// aggregateHandlers wraps each registered aggregate so its handler fits the
// package-wide Handler signature while still letting BuildAggregate recover
// the richer AggregateSpec.
var aggregateHandlers = map[string]func(args []string) AggregateSpec{}

func registerAggregate() {
	simple := func(op string) func([]string) AggregateSpec {
		return func(args []string) AggregateSpec {
			var val interface{} = 1
			if len(args) == 1 && strings.TrimSpace(args[0]) != "*" {
				val = FieldExpr(args[0])
			}
			return AggregateSpec{Operator: op, Value: val, Stage: "$group"}
		}
	}

	count := func(args []string) AggregateSpec {
		if len(args) == 1 && strings.TrimSpace(args[0]) == "*" {
			return AggregateSpec{Operator: "$sum", Value: 1, Stage: "$group"}
		}
		field := FieldExpr(args[0])
		return AggregateSpec{
			Operator: "$sum",
			Value:    M{"$cond": A{M{"$ne": A{field, nil}}, 1, 0}},
			Stage:    "$group",
		}
	}

	stddev := func(op string) func([]string) AggregateSpec {
		return func(args []string) AggregateSpec {
			return AggregateSpec{
				Operator:    op,
				Value:       FieldExpr(args[0]),
				Stage:       "$group",
				PostProcess: "stddev_round",
				Precision:   6,
			}
		}
	}

	variance := func(stddevOp string) func([]string) AggregateSpec {
		return func(args []string) AggregateSpec {
			return AggregateSpec{
				Operator:    stddevOp,
				Value:       FieldExpr(args[0]),
				Stage:       "$group",
				PostProcess: "variance",
				Precision:   6,
			}
		}
	}

	bitAgg := func(op string) func([]string) AggregateSpec {
		return func(args []string) AggregateSpec {
			return AggregateSpec{Operator: op, Value: FieldExpr(args[0]), Stage: "$group"}
		}
	}

	groupConcat := func(args []string) AggregateSpec {
		// args[0] may carry a leading "DISTINCT " and a trailing "... ORDER
		// BY x [DESC] SEPARATOR 'y'" clause; parseGroupConcatArg pulls those
		// back out of the single pre-split argument string.
		if len(args) == 0 {
			return AggregateSpec{Operator: "$push", Value: nil, Stage: "$group", PostProcess: "group_concat", Separator: ","}
		}
		expr, distinct, orderBy, desc, separator := parseGroupConcatArg(args[0])
		op := "$push"
		if distinct {
			op = "$addToSet"
		}
		return AggregateSpec{
			Operator:    op,
			Value:       FieldExpr(expr),
			Stage:       "$group",
			PostProcess: "group_concat",
			Distinct:    distinct,
			OrderBy:     orderBy,
			Desc:        desc,
			Separator:   separator,
		}
	}

	aggregateHandlers["COUNT"] = count
	aggregateHandlers["SUM"] = simple("$sum")
	aggregateHandlers["AVG"] = simple("$avg")
	aggregateHandlers["MIN"] = simple("$min")
	aggregateHandlers["MAX"] = simple("$max")
	aggregateHandlers["FIRST"] = simple("$first")
	aggregateHandlers["LAST"] = simple("$last")
	aggregateHandlers["STDDEV"] = stddev("$stdDevPop")
	aggregateHandlers["STDDEV_POP"] = stddev("$stdDevPop")
	aggregateHandlers["STDDEV_SAMP"] = stddev("$stdDevSamp")
	aggregateHandlers["VAR_POP"] = variance("$stdDevPop")
	aggregateHandlers["VAR_SAMP"] = variance("$stdDevSamp")
	aggregateHandlers["GROUP_CONCAT"] = groupConcat
	aggregateHandlers["BIT_AND"] = bitAgg("$accumulatorBitAnd") // no native BSON bitwise accumulator; the operator name is emitted as-is
	aggregateHandlers["BIT_OR"] = bitAgg("$accumulatorBitOr")
	aggregateHandlers["BIT_XOR"] = bitAgg("$accumulatorBitXor")

	for n, fn := range aggregateHandlers {
		fn := fn
		register(FamilyAggregate, []string{n}, func(args []string) (interface{}, error) {
			return fn(args), nil
		})
	}
}

// parseGroupConcatArg splits GROUP_CONCAT's single argument string into its
// MySQL-grammar pieces: an optional leading "DISTINCT ", the value
// expression, an optional "ORDER BY field [ASC|DESC]", and an optional
// "SEPARATOR 'text'" (default ","), per spec §4.F.
func parseGroupConcatArg(arg string) (expr string, distinct bool, orderBy string, desc bool, separator string) {
	arg = strings.TrimSpace(arg)
	separator = ","

	upper := strings.ToUpper(arg)
	if strings.HasPrefix(upper, "DISTINCT ") {
		distinct = true
		arg = strings.TrimSpace(arg[len("DISTINCT "):])
		upper = strings.ToUpper(arg)
	}

	if idx := strings.Index(upper, " SEPARATOR "); idx >= 0 {
		sepText := strings.TrimSpace(arg[idx+len(" SEPARATOR "):])
		if s, quoted := StripQuotes(sepText); quoted {
			separator = s
		}
		arg = strings.TrimSpace(arg[:idx])
		upper = strings.ToUpper(arg)
	}

	if idx := strings.Index(upper, " ORDER BY "); idx >= 0 {
		obText := strings.TrimSpace(arg[idx+len(" ORDER BY "):])
		arg = strings.TrimSpace(arg[:idx])
		fields := strings.Fields(obText)
		if len(fields) > 0 {
			switch {
			case strings.EqualFold(fields[len(fields)-1], "DESC"):
				desc = true
				fields = fields[:len(fields)-1]
			case strings.EqualFold(fields[len(fields)-1], "ASC"):
				fields = fields[:len(fields)-1]
			}
			orderBy = strings.Join(fields, " ")
		}
	}

	expr = strings.TrimSpace(arg)
	return
}

// BuildAggregate resolves name to its AggregateSpec builder. name is passed
// explicitly (rather than relying on the generic Handler closure) because
// the groupby compiler needs the richer struct, not just interface{}.
func BuildAggregate(name string, args []string) (AggregateSpec, error) {
	fn, ok := aggregateHandlers[strings.ToUpper(name)]
	if !ok {
		return AggregateSpec{}, &UnknownFunctionError{Name: name}
	}
	return fn(args), nil
}
