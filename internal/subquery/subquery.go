// Package subquery translates a Query's parenthesised SELECTs into the
// $lookup-based stage sequences spec §4.S specifies: SCALAR, IN_LIST,
// EXISTS, ROW, and DERIVED subqueries each bind their inner result into a
// field the outer pipeline then matches or projects against.
package subquery

import (
	"fmt"
	"strings"

	"github.com/mongosql-go/mongosql/internal/groupby"
	"github.com/mongosql-go/mongosql/internal/parser"
	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/where"
	"go.mongodb.org/mongo-driver/bson"
)

// TranslationError reports a subquery shape the translator cannot bind,
// per spec §7's TranslationError kind ("invalid subquery shape").
type TranslationError struct{ Detail string }

func (e *TranslationError) Error() string { return "subquery translation error: " + e.Detail }

// Result is one subquery's contribution to the outer pipeline: the stages
// to splice in (in order), and — for SCALAR (SELECT position) and DERIVED
// — the field name the outer projection should reference.
type Result struct {
	Stages     []bson.D
	OutputName string
}

// Build translates sub into its stage sequence, binding as
// "subq_<table>_<N>" where <table> is the inner FROM table and N is index
// (so repeated inner collection names in one query don't collide), per the
// table in spec §4.S.
func Build(sub query.Subquery, index int, outerAliases where.AliasMap, selectPosition bool) (Result, error) {
	innerQ, err := parser.Parse(sub.InnerSQL)
	if err != nil {
		return Result{}, &TranslationError{Detail: "could not parse subquery SQL: " + err.Error()}
	}

	bindName := fmt.Sprintf("subq_%s_%d", sanitize(innerQ.FromTable), index)
	innerPipeline, innerField, err := buildInnerPipeline(innerQ)
	if err != nil {
		return Result{}, err
	}

	lookup := bson.D{{Key: "$lookup", Value: bson.M{
		"from":     innerQ.FromTable,
		"pipeline": innerPipeline,
		"as":       bindName,
	}}}

	outerField := "$" + outerAliases.FieldPath(sub.OuterField)

	switch sub.Kind {
	case query.SubScalar:
		if selectPosition {
			return Result{Stages: []bson.D{lookup}, OutputName: bindName}, nil
		}
		matchDoc := bson.M{"$expr": bson.M{"$eq": bson.A{
			outerField,
			bson.M{"$arrayElemAt": bson.A{"$" + bindName + "." + innerField, 0}},
		}}}
		return Result{Stages: []bson.D{
			lookup,
			{{Key: "$match", Value: matchDoc}},
			{{Key: "$project", Value: bson.M{bindName: 0}}},
		}}, nil

	case query.SubInList:
		op := "$in"
		if isNegated(sub) {
			op = "$nin"
		}
		matchDoc := bson.M{"$expr": bson.M{op: bson.A{outerField, "$" + bindName + "." + innerField}}}
		return Result{Stages: []bson.D{
			lookup,
			{{Key: "$match", Value: matchDoc}},
			{{Key: "$project", Value: bson.M{bindName: 0}}},
		}}, nil

	case query.SubExists:
		if len(sub.CorrelationFields) > 0 {
			lookup = correlatedLookup(innerQ, bindName, sub.CorrelationFields, outerAliases)
		}
		op := "$gt"
		if isNegated(sub) {
			op = "$eq"
		}
		matchDoc := bson.M{"$expr": bson.M{op: bson.A{bson.M{"$size": "$" + bindName}, 0}}}
		return Result{Stages: []bson.D{
			lookup,
			{{Key: "$match", Value: matchDoc}},
			{{Key: "$project", Value: bson.M{bindName: 0}}},
		}}, nil

	case query.SubRow:
		fields := strings.Split(sub.OuterField, ",")
		var conds bson.A
		for i, f := range fields {
			conds = append(conds, bson.M{"$eq": bson.A{
				"$" + outerAliases.FieldPath(strings.TrimSpace(f)),
				bson.M{"$arrayElemAt": bson.A{fmt.Sprintf("$%s.%s", bindName, innerColumnAt(innerQ, i)), 0}},
			}})
		}
		matchDoc := bson.M{"$expr": bson.M{"$and": conds}}
		return Result{Stages: []bson.D{
			lookup,
			{{Key: "$match", Value: matchDoc}},
			{{Key: "$project", Value: bson.M{bindName: 0}}},
		}}, nil

	case query.SubDerived:
		alias := sub.Alias
		if alias == "" {
			alias = bindName
		}
		unwind := bson.D{{Key: "$unwind", Value: "$" + alias}}
		lookup = bson.D{{Key: "$lookup", Value: bson.M{
			"from":     innerQ.FromTable,
			"pipeline": innerPipeline,
			"as":       alias,
		}}}
		return Result{Stages: []bson.D{lookup, unwind}, OutputName: alias}, nil

	default:
		panic("subquery: unhandled subquery kind")
	}
}

// isNegated reports whether the predicate this subquery was attached to
// used the "NOT" variant (NOT IN / NOT EXISTS). The parser
// (internal/parser/wherepred.go) copies the predicate's operator into
// ComparisonOp, so a negated subquery carries query.OpNotIn/OpNotExists.
func isNegated(sub query.Subquery) bool {
	return sub.ComparisonOp == query.OpNotIn || sub.ComparisonOp == query.OpNotExists
}

// buildInnerPipeline compiles the subquery's own SQL into a nested
// pipeline: $match (WHERE), $group (GROUP BY/aggregates, via internal/
// groupby), $sort (ORDER BY), $limit, per spec §4.S's "mini-compiler"
// paragraph. innerField is the column name the outer stage binds against
// (the subquery's first/only projected column).
func buildInnerPipeline(innerQ *query.Query) ([]bson.D, string, error) {
	var pipeline []bson.D

	if innerQ.NeedsGroupStage() {
		stages, err := groupby.Build(innerQ, nil)
		if err != nil {
			return nil, "", err
		}
		pipeline = append(pipeline, stages...)
	} else {
		if innerQ.Where != nil {
			matchDoc, err := where.Translate(innerQ.Where, nil)
			if err != nil {
				return nil, "", err
			}
			if len(matchDoc) > 0 {
				pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
			}
		}
		if len(innerQ.OrderBy) > 0 {
			sort := bson.D{}
			for _, ob := range innerQ.OrderBy {
				dir := 1
				if ob.Desc {
					dir = -1
				}
				sort = append(sort, bson.E{Key: ob.Field, Value: dir})
			}
			pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
		}
		if innerQ.Limit != nil {
			if innerQ.Limit.Offset > 0 {
				pipeline = append(pipeline, bson.D{{Key: "$skip", Value: innerQ.Limit.Offset}})
			}
			pipeline = append(pipeline, bson.D{{Key: "$limit", Value: innerQ.Limit.Count}})
		}
	}

	field := innerColumnAt(innerQ, 0)
	proj := bson.M{"_id": 0}
	if len(innerQ.Columns) == 1 && innerQ.Columns[0].Kind == query.ColStar {
		// SELECT * keeps every field; the exclusion of _id above is enough.
	} else {
		for _, c := range innerQ.Columns {
			proj[c.OutputName()] = 1
		}
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})

	return pipeline, field, nil
}

func innerColumnAt(innerQ *query.Query, i int) string {
	if i < len(innerQ.Columns) {
		return innerQ.Columns[i].OutputName()
	}
	return "_id"
}

// InnerFromTable parses sub's SQL just far enough to report its own FROM
// table. Used by a caller that needs to pick a base collection before
// invoking Build: a DERIVED subquery used as the query's own FROM source
// (FROM (SELECT ...) AS alias) has no other table to run .aggregate()
// against, so the translator self-$lookups the subquery's own collection.
func InnerFromTable(sub query.Subquery) (string, error) {
	innerQ, err := parser.Parse(sub.InnerSQL)
	if err != nil {
		return "", &TranslationError{Detail: "could not parse subquery SQL: " + err.Error()}
	}
	return innerQ.FromTable, nil
}

// correlatedLookup builds the let/pipeline form of $lookup for a
// correlated EXISTS subquery, binding each outer correlation field as a
// $let variable the inner pipeline's extra $match compares against.
func correlatedLookup(innerQ *query.Query, bindName string, correlated []string, outerAliases where.AliasMap) bson.D {
	letVars := bson.M{}
	var extraConds bson.A
	for _, f := range correlated {
		varName := sanitize(f)
		letVars[varName] = "$" + outerAliases.FieldPath(f)
		extraConds = append(extraConds, bson.M{"$eq": bson.A{"$" + f, "$$" + varName}})
	}
	innerPipeline, _, _ := buildInnerPipeline(innerQ)
	innerPipeline = append([]bson.D{{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": extraConds}}}}}, innerPipeline...)
	return bson.D{{Key: "$lookup", Value: bson.M{
		"from":     innerQ.FromTable,
		"let":      letVars,
		"pipeline": innerPipeline,
		"as":       bindName,
	}}}
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' {
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "x"
	}
	return s
}
