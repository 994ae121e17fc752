// Package groupby builds the $group stage (with HAVING post-filter and
// trailing ORDER BY/LIMIT) that spec §4.G specifies for any query whose
// SELECT list contains an aggregate function or whose GROUP BY is
// non-empty.
package groupby

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mongosql-go/mongosql/internal/functions"
	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/where"
	"go.mongodb.org/mongo-driver/bson"
)

// Build produces the full aggregate pipeline fragment for a GROUP BY /
// aggregate query: [$match?, $group, GROUP_CONCAT $addFields/$project
// stages?, $addFields(post-process)?, $match (HAVING)?, $sort?, $skip?,
// $limit?, $project {_id: 0}].
func Build(q *query.Query, aliases where.AliasMap) ([]bson.D, error) {
	var pipeline []bson.D

	if q.Where != nil {
		matchDoc, err := where.Translate(q.Where, aliases)
		if err != nil {
			return nil, err
		}
		if len(matchDoc) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
		}
	}

	groupStage, postProcess, groupConcatStages, err := buildGroupStage(q)
	if err != nil {
		return nil, err
	}
	pipeline = append(pipeline, groupStage)
	pipeline = append(pipeline, groupConcatStages...)
	if len(postProcess) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: postProcess}})
	}

	if q.HavingRaw != "" {
		havingDoc, err := translateHaving(q.HavingRaw)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: havingDoc}})
	}

	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range q.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Limit.Offset}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit.Count}})
	}

	// invariant I4: _id is never projected unless explicitly requested.
	// $group's _id carries the GROUP BY key (or nil for a bare aggregate)
	// and has no business in the result document.
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: bson.M{"_id": 0}}})

	return pipeline, nil
}

// buildGroupStage constructs the $group document's _id and accumulators,
// plus any post-$group bookkeeping: an $addFields rounding stddev/variance
// results, and the extra stages a GROUP_CONCAT needs.
func buildGroupStage(q *query.Query) (bson.D, bson.M, []bson.D, error) {
	id := groupID(q.GroupBy)

	fields := bson.M{}
	postProcess := bson.M{}
	var groupConcatStages []bson.D

	for _, col := range q.Columns {
		switch col.Kind {
		case query.ColFunction:
			if !col.IsAggregate {
				continue
			}
			key := col.OutputName()
			args := functions.SplitArgs(col.ArgsText)
			spec, err := functions.BuildAggregate(col.FuncName, args)
			if err != nil {
				return bson.D{}, nil, nil, err
			}
			fields[key] = bson.M{spec.Operator: spec.Value}

			switch spec.PostProcess {
			case "stddev_round":
				postProcess[key] = bson.M{"$round": bson.A{"$" + key, spec.Precision}}
			case "variance":
				postProcess[key] = bson.M{"$round": bson.A{bson.M{"$pow": bson.A{"$" + key, 2}}, spec.Precision}}
			case "group_concat":
				gcKey := key + "__items"
				sep := spec.Separator
				if sep == "" {
					sep = ","
				}

				if spec.OrderBy == "" {
					fields[gcKey] = bson.M{spec.Operator: spec.Value}
					delete(fields, key)
					groupConcatStages = append(groupConcatStages, bson.D{{Key: "$addFields", Value: bson.M{
						key: bson.M{"$reduce": bson.M{
							"input":        "$" + gcKey,
							"initialValue": "",
							"in": bson.M{"$cond": bson.A{
								bson.M{"$eq": bson.A{"$$value", ""}},
								bson.M{"$toString": "$$this"},
								bson.M{"$concat": bson.A{"$$value", sep, bson.M{"$toString": "$$this"}}},
							}},
						}},
					}}})
					groupConcatStages = append(groupConcatStages, bson.D{{Key: "$project", Value: bson.M{gcKey: 0}}})
					break
				}

				// ORDER BY inside the argument: push {v, o} pairs so the
				// sort key survives alongside the value, sort the pushed
				// array with $sortArray, then $reduce over "$$this.v".
				sortedKey := gcKey + "__sorted"
				fields[gcKey] = bson.M{spec.Operator: bson.M{"v": spec.Value, "o": functions.FieldExpr(spec.OrderBy)}}
				delete(fields, key)
				dir := 1
				if spec.Desc {
					dir = -1
				}
				groupConcatStages = append(groupConcatStages, bson.D{{Key: "$addFields", Value: bson.M{
					sortedKey: bson.M{"$sortArray": bson.M{"input": "$" + gcKey, "sortBy": bson.M{"o": dir}}},
				}}})
				groupConcatStages = append(groupConcatStages, bson.D{{Key: "$addFields", Value: bson.M{
					key: bson.M{"$reduce": bson.M{
						"input":        "$" + sortedKey,
						"initialValue": "",
						"in": bson.M{"$cond": bson.A{
							bson.M{"$eq": bson.A{"$$value", ""}},
							bson.M{"$toString": "$$this.v"},
							bson.M{"$concat": bson.A{"$$value", sep, bson.M{"$toString": "$$this.v"}}},
						}},
					}},
				}}})
				groupConcatStages = append(groupConcatStages, bson.D{{Key: "$project", Value: bson.M{gcKey: 0, sortedKey: 0}}})
			}
		case query.ColPlain:
			fields[col.OutputName()] = bson.M{"$first": "$" + col.QualifiedName()}
		}
	}

	return bson.D{{Key: "$group", Value: append(bson.D{{Key: "_id", Value: id}}, mapToD(fields)...)}}, postProcess, groupConcatStages, nil
}

func groupID(groupBy []string) interface{} {
	switch len(groupBy) {
	case 0:
		return nil
	case 1:
		return "$" + groupBy[0]
	default:
		id := bson.M{}
		for _, f := range groupBy {
			id[f] = "$" + f
		}
		return id
	}
}

func mapToD(m bson.M) bson.D {
	d := make(bson.D, 0, len(m))
	for k, v := range m {
		d = append(d, bson.E{Key: k, Value: v})
	}
	return d
}

// havingPattern recognises the single HAVING shape spec §4.G/§9 support:
// FUNC(arg) OP value.
var havingPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*\([^)]*\))\s*(=|!=|<>|<=|>=|<|>)\s*(.+?)\s*$`)

// translateHaving re-tokenizes a raw HAVING clause the parser captured
// verbatim, rewriting "FUNC(arg) OP value" into { 'FUNC(arg)': {opcode:
// value} }, per spec §4.G item 3.
func translateHaving(raw string) (bson.M, error) {
	m := havingPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("groupby: unsupported HAVING shape: %q", raw)
	}
	field, op, valText := m[1], m[2], m[3]
	opcode := havingOpcode(op)
	val := havingValue(valText)
	return bson.M{field: bson.M{opcode: val}}, nil
}

func havingOpcode(op string) string {
	switch op {
	case "=":
		return "$eq"
	case "!=", "<>":
		return "$ne"
	case "<":
		return "$lt"
	case "<=":
		return "$lte"
	case ">":
		return "$gt"
	case ">=":
		return "$gte"
	default:
		return "$eq"
	}
}

func havingValue(text string) interface{} {
	text = strings.TrimSpace(text)
	if s, quoted := functions.StripQuotes(text); quoted {
		return s
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}
