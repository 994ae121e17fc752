// Package where translates Predicate trees (WHERE/HAVING/ON conditions)
// into MongoDB match documents, per spec §4.W.
package where

import (
	"strings"

	"github.com/mongosql-go/mongosql/internal/functions"
	"github.com/mongosql-go/mongosql/internal/query"
	"go.mongodb.org/mongo-driver/bson"
)

// AliasMap rewrites a qualified field ("alias.col") to the joined-document
// path the JOIN translator produced ("alias_joined.col"), or to the bare
// column name when alias is the base table. A nil/empty map leaves fields
// unqualified, for non-JOIN queries.
type AliasMap map[string]string

// FieldPath resolves field to its final projection path given alias.
func (m AliasMap) FieldPath(field string) string {
	table, col, qualified := splitQualified(field)
	if !qualified || m == nil {
		return field
	}
	if prefix, ok := m[table]; ok {
		if prefix == "" {
			return col
		}
		return prefix + "." + col
	}
	return field
}

func splitQualified(field string) (table, col string, ok bool) {
	idx := strings.IndexByte(field, '.')
	if idx < 0 {
		return "", field, false
	}
	return field[:idx], field[idx+1:], true
}

// Translate converts a Predicate into a MongoDB match document. A nil
// predicate translates to an empty filter. aliases may be nil for
// unqualified single-table queries.
func Translate(pred *query.Predicate, aliases AliasMap) (bson.M, error) {
	if pred == nil {
		return bson.M{}, nil
	}
	return translate(*pred, aliases)
}

func translate(pred query.Predicate, aliases AliasMap) (bson.M, error) {
	switch pred.Kind {
	case query.PredSimple:
		return translateSimple(pred, aliases)
	case query.PredCompound:
		return translateCompound(pred, aliases)
	default:
		panic("where: unhandled predicate kind")
	}
}

func translateCompound(pred query.Predicate, aliases AliasMap) (bson.M, error) {
	if len(pred.Children) == 1 {
		return translate(pred.Children[0], aliases)
	}
	docs := make(bson.A, 0, len(pred.Children))
	for _, c := range pred.Children {
		d, err := translate(c, aliases)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	switch pred.LogicalOp {
	case query.LogicalOr:
		return bson.M{"$or": docs}, nil
	default:
		return bson.M{"$and": docs}, nil
	}
}

func translateSimple(pred query.Predicate, aliases AliasMap) (bson.M, error) {
	field := aliases.FieldPath(pred.Field)
	switch pred.Op {
	case query.OpEq:
		if pred.Subquery != nil {
			// SCALAR or ROW subquery, delegated to the subquery translator's
			// own $expr/$eq match; this WHERE translator contributes nothing,
			// same as the OpIn/OpExists subquery branches below.
			return bson.M{}, nil
		}
		return bson.M{field: valueOf(pred.Value)}, nil
	case query.OpNe:
		if pred.Subquery != nil {
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$ne": valueOf(pred.Value)}}, nil
	case query.OpLt:
		if pred.Subquery != nil {
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$lt": valueOf(pred.Value)}}, nil
	case query.OpLte:
		if pred.Subquery != nil {
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$lte": valueOf(pred.Value)}}, nil
	case query.OpGt:
		if pred.Subquery != nil {
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$gt": valueOf(pred.Value)}}, nil
	case query.OpGte:
		if pred.Subquery != nil {
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$gte": valueOf(pred.Value)}}, nil
	case query.OpLike:
		return bson.M{field: bson.M{"$regex": functions.LikeToRegex(pred.Value.Str), "$options": "i"}}, nil
	case query.OpNotLike:
		return bson.M{field: bson.M{"$not": bson.M{"$regex": functions.LikeToRegex(pred.Value.Str), "$options": "i"}}}, nil
	case query.OpRegexp, query.OpRlike:
		return functions.RegexpMatchDoc(field, pred.Value.Str, false), nil
	case query.OpNotRegexp:
		return functions.RegexpMatchDoc(field, pred.Value.Str, true), nil
	case query.OpBetween:
		return bson.M{field: bson.M{"$gte": valueOf(pred.Value), "$lte": valueOf(pred.Upper)}}, nil
	case query.OpNotBetween:
		return bson.M{"$or": bson.A{
			bson.M{field: bson.M{"$lt": valueOf(pred.Value)}},
			bson.M{field: bson.M{"$gt": valueOf(pred.Upper)}},
		}}, nil
	case query.OpIn:
		if pred.Subquery != nil {
			// Delegated to the subquery translator; this WHERE translator
			// returns an empty match, per spec §4.W.
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$in": valuesOf(pred.List)}}, nil
	case query.OpNotIn:
		if pred.Subquery != nil {
			return bson.M{}, nil
		}
		return bson.M{field: bson.M{"$nin": valuesOf(pred.List)}}, nil
	case query.OpIsNull:
		return bson.M{field: nil}, nil
	case query.OpIsNotNull:
		return bson.M{field: bson.M{"$ne": nil}}, nil
	case query.OpExists, query.OpNotExists:
		// Delegated entirely to the subquery translator's $lookup + size
		// check; this WHERE translator contributes no match of its own.
		return bson.M{}, nil
	default:
		panic("where: unhandled predicate operator")
	}
}

func valueOf(v query.Value) interface{} {
	switch v.Kind {
	case query.ValNull:
		return nil
	case query.ValBool:
		return v.Bool
	case query.ValInt:
		return v.Int
	case query.ValFloat:
		return v.Float
	case query.ValStr:
		return v.Str
	case query.ValFieldRef:
		return "$" + v.Field
	case query.ValExpr:
		return v.Expr
	default:
		panic("where: unhandled value kind")
	}
}

func valuesOf(vs []query.Value) bson.A {
	out := make(bson.A, 0, len(vs))
	for _, v := range vs {
		out = append(out, valueOf(v))
	}
	return out
}
