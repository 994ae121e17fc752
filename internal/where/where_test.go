package where

import (
	"testing"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestTranslateSimpleEquals(t *testing.T) {
	pred := query.Simple("country", query.OpEq, query.StrVal("France"))
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{"country": "France"}, doc)
}

func TestTranslateBetween(t *testing.T) {
	pred := query.Predicate{Kind: query.PredSimple, Field: "amount", Op: query.OpBetween, Value: query.IntVal(10), Upper: query.IntVal(20)}
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{"amount": bson.M{"$gte": int64(10), "$lte": int64(20)}}, doc)
}

func TestTranslateIsNull(t *testing.T) {
	pred := query.Simple("deletedAt", query.OpIsNull, query.Null())
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{"deletedAt": nil}, doc)
}

func TestTranslateCompoundAnd(t *testing.T) {
	p1 := query.Simple("a", query.OpEq, query.IntVal(1))
	p2 := query.Simple("b", query.OpEq, query.IntVal(2))
	pred := query.Compound(query.LogicalAnd, p1, p2)
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{"$and": bson.A{
		bson.M{"a": int64(1)},
		bson.M{"b": int64(2)},
	}}, doc)
}

func TestTranslateLikeBuildsAnchoredRegex(t *testing.T) {
	pred := query.Simple("name", query.OpLike, query.StrVal("Jo%n_"))
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{"name": bson.M{"$regex": "^Jo.*n.$", "$options": "i"}}, doc)
}

func TestTranslateInWithSubqueryDelegatesEmpty(t *testing.T) {
	pred := query.Predicate{
		Kind: query.PredSimple, Field: "customerNumber", Op: query.OpIn,
		Subquery: &query.Subquery{Kind: query.SubInList},
	}
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{}, doc)
}

func TestTranslateEqWithSubqueryDelegatesEmpty(t *testing.T) {
	pred := query.Predicate{
		Kind: query.PredSimple, Field: "customerNumber", Op: query.OpEq,
		Subquery: &query.Subquery{Kind: query.SubScalar},
	}
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{}, doc)
}

func TestTranslateRowSubqueryEqDelegatesEmpty(t *testing.T) {
	pred := query.Predicate{
		Kind: query.PredSimple, Field: "a,b", Op: query.OpEq,
		Subquery: &query.Subquery{Kind: query.SubRow},
	}
	doc, err := Translate(&pred, nil)
	require.NoError(t, err)
	require.Equal(t, bson.M{}, doc)
}

func TestTranslateComparisonSubqueryDelegatesEmpty(t *testing.T) {
	for _, op := range []query.PredOp{query.OpNe, query.OpLt, query.OpLte, query.OpGt, query.OpGte} {
		pred := query.Predicate{
			Kind: query.PredSimple, Field: "amount", Op: op,
			Subquery: &query.Subquery{Kind: query.SubScalar},
		}
		doc, err := Translate(&pred, nil)
		require.NoError(t, err)
		require.Equal(t, bson.M{}, doc, "op %v", op)
	}
}

func TestAliasMapRewritesQualifiedField(t *testing.T) {
	aliases := AliasMap{"c": "", "o": "orders_joined"}
	require.Equal(t, "customerName", aliases.FieldPath("c.customerName"))
	require.Equal(t, "orders_joined.orderDate", aliases.FieldPath("o.orderDate"))
}
