package join

import (
	"testing"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildInnerJoinPipeline(t *testing.T) {
	joins := []query.JoinOp{{
		Kind:       query.JoinInner,
		LeftTable:  "customers",
		RightTable: "orders",
		Conditions: []query.JoinCond{{LeftTable: "c", LeftCol: "customerNumber", Op: "=", RightTable: "o", RightCol: "customerNumber"}},
	}}
	res, err := Build("customers", "c", joins)
	require.NoError(t, err)
	require.Len(t, res.Pipeline, 3)
	require.Equal(t, bson.D{{Key: "$lookup", Value: bson.M{
		"from": "orders", "localField": "customerNumber", "foreignField": "customerNumber", "as": "orders_joined",
	}}}, res.Pipeline[0])
	require.Equal(t, "", res.Aliases["c"])
	require.Equal(t, "orders_joined", res.Aliases["orders"])
}

func TestBuildLeftJoinPreservesEmptyArrays(t *testing.T) {
	joins := []query.JoinOp{{
		Kind:       query.JoinLeft,
		RightTable: "orders",
		Conditions: []query.JoinCond{{LeftTable: "customers", LeftCol: "customerNumber", RightCol: "customerNumber"}},
	}}
	res, err := Build("customers", "", joins)
	require.NoError(t, err)
	unwind := res.Pipeline[1][0]
	require.Equal(t, "$unwind", unwind.Key)
	doc := unwind.Value.(bson.M)
	require.Equal(t, true, doc["preserveNullAndEmptyArrays"])
}

func TestOptimizeMergesConsecutiveMatches(t *testing.T) {
	pipeline := []bson.D{
		{{Key: "$match", Value: bson.M{"a": 1}}},
		{{Key: "$match", Value: bson.M{"b": 2}}},
		{{Key: "$lookup", Value: bson.M{}}},
	}
	out := Optimize(pipeline)
	require.Len(t, out, 2)
	require.Equal(t, bson.M{"a": 1, "b": 2}, out[0][0].Value)
}
