package groupby

import (
	"testing"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildCountStarNoGroupBy(t *testing.T) {
	q := &query.Query{
		Columns: []query.Column{{Kind: query.ColFunction, FuncName: "COUNT", ArgsText: "*", OriginalText: "COUNT(*)", IsAggregate: true}},
	}
	pipeline, err := Build(q, nil)
	require.NoError(t, err)
	require.Len(t, pipeline, 2)
	groupDoc := pipeline[0][0].Value.(bson.D)
	require.Equal(t, bson.E{Key: "_id", Value: nil}, groupDoc[0])
	require.Equal(t, "$project", pipeline[1][0].Key)
	require.Equal(t, bson.M{"_id": 0}, pipeline[1][0].Value)
}

func TestBuildGroupByCountryWithHaving(t *testing.T) {
	q := &query.Query{
		Columns: []query.Column{
			{Kind: query.ColPlain, Name: "country"},
			{Kind: query.ColFunction, FuncName: "COUNT", ArgsText: "*", OriginalText: "COUNT(*)", IsAggregate: true},
		},
		GroupBy:   []string{"country"},
		HavingRaw: "COUNT(*) > 10",
		OrderBy:   []query.OrderField{{Field: "country"}},
	}
	pipeline, err := Build(q, nil)
	require.NoError(t, err)

	require.Equal(t, "$group", pipeline[0][0].Key)
	require.Equal(t, "$match", pipeline[1][0].Key)
	require.Equal(t, bson.M{"COUNT(*)": bson.M{"$gt": int64(10)}}, pipeline[1][0].Value)
	require.Equal(t, "$sort", pipeline[2][0].Key)
}

func TestTranslateHavingShapes(t *testing.T) {
	doc, err := translateHaving("SUM(amount) >= 100")
	require.NoError(t, err)
	require.Equal(t, bson.M{"SUM(amount)": bson.M{"$gte": int64(100)}}, doc)
}

func TestBuildGroupConcatWithOrderByEmitsSortArrayAndReduce(t *testing.T) {
	q := &query.Query{
		Columns: []query.Column{
			{Kind: query.ColFunction, FuncName: "GROUP_CONCAT", ArgsText: "name ORDER BY age DESC SEPARATOR '-'",
				OriginalText: "GROUP_CONCAT(name ORDER BY age DESC SEPARATOR '-')", IsAggregate: true},
		},
	}
	pipeline, err := Build(q, nil)
	require.NoError(t, err)

	var sawSortArray, sawReduce bool
	key := "GROUP_CONCAT(name ORDER BY age DESC SEPARATOR '-')"
	for _, stage := range pipeline {
		if stage[0].Key != "$addFields" {
			continue
		}
		fields, ok := stage[0].Value.(bson.M)
		require.True(t, ok)
		if sorted, ok := fields[key+"__sorted"]; ok {
			sortArray, ok := sorted.(bson.M)["$sortArray"].(bson.M)
			require.True(t, ok)
			require.Equal(t, bson.M{"o": -1}, sortArray["sortBy"])
			sawSortArray = true
		}
		if reduced, ok := fields[key]; ok {
			reduce, ok := reduced.(bson.M)["$reduce"]
			require.True(t, ok)
			_ = reduce
			sawReduce = true
		}
	}
	require.True(t, sawSortArray, "expected a $sortArray $addFields stage")
	require.True(t, sawReduce, "expected a $reduce $addFields stage")
}

func TestBuildGroupConcatWithoutOrderByOmitsSortArray(t *testing.T) {
	q := &query.Query{
		Columns: []query.Column{
			{Kind: query.ColFunction, FuncName: "GROUP_CONCAT", ArgsText: "name",
				OriginalText: "GROUP_CONCAT(name)", IsAggregate: true},
		},
	}
	pipeline, err := Build(q, nil)
	require.NoError(t, err)

	for _, stage := range pipeline {
		if stage[0].Key != "$addFields" {
			continue
		}
		fields, ok := stage[0].Value.(bson.M)
		require.True(t, ok)
		for k := range fields {
			require.NotContains(t, k, "__sorted")
		}
	}
}
