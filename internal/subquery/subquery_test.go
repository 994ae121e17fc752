package subquery

import (
	"testing"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/where"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildInListEmitsLookupAndMatch(t *testing.T) {
	sub := query.Subquery{
		Kind:       query.SubInList,
		OuterField: "customerNumber",
		InnerSQL:   "SELECT customerNumber FROM orders WHERE orderDate > '2004-01-01'",
	}
	res, err := Build(sub, 0, where.AliasMap{}, false)
	require.NoError(t, err)
	require.Len(t, res.Stages, 3)
	lookup, ok := res.Stages[0][0].Value.(bson.M)
	require.True(t, ok)
	require.Equal(t, "orders", lookup["from"])
}

func TestBuildScalarSelectPositionOnlyEmitsLookup(t *testing.T) {
	sub := query.Subquery{
		Kind:       query.SubScalar,
		OuterField: "customerNumber",
		InnerSQL:   "SELECT MAX(orderDate) FROM orders",
	}
	res, err := Build(sub, 0, where.AliasMap{}, true)
	require.NoError(t, err)
	require.Len(t, res.Stages, 1)
	require.NotEmpty(t, res.OutputName)
}

func TestBuildExistsUsesSizeCheck(t *testing.T) {
	sub := query.Subquery{
		Kind:     query.SubExists,
		InnerSQL: "SELECT 1 FROM orders WHERE orders.customerNumber = customers.customerNumber",
	}
	res, err := Build(sub, 0, where.AliasMap{}, false)
	require.NoError(t, err)
	require.Len(t, res.Stages, 3)
	matchDoc, ok := res.Stages[1][0].Value.(bson.M)
	require.True(t, ok)
	expr, ok := matchDoc["$expr"].(bson.M)
	require.True(t, ok)
	_, hasGt := expr["$gt"]
	require.True(t, hasGt)
}
