package translator

import (
	"testing"

	"github.com/mongosql-go/mongosql/internal/parser"
	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func translate(t *testing.T, sql string) *query.Request {
	t.Helper()
	q, err := parser.Parse(sql)
	require.NoError(t, err)
	req, err := Translate(q)
	require.NoError(t, err)
	return req
}

func TestTranslatePlainFindPluralisesCollection(t *testing.T) {
	req := translate(t, "SELECT customerName FROM customer WHERE country = 'USA'")
	require.Equal(t, query.ReqFind, req.Kind)
	require.Equal(t, "customers", req.Collection)
	require.Equal(t, []string{"customerName"}, req.PreserveColumnOrder)
	require.Equal(t, "USA", req.Filter["country"])
}

func TestTranslateNoFromYieldsEval(t *testing.T) {
	req := translate(t, "SELECT 1 + 1 AS total")
	require.Equal(t, query.ReqEval, req.Kind)
	require.Equal(t, []string{"total"}, req.PreserveColumnOrder)
	require.Contains(t, req.EvalProjection, "total")
}

func TestTranslateAggregateGroupBy(t *testing.T) {
	req := translate(t, "SELECT city, COUNT(*) AS total FROM customers GROUP BY city")
	require.Equal(t, query.ReqAggregate, req.Kind)
	require.Equal(t, "customers", req.Collection)
	require.NotEmpty(t, req.Pipeline)
	require.Equal(t, "$group", req.Pipeline[0][0].Key)
}

func TestTranslateJoinProducesLookup(t *testing.T) {
	req := translate(t, "SELECT o.orderNumber FROM orders o JOIN customers c ON o.customerNumber = c.customerNumber")
	require.Equal(t, query.ReqAggregate, req.Kind)
	require.Equal(t, "orders", req.Collection)
	var sawLookup bool
	for _, stage := range req.Pipeline {
		if stage[0].Key == "$lookup" {
			sawLookup = true
		}
	}
	require.True(t, sawLookup)
}

func TestTranslateWindowFunctionUsesSetWindowFields(t *testing.T) {
	req := translate(t, "SELECT customerNumber, ROW_NUMBER() OVER (ORDER BY creditLimit DESC) AS rn FROM customers")
	require.Equal(t, query.ReqAggregate, req.Kind)
	require.Equal(t, "$setWindowFields", req.Pipeline[0][0].Key)
	stage, ok := req.Pipeline[0][0].Value.(bson.M)
	require.True(t, ok)
	output, ok := stage["output"].(bson.M)
	require.True(t, ok)
	require.Contains(t, output, "rn")
}

func TestTranslateDistinctSingleColumn(t *testing.T) {
	req := translate(t, "SELECT DISTINCT city FROM customers")
	require.Equal(t, query.ReqDistinct, req.Kind)
	require.Equal(t, "city", req.DistinctField)
}

func TestTranslateInsertUpdateDelete(t *testing.T) {
	req := translate(t, "INSERT INTO customer (customerName) VALUES ('Acme')")
	require.Equal(t, query.ReqInsertOne, req.Kind)
	require.Equal(t, "customers", req.Collection)

	req = translate(t, "UPDATE customer SET creditLimit = 2000 WHERE customerNumber = 103")
	require.Equal(t, query.ReqUpdateMany, req.Kind)
	require.Equal(t, bson.M{"$set": bson.M{"creditLimit": int64(2000)}}, req.UpdateDoc)

	req = translate(t, "DELETE FROM customer WHERE customerNumber = 103")
	require.Equal(t, query.ReqDeleteMany, req.Kind)
}

func TestTranslateShowAndUse(t *testing.T) {
	req := translate(t, "SHOW DATABASES")
	require.Equal(t, query.ReqShowDatabases, req.Kind)

	req = translate(t, "USE classicmodels")
	require.Equal(t, query.ReqUseDatabase, req.Kind)
	require.Equal(t, "classicmodels", req.Database)
}

func TestTranslateDerivedFromSubquery(t *testing.T) {
	req := translate(t, "SELECT t.total FROM (SELECT customerNumber, COUNT(*) AS total FROM orders GROUP BY customerNumber) AS t WHERE t.total > 5")
	require.Equal(t, query.ReqAggregate, req.Kind)
	require.Equal(t, "orders", req.Collection)

	require.Equal(t, "$limit", req.Pipeline[0][0].Key)
	require.Equal(t, "$lookup", req.Pipeline[1][0].Key)
	require.Equal(t, "$unwind", req.Pipeline[2][0].Key)
	require.Equal(t, "$replaceRoot", req.Pipeline[3][0].Key)

	var sawMatch bool
	for _, stage := range req.Pipeline {
		if stage[0].Key == "$match" {
			sawMatch = true
			doc, ok := stage[0].Value.(bson.M)
			require.True(t, ok)
			require.Contains(t, doc, "total")
		}
	}
	require.True(t, sawMatch)
}

func TestTranslateScalarSubqueryInWhereOmitsSpuriousNullMatch(t *testing.T) {
	req := translate(t, "SELECT customerName FROM customers WHERE customerNumber = (SELECT MAX(customerNumber) FROM orders)")
	require.Equal(t, query.ReqAggregate, req.Kind)

	var matchDocs []bson.M
	for _, stage := range req.Pipeline {
		if stage[0].Key == "$match" {
			doc, ok := stage[0].Value.(bson.M)
			require.True(t, ok)
			matchDocs = append(matchDocs, doc)
		}
	}
	require.Len(t, matchDocs, 1, "only the subquery's own $expr match should be present")
	require.Contains(t, matchDocs[0], "$expr")
	require.NotContains(t, matchDocs[0], "customerNumber")
}

func TestCollectionNameHonoursResolverOverride(t *testing.T) {
	SetCollectionResolver(func(table string) (string, bool) {
		if table == "customer" {
			return "legacy_customers", true
		}
		return "", false
	})
	defer SetCollectionResolver(nil)

	require.Equal(t, "legacy_customers", collectionName("customer"))
	require.Equal(t, "orders", collectionName("order"))
}
