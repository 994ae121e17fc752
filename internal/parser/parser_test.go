package parser

import (
	"testing"

	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleSelect(t *testing.T) {
	q, err := Parse("SELECT customerName, creditLimit FROM customers WHERE country = 'USA' ORDER BY customerName LIMIT 10")
	require.NoError(t, err)
	require.Equal(t, query.StmtSelect, q.Kind)
	require.Equal(t, "customers", q.FromTable)
	require.Len(t, q.Columns, 2)
	require.Equal(t, query.ColPlain, q.Columns[0].Kind)
	require.Equal(t, "customerName", q.Columns[0].Name)

	require.NotNil(t, q.Where)
	require.Equal(t, query.PredSimple, q.Where.Kind)
	require.Equal(t, "country", q.Where.Field)

	require.Len(t, q.OrderBy, 1)
	require.Equal(t, "customerName", q.OrderBy[0].Field)
	require.False(t, q.OrderBy[0].Desc)

	require.NotNil(t, q.Limit)
	require.Equal(t, int64(10), q.Limit.Count)
}

func TestParseSelectStar(t *testing.T) {
	q, err := Parse("SELECT * FROM orders")
	require.NoError(t, err)
	require.Len(t, q.Columns, 1)
	require.Equal(t, query.ColStar, q.Columns[0].Kind)
}

func TestParseAggregateWithGroupBy(t *testing.T) {
	q, err := Parse("SELECT city, COUNT(*) AS total FROM customers GROUP BY city HAVING COUNT(*) > 5")
	require.NoError(t, err)
	require.True(t, q.HasAggregateColumn())
	require.Equal(t, []string{"city"}, q.GroupBy)
	require.Equal(t, "COUNT(*) > 5", q.HavingRaw)

	require.Len(t, q.Columns, 2)
	fn := q.Columns[1]
	require.Equal(t, query.ColFunction, fn.Kind)
	require.Equal(t, "COUNT", fn.FuncName)
	require.True(t, fn.IsAggregate)
	require.Equal(t, "total", fn.Alias)
}

func TestParseJoinChain(t *testing.T) {
	q, err := Parse("SELECT o.orderNumber, c.customerName FROM orders o JOIN customers c ON o.customerNumber = c.customerNumber")
	require.NoError(t, err)
	require.True(t, q.HasJoins())
	require.Len(t, q.Joins, 1)
	require.Equal(t, "customers", q.Joins[0].RightTable)
	require.Equal(t, "c", q.Joins[0].RightAlias)
}

func TestParseWindowFunction(t *testing.T) {
	q, err := Parse("SELECT customerNumber, ROW_NUMBER() OVER (ORDER BY creditLimit DESC) AS rn FROM customers")
	require.NoError(t, err)
	require.True(t, q.HasWindowColumn())
	win := q.Columns[1]
	require.True(t, win.IsWindow)
	require.Equal(t, "ROW_NUMBER", win.FuncName)
	require.NotNil(t, win.WindowSpec)
	require.Len(t, win.WindowSpec.OrderBy, 1)
	require.True(t, win.WindowSpec.OrderBy[0].Desc)
}

func TestParseInsertUpdateDeleteShowUse(t *testing.T) {
	q, err := Parse("INSERT INTO customers (customerName, creditLimit) VALUES ('Acme', 1000)")
	require.NoError(t, err)
	require.Equal(t, query.StmtInsert, q.Kind)
	require.Equal(t, "customers", q.InsertTable)
	require.Equal(t, []string{"customerName", "creditLimit"}, q.InsertColumns)
	require.Len(t, q.InsertRows, 1)

	q, err = Parse("UPDATE customers SET creditLimit = 2000 WHERE customerNumber = 103")
	require.NoError(t, err)
	require.Equal(t, query.StmtUpdate, q.Kind)
	require.Equal(t, "customers", q.UpdateTable)

	q, err = Parse("DELETE FROM customers WHERE customerNumber = 103")
	require.NoError(t, err)
	require.Equal(t, query.StmtDelete, q.Kind)
	require.Equal(t, "customers", q.DeleteTable)

	q, err = Parse("SHOW DATABASES")
	require.NoError(t, err)
	require.Equal(t, query.StmtShow, q.Kind)

	q, err = Parse("USE classicmodels")
	require.NoError(t, err)
	require.Equal(t, query.StmtUse, q.Kind)
	require.Equal(t, "classicmodels", q.UseDatabase)
}

func TestParseDerivedTableInFrom(t *testing.T) {
	q, err := Parse("SELECT t.total FROM (SELECT customerNumber, COUNT(*) AS total FROM orders GROUP BY customerNumber) AS t WHERE t.total > 5")
	require.NoError(t, err)
	require.NotNil(t, q.FromSubquery)
	require.Equal(t, query.SubDerived, q.FromSubquery.Kind)
	require.Equal(t, "t", q.FromAlias)
	require.Equal(t, "t", q.FromSubquery.Alias)
	require.Contains(t, q.FromSubquery.InnerSQL, "GROUP BY customerNumber")
	require.Len(t, q.Subqueries, 1)

	require.NotNil(t, q.Where)
	require.Equal(t, "t.total", q.Where.Field)
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	_, err := Parse("EXPLAIN SELECT 1")
	require.Error(t, err)
}
