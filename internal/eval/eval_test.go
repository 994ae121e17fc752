package eval

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEvalLiteralArithmeticKeepsIntType(t *testing.T) {
	expr := bson.M{"$add": bson.A{int64(1), int64(1)}}
	require.Equal(t, int64(2), Eval(expr))
}

func TestEvalDivisionAlwaysReturnsFloat(t *testing.T) {
	expr := bson.M{"$divide": bson.A{int64(10), int64(4)}}
	require.Equal(t, 2.5, Eval(expr))
}

func TestEvalConcat(t *testing.T) {
	expr := bson.M{"$concat": bson.A{"a", "b", "c"}}
	require.Equal(t, "abc", Eval(expr))
}

func TestEvalCondTrueBranch(t *testing.T) {
	expr := bson.M{"$cond": bson.M{
		"if":   bson.M{"$eq": bson.A{int64(1), int64(1)}},
		"then": "yes",
		"else": "no",
	}}
	require.Equal(t, "yes", Eval(expr))
}

func TestEvalDateToStringFormatsSpecifiers(t *testing.T) {
	expr := bson.M{"$dateToString": bson.M{
		"format": "%Y-%m-%d",
		"date":   bson.M{"$dateFromString": bson.M{"dateString": "2024-01-15 14:30:45"}},
	}}
	require.Equal(t, "2024-01-15", Eval(expr))
}

func TestEvalYearExtractsFromLiteralDate(t *testing.T) {
	dateExpr := bson.M{"$dateFromString": bson.M{"dateString": "2024-01-15"}}
	require.Equal(t, int64(2024), Eval(bson.M{"$year": dateExpr}))
	require.Equal(t, int64(1), Eval(bson.M{"$month": dateExpr}))
	require.Equal(t, int64(15), Eval(bson.M{"$dayOfMonth": dateExpr}))
}

func TestEvalUnknownOperatorDegradesDiagnostically(t *testing.T) {
	got := Eval(bson.M{"$notARealOperator": "x"})
	require.Equal(t, "$notARealOperator", got)
}

func TestRowDegradesBadCellToNilWithoutFailingOthers(t *testing.T) {
	proj := map[string]interface{}{
		"ok":  bson.M{"$add": bson.A{int64(1), int64(2)}},
		"bad": bson.M{"$substrCP": bson.A{"only-one-arg"}},
	}
	row := Row(proj, []string{"ok", "bad"})
	require.Equal(t, int64(3), row["ok"])
	require.Nil(t, row["bad"])
}

func TestRoundPreservesIntegerInputType(t *testing.T) {
	require.Equal(t, int64(4), Eval(bson.M{"$round": bson.A{int64(4), int64(0)}}))
	require.InDelta(t, 3.14, Eval(bson.M{"$round": bson.A{3.14159, int64(2)}}), 0.001)
}
