package functions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitArgsRespectsParensAndQuotes(t *testing.T) {
	got := SplitArgs(`a, CONCAT(b, ','), 'x, y'`)
	require.Equal(t, []string{"a", "CONCAT(b, ',')", "'x, y'"}, got)
}

func TestCountStarSumsOne(t *testing.T) {
	spec, err := BuildAggregate("COUNT", []string{"*"})
	require.NoError(t, err)
	require.Equal(t, "$sum", spec.Operator)
	require.Equal(t, 1, spec.Value)
}

func TestCountFieldUsesCondNotNull(t *testing.T) {
	spec, err := BuildAggregate("COUNT", []string{"email"})
	require.NoError(t, err)
	require.Equal(t, "$sum", spec.Operator)
	expr, ok := spec.Value.(M)
	require.True(t, ok)
	require.Contains(t, expr, "$cond")
}

func TestStddevRequestsRounding(t *testing.T) {
	spec, err := BuildAggregate("STDDEV", []string{"amount"})
	require.NoError(t, err)
	require.Equal(t, "stddev_round", spec.PostProcess)
	require.Equal(t, 6, spec.Precision)
}

func TestUpperLowerBuild(t *testing.T) {
	h, _, ok := Lookup("UPPER")
	require.True(t, ok)
	expr, err := h([]string{"name"})
	require.NoError(t, err)
	require.Equal(t, M{"$toUpper": "$name"}, expr)
}

func TestLikeToRegexEscapesMetacharacters(t *testing.T) {
	require.Equal(t, `^a\.b.*c.$`, LikeToRegex("a.b%c_"))
}

func TestSoundex(t *testing.T) {
	require.Equal(t, "R163", Soundex("Robert"))
}

func TestFormatNumberGroupsThousands(t *testing.T) {
	require.Equal(t, "1,234,567.89", FormatNumber(1234567.891, 2))
}

func TestDateFormatTranslatesSpecifiers(t *testing.T) {
	require.Equal(t, "%Y-%m-%d", TranslateDateFormat("%Y-%m-%d"))
	require.Equal(t, "%B %d, %Y", TranslateDateFormat("%M %d, %Y"))
}

func TestIsAggregateAuthoritative(t *testing.T) {
	require.True(t, IsAggregate("GROUP_CONCAT"))
	require.True(t, IsAggregate("COUNT"))
	require.False(t, IsAggregate("UPPER"))
}

func TestUnknownFunctionErrors(t *testing.T) {
	_, err := Build("NOT_A_FUNCTION", nil)
	require.Error(t, err)
}

func TestNtileUsesBucketCountArgument(t *testing.T) {
	expr, err := Build("NTILE", []string{"4"})
	require.NoError(t, err)
	require.Equal(t, M{"$ntile": 4}, expr)
}

func TestGroupConcatDefaultsToCommaSeparator(t *testing.T) {
	spec, err := BuildAggregate("GROUP_CONCAT", []string{"name"})
	require.NoError(t, err)
	require.Equal(t, ",", spec.Separator)
	require.Equal(t, "", spec.OrderBy)
	require.Equal(t, "$push", spec.Operator)
}

func TestGroupConcatParsesSeparatorAndOrderBy(t *testing.T) {
	spec, err := BuildAggregate("GROUP_CONCAT", []string{"name ORDER BY age DESC SEPARATOR '-'"})
	require.NoError(t, err)
	require.Equal(t, "-", spec.Separator)
	require.Equal(t, "age", spec.OrderBy)
	require.True(t, spec.Desc)
	require.Equal(t, "$name", spec.Value)
}

func TestGroupConcatDistinctWithOrderByAscending(t *testing.T) {
	spec, err := BuildAggregate("GROUP_CONCAT", []string{"DISTINCT name ORDER BY name ASC"})
	require.NoError(t, err)
	require.True(t, spec.Distinct)
	require.Equal(t, "$addToSet", spec.Operator)
	require.Equal(t, "name", spec.OrderBy)
	require.False(t, spec.Desc)
	require.Equal(t, ",", spec.Separator)
}
