package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCurrencyColumn(t *testing.T) {
	require.True(t, IsCurrencyColumn("creditLimit"))
	require.True(t, IsCurrencyColumn("amount"))
	require.False(t, IsCurrencyColumn("customerName"))
}
