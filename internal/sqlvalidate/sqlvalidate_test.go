package sqlvalidate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsOrdinarySelect(t *testing.T) {
	r := Validate("SELECT customerName FROM customers WHERE customerNumber = 103")
	require.True(t, r.Valid)
}

func TestValidateRejectsUnbalancedParens(t *testing.T) {
	r := Validate("SELECT COUNT(* FROM customers")
	require.False(t, r.Valid)
	require.NotEmpty(t, r.Err)
}

func TestValidateSkipsShowAndUse(t *testing.T) {
	require.True(t, Validate("SHOW DATABASES").Valid)
	require.True(t, Validate("USE classicmodels").Valid)
}
