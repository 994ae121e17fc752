// Package render holds the small pieces of the result-rendering contract
// spec §6 names explicitly even though the renderer itself (bordered ASCII
// tables, tab-separated piped output) is an out-of-scope external
// collaborator: the currency-column allowlist a renderer needs to decide
// which numeric columns get two-decimal formatting, grounded on the
// original's src/utils/schema.py.
package render

// CurrencyColumns is the fixed allowlist of column names the external
// renderer formats with two decimal places, per spec §6.
var CurrencyColumns = map[string]bool{
	"creditLimit": true,
	"buyPrice":    true,
	"MSRP":        true,
	"priceEach":   true,
	"amount":      true,
}

// IsCurrencyColumn reports whether name is in the fixed allowlist.
func IsCurrencyColumn(name string) bool {
	return CurrencyColumns[name]
}
