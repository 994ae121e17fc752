package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeSimpleSelect(t *testing.T) {
	toks, err := Tokenize(`SELECT id, name FROM customers WHERE id = 1`)
	require.NoError(t, err)

	var kinds []Kind
	var texts []string
	for _, tk := range toks {
		if tk.Kind == EOF {
			break
		}
		kinds = append(kinds, tk.Kind)
		texts = append(texts, tk.Text)
	}

	require.Equal(t, []string{"SELECT", "id", ",", "name", "FROM", "customers", "WHERE", "id", "=", "1"}, texts)
	require.Equal(t, DMLKeyword, kinds[0])
	require.Equal(t, Keyword, kinds[4])
	require.Equal(t, Comparison, kinds[8])
	require.Equal(t, Number, kinds[9])
}

func TestTokenizeMultiWordKeywords(t *testing.T) {
	toks, err := Tokenize(`SELECT a FROM t1 LEFT JOIN t2 ON t1.id = t2.id GROUP BY a ORDER BY a`)
	require.NoError(t, err)

	var texts []string
	for _, tk := range toks {
		if tk.Kind == EOF {
			break
		}
		texts = append(texts, tk.Text)
	}
	require.Contains(t, texts, "LEFT JOIN")
	require.Contains(t, texts, "GROUP BY")
	require.Contains(t, texts, "ORDER BY")
}

func TestTokenizeIsNullAndNotIn(t *testing.T) {
	toks, err := Tokenize(`WHERE a IS NULL AND b NOT IN (1, 2)`)
	require.NoError(t, err)

	var texts []string
	for _, tk := range toks {
		if tk.Kind == EOF {
			break
		}
		texts = append(texts, tk.Text)
	}
	require.Contains(t, texts, "IS NULL")
	require.Contains(t, texts, "NOT IN")
}

func TestTokenizeStringLiteralsAndEscapes(t *testing.T) {
	toks, err := Tokenize(`WHERE name = 'O''Brien' AND tag = "a\"b"`)
	require.NoError(t, err)

	var strs []Token
	for _, tk := range toks {
		if tk.Kind == String {
			strs = append(strs, tk)
		}
	}
	require.Len(t, strs, 2)
	require.Equal(t, `O'Brien`, strs[0].Text)
	require.Equal(t, `a"b`, strs[1].Text)
}

func TestTokenizeBacktickIdentifierPreservesCase(t *testing.T) {
	toks, err := Tokenize("SELECT `Order`, `weird col` FROM `My Table`")
	require.NoError(t, err)

	var names []Token
	for _, tk := range toks {
		if tk.Kind == Name {
			names = append(names, tk)
		}
	}
	require.Equal(t, "Order", names[0].Text)
	require.Equal(t, "weird col", names[1].Text)
	require.Equal(t, "My Table", names[2].Text)
}

func TestTokenizeStripsComments(t *testing.T) {
	toks, err := Tokenize("SELECT a -- trailing comment\nFROM t /* block\ncomment */ WHERE a = 1 # hash comment")
	require.NoError(t, err)

	var texts []string
	for _, tk := range toks {
		if tk.Kind == EOF {
			continue
		}
		texts = append(texts, tk.Text)
	}
	require.Equal(t, []string{"SELECT", "a", "FROM", "t", "WHERE", "a", "=", "1"}, texts)
}

func TestTokenizeNumbers(t *testing.T) {
	toks, err := Tokenize(`WHERE a = 3.14 AND b = .5 AND c = 2e10 AND d = 42`)
	require.NoError(t, err)

	var nums []string
	for _, tk := range toks {
		if tk.Kind == Number {
			nums = append(nums, tk.Text)
		}
	}
	require.Equal(t, []string{"3.14", ".5", "2e10", "42"}, nums)
}

func TestTokenizeOperators(t *testing.T) {
	toks, err := Tokenize(`a <> b AND c != d AND e <= f AND g >= h AND i -> 'x' AND j ->> 'y'`)
	require.NoError(t, err)

	var ops []string
	for _, tk := range toks {
		if tk.Kind == Comparison || tk.Kind == Operator {
			if tk.Text == "AND" {
				continue
			}
			ops = append(ops, tk.Text)
		}
	}
	require.Contains(t, ops, "<>")
	require.Contains(t, ops, "!=")
	require.Contains(t, ops, "<=")
	require.Contains(t, ops, ">=")
	require.Contains(t, ops, "->")
	require.Contains(t, ops, "->>")
}

func TestTokenizeUnterminatedStringIsError(t *testing.T) {
	_, err := Tokenize(`SELECT * FROM t WHERE a = 'unterminated`)
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
}
