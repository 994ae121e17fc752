package token

import "strings"

// dmlKeywords discriminate the statement kind from its first keyword token.
var dmlKeywords = map[string]bool{
	"SELECT": true,
	"INSERT": true,
	"UPDATE": true,
	"DELETE": true,
	"SHOW":   true,
	"USE":    true,
}

// clauseKeywords are recognised only at paren depth 0 by the parser; the
// lexer just tags them as keywords so the parser can switch on Text.
var clauseKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
	"OUTER": true, "CROSS": true, "ON": true, "AS": true, "DISTINCT": true,
	"CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"ASC": true, "DESC": true, "OVER": true, "PARTITION": true,
	"INSERT": true, "INTO": true, "VALUES": true, "UPDATE": true, "SET": true,
	"DELETE": true, "SHOW": true, "USE": true, "DATABASES": true,
	"TABLES": true, "COLLECTIONS": true, "EXISTS": true, "NULL": true,
	"TRUE": true, "FALSE": true,
}

// comparisonWords and logicalWords are keyword-shaped operators: IN, LIKE,
// BETWEEN, IS, REGEXP, RLIKE and AND, OR, NOT. classifyWord tags both sets
// as Comparison; the parser tells them apart by their Text.
var comparisonWords = map[string]bool{
	"IN": true, "LIKE": true, "BETWEEN": true, "IS": true,
	"REGEXP": true, "RLIKE": true,
}

var logicalWords = map[string]bool{
	"AND": true, "OR": true, "NOT": true,
}

func classifyWord(upper string) Kind {
	if dmlKeywords[upper] {
		return DMLKeyword
	}
	if clauseKeywords[upper] {
		return Keyword
	}
	if comparisonWords[upper] || logicalWords[upper] {
		return Comparison
	}
	return Name
}

// multiWord lists the two-word sequences scanWord folds into one token
// (GROUP BY, ORDER BY, NOT IN, NOT LIKE, NOT BETWEEN, NOT REGEXP, IS NULL,
// INNER/LEFT/RIGHT/CROSS/FULL JOIN, FULL OUTER) so the parser sees one token
// instead of reassembling. IS NOT NULL and LEFT/RIGHT OUTER JOIN are not
// folded; the parser consumes their words one token at a time.
var multiWord = map[string]string{
	"GROUP BY":  "GROUP BY",
	"ORDER BY":  "ORDER BY",
	"NOT IN":    "NOT IN",
	"NOT LIKE":  "NOT LIKE",
	"NOT BETWEEN": "NOT BETWEEN",
	"NOT REGEXP": "NOT REGEXP",
	"IS NULL":   "IS NULL",
	"INNER JOIN": "INNER JOIN",
	"LEFT JOIN": "LEFT JOIN",
	"RIGHT JOIN": "RIGHT JOIN",
	"CROSS JOIN": "CROSS JOIN",
	"FULL JOIN": "FULL JOIN",
	"FULL OUTER": "FULL OUTER",
}

func isWordStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordPart(ch byte) bool {
	return isWordStart(ch) || (ch >= '0' && ch <= '9')
}

func upper(s string) string { return strings.ToUpper(s) }
