package functions

// RegexpSelectExpr builds the SELECT-position projection for a REGEXP/
// RLIKE/NOT REGEXP infix expression, per spec §4.F: MariaDB returns 1/0,
// so the result is an integer-valued $cond, not a boolean.
func RegexpSelectExpr(left, pattern string, negate bool) interface{} {
	match := M{"$regexMatch": M{"input": FieldExpr(left), "regex": pattern, "options": "i"}}
	cond := M{"$cond": A{match, 1, 0}}
	if negate {
		cond = M{"$cond": A{match, 0, 1}}
	}
	return cond
}

// RegexpMatchDoc builds the WHERE/HAVING-position match document for a
// REGEXP/RLIKE/NOT REGEXP predicate.
func RegexpMatchDoc(field, pattern string, negate bool) M {
	cond := M{"$regex": pattern, "$options": "i"}
	if negate {
		return M{field: M{"$not": cond}}
	}
	return M{field: cond}
}

// LikeToRegex converts a LIKE pattern into the equivalent anchored regex,
// escaping regex metacharacters and replacing SQL's %/_ wildcards with
// .*/. respectively — spec §8 invariant 7.
func LikeToRegex(pattern string) string {
	out := make([]byte, 0, len(pattern)*2)
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch ch {
		case '%':
			out = append(out, '.', '*')
		case '_':
			out = append(out, '.')
		case '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			out = append(out, '\\', ch)
		default:
			out = append(out, ch)
		}
	}
	return "^" + string(out) + "$"
}
