package functions

import "strings"

// JSONPathSegment is one step of a parsed MariaDB-style JSON path
// ($.a.b[2].c): either an object Key or array Index (mutually exclusive).
type JSONPathSegment struct {
	Key      string
	Index    int
	IsIndex  bool
}

// ParseJSONPath parses a path like "$.a.b[2].c" into its key/index
// sequence, per the GLOSSARY's "JSON path" definition.
func ParseJSONPath(path string) []JSONPathSegment {
	path = strings.TrimPrefix(path, "$")
	var segs []JSONPathSegment
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			if i > start {
				segs = append(segs, JSONPathSegment{Key: path[start:i]})
			}
		case '[':
			i++
			start := i
			for i < len(path) && path[i] != ']' {
				i++
			}
			idx := 0
			for _, ch := range path[start:i] {
				idx = idx*10 + int(ch-'0')
			}
			segs = append(segs, JSONPathSegment{Index: idx, IsIndex: true})
			i++ // skip ']'
		default:
			i++
		}
	}
	return segs
}

// jsonPathExpr builds a $getField/$arrayElemAt chain navigating field
// through the parsed path segments.
func jsonPathExpr(field interface{}, path string) interface{} {
	expr := field
	for _, seg := range ParseJSONPath(path) {
		if seg.IsIndex {
			expr = M{"$arrayElemAt": A{expr, seg.Index}}
		} else {
			expr = M{"$getField": M{"field": seg.Key, "input": expr}}
		}
	}
	return expr
}

func registerJSON() {
	register(FamilyJSON, []string{"JSON_EXTRACT"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "JSON_EXTRACT"}
		}
		path, _ := StripQuotes(strings.TrimSpace(args[1]))
		return jsonPathExpr(FieldExpr(args[0]), path), nil
	})

	register(FamilyJSON, []string{"JSON_UNQUOTE"}, func(args []string) (interface{}, error) {
		return M{"$toString": FieldExpr(args[0])}, nil
	})

	register(FamilyJSON, []string{"JSON_KEYS"}, func(args []string) (interface{}, error) {
		return M{"$map": M{
			"input": M{"$objectToArray": FieldExpr(args[0])},
			"as":    "kv",
			"in":    "$$kv.k",
		}}, nil
	})

	register(FamilyJSON, []string{"JSON_LENGTH"}, func(args []string) (interface{}, error) {
		return M{"$size": M{"$objectToArray": FieldExpr(args[0])}}, nil
	})

	register(FamilyJSON, []string{"JSON_OBJECT"}, func(args []string) (interface{}, error) {
		allLiteral := true
		for _, a := range args {
			if !IsLiteral(a) {
				allLiteral = false
				break
			}
		}
		if allLiteral {
			var b strings.Builder
			b.WriteByte('{')
			for i := 0; i+1 < len(args); i += 2 {
				if i > 0 {
					b.WriteByte(',')
				}
				k, _ := StripQuotes(strings.TrimSpace(args[i]))
				v, quoted := StripQuotes(strings.TrimSpace(args[i+1]))
				b.WriteByte('"')
				b.WriteString(k)
				b.WriteString(`":`)
				if quoted {
					b.WriteByte('"')
					b.WriteString(v)
					b.WriteByte('"')
				} else {
					b.WriteString(v)
				}
			}
			b.WriteByte('}')
			return M{"$literal": b.String()}, nil
		}
		parts := A{}
		for i := 0; i+1 < len(args); i += 2 {
			k, _ := StripQuotes(strings.TrimSpace(args[i]))
			parts = append(parts, "\""+k+"\":", FieldExpr(args[i+1]))
		}
		return M{"$concat": append(A{"{"}, append(parts, "}")...)}, nil
	})

	register(FamilyJSON, []string{"JSON_ARRAY"}, func(args []string) (interface{}, error) {
		parts := make(A, 0, len(args))
		for _, a := range args {
			parts = append(parts, FieldExpr(a))
		}
		return parts, nil
	})

	register(FamilyJSON, []string{"JSON_SET", "JSON_REPLACE"}, func(args []string) (interface{}, error) {
		if len(args) != 3 {
			return nil, &UnknownFunctionError{Name: "JSON_SET"}
		}
		path, _ := StripQuotes(strings.TrimSpace(args[1]))
		segs := ParseJSONPath(path)
		key := path
		if len(segs) > 0 && !segs[len(segs)-1].IsIndex {
			key = segs[len(segs)-1].Key
		}
		return M{"$setField": M{
			"field": key,
			"input": FieldExpr(args[0]),
			"value": FieldExpr(args[2]),
		}}, nil
	})

	register(FamilyJSON, []string{"JSON_MERGE"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "JSON_MERGE"}
		}
		return M{"$mergeObjects": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})

	register(FamilyJSON, []string{"JSON_SEARCH"}, func(args []string) (interface{}, error) {
		if len(args) < 2 {
			return nil, &UnknownFunctionError{Name: "JSON_SEARCH"}
		}
		return M{"$jsonSearch": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})
}
