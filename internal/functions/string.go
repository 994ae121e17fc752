package functions

import "strings"

func registerString() {
	register(FamilyString, []string{"CONCAT"}, func(args []string) (interface{}, error) {
		parts := make(A, 0, len(args))
		for _, a := range args {
			parts = append(parts, FieldExpr(strings.TrimSpace(a)))
		}
		return M{"$concat": parts}, nil
	})

	substring := func(args []string) (interface{}, error) {
		if len(args) < 2 {
			return nil, &UnknownFunctionError{Name: "SUBSTRING"}
		}
		str := FieldExpr(args[0])
		start := numericLiteral(strings.TrimSpace(args[1]))
		zeroBased := M{"$subtract": A{start, 1}}
		if len(args) == 3 {
			length := numericLiteral(strings.TrimSpace(args[2]))
			return M{"$substrCP": A{str, zeroBased, length}}, nil
		}
		return M{"$substrCP": A{str, zeroBased, M{"$strLenCP": str}}}, nil
	}
	register(FamilyString, []string{"SUBSTRING", "SUBSTR", "MID"}, substring)

	register(FamilyString, []string{"LENGTH", "CHAR_LENGTH", "CHARACTER_LENGTH"}, func(args []string) (interface{}, error) {
		return M{"$strLenCP": FieldExpr(args[0])}, nil
	})

	register(FamilyString, []string{"UPPER", "UCASE"}, func(args []string) (interface{}, error) {
		return M{"$toUpper": FieldExpr(args[0])}, nil
	})
	register(FamilyString, []string{"LOWER", "LCASE"}, func(args []string) (interface{}, error) {
		return M{"$toLower": FieldExpr(args[0])}, nil
	})

	register(FamilyString, []string{"TRIM"}, func(args []string) (interface{}, error) {
		return M{"$trim": M{"input": FieldExpr(args[0])}}, nil
	})
	register(FamilyString, []string{"LTRIM"}, func(args []string) (interface{}, error) {
		return M{"$ltrim": M{"input": FieldExpr(args[0])}}, nil
	})
	register(FamilyString, []string{"RTRIM"}, func(args []string) (interface{}, error) {
		return M{"$rtrim": M{"input": FieldExpr(args[0])}}, nil
	})

	register(FamilyString, []string{"REPLACE"}, func(args []string) (interface{}, error) {
		if len(args) != 3 {
			return nil, &UnknownFunctionError{Name: "REPLACE"}
		}
		return M{"$replaceAll": M{
			"input":       FieldExpr(args[0]),
			"find":        FieldExpr(args[1]),
			"replacement": FieldExpr(args[2]),
		}}, nil
	})

	register(FamilyString, []string{"LEFT"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "LEFT"}
		}
		return M{"$substrCP": A{FieldExpr(args[0]), 0, numericLiteral(strings.TrimSpace(args[1]))}}, nil
	})

	register(FamilyString, []string{"RIGHT"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "RIGHT"}
		}
		str := FieldExpr(args[0])
		n := numericLiteral(strings.TrimSpace(args[1]))
		start := M{"$subtract": A{M{"$strLenCP": str}, n}}
		return M{"$substrCP": A{str, start, n}}, nil
	})

	instr := func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "INSTR"}
		}
		idx := M{"$indexOfCP": A{FieldExpr(args[0]), FieldExpr(args[1])}}
		return M{"$add": A{idx, 1}}, nil
	}
	register(FamilyString, []string{"INSTR", "LOCATE", "POSITION"}, instr)

	register(FamilyString, []string{"STRCMP"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "STRCMP"}
		}
		return M{"$cmp": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})

	// REVERSE/REPEAT/SPACE have no native MongoDB aggregation equivalent;
	// the translator emits these marker operators only for literal input
	// columns, and internal/eval interprets them client-side (spec §9).
	register(FamilyString, []string{"REVERSE"}, func(args []string) (interface{}, error) {
		return M{"$reverse": FieldExpr(args[0])}, nil
	})
	register(FamilyString, []string{"REPEAT"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "REPEAT"}
		}
		return M{"$repeat": A{FieldExpr(args[0]), numericLiteral(strings.TrimSpace(args[1]))}}, nil
	})
	register(FamilyString, []string{"SPACE"}, func(args []string) (interface{}, error) {
		if len(args) != 1 {
			return nil, &UnknownFunctionError{Name: "SPACE"}
		}
		return M{"$space": numericLiteral(strings.TrimSpace(args[0]))}, nil
	})
}
