package functions

import "strings"

func registerMath() {
	unary := func(op string) Handler {
		return func(args []string) (interface{}, error) {
			if len(args) != 1 {
				return nil, &UnknownFunctionError{Name: op}
			}
			return M{op: FieldExpr(args[0])}, nil
		}
	}

	register(FamilyMath, []string{"ABS"}, unary("$abs"))
	register(FamilyMath, []string{"CEIL", "CEILING"}, unary("$ceil"))
	register(FamilyMath, []string{"FLOOR"}, unary("$floor"))
	register(FamilyMath, []string{"SQRT"}, unary("$sqrt"))
	register(FamilyMath, []string{"SIN"}, unary("$sin"))
	register(FamilyMath, []string{"COS"}, unary("$cos"))
	register(FamilyMath, []string{"TAN"}, unary("$tan"))
	register(FamilyMath, []string{"LOG", "LN"}, unary("$ln"))
	register(FamilyMath, []string{"EXP"}, unary("$exp"))
	register(FamilyMath, []string{"SIGN"}, unary("$sign"))
	register(FamilyMath, []string{"RADIANS"}, unary("$degreesToRadians"))
	register(FamilyMath, []string{"DEGREES"}, unary("$radiansToDegrees"))

	register(FamilyMath, []string{"ROUND"}, func(args []string) (interface{}, error) {
		if len(args) == 1 {
			return M{"$round": A{FieldExpr(args[0]), 0}}, nil
		}
		return M{"$round": A{FieldExpr(args[0]), numericLiteral(strings.TrimSpace(args[1]))}}, nil
	})

	register(FamilyMath, []string{"POW", "POWER"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "POW"}
		}
		return M{"$pow": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})

	register(FamilyMath, []string{"GREATEST"}, func(args []string) (interface{}, error) {
		parts := make(A, 0, len(args))
		for _, a := range args {
			parts = append(parts, FieldExpr(a))
		}
		return M{"$max": parts}, nil
	})
	register(FamilyMath, []string{"LEAST"}, func(args []string) (interface{}, error) {
		parts := make(A, 0, len(args))
		for _, a := range args {
			parts = append(parts, FieldExpr(a))
		}
		return M{"$min": parts}, nil
	})

	register(FamilyMath, []string{"MOD"}, func(args []string) (interface{}, error) {
		if len(args) != 2 {
			return nil, &UnknownFunctionError{Name: "MOD"}
		}
		return M{"$mod": A{FieldExpr(args[0]), FieldExpr(args[1])}}, nil
	})

	register(FamilyMath, []string{"PI"}, func(args []string) (interface{}, error) {
		return 3.141592653589793, nil
	})
}
