package functions

import "strings"

// WindowOutput holds a $setWindowFields "output" expression; the sortBy
// document is built by the translator, not here. PARTITION BY is
// recognised syntactically elsewhere but never emitted here (spec §9).
type WindowOutput struct {
	Output interface{}
}

func registerWindow() {
	register(FamilyWindow, []string{"ROW_NUMBER"}, func(args []string) (interface{}, error) {
		return M{"$documentNumber": M{}}, nil
	})
	register(FamilyWindow, []string{"RANK"}, func(args []string) (interface{}, error) {
		return M{"$rank": M{}}, nil
	})
	register(FamilyWindow, []string{"DENSE_RANK"}, func(args []string) (interface{}, error) {
		return M{"$denseRank": M{}}, nil
	})
	register(FamilyWindow, []string{"NTILE"}, func(args []string) (interface{}, error) {
		if len(args) != 1 {
			return nil, &UnknownFunctionError{Name: "NTILE"}
		}
		n := int(toFloat(numericLiteral(strings.TrimSpace(args[0]))))
		return M{"$ntile": n}, nil
	})
	register(FamilyWindow, []string{"LAG"}, func(args []string) (interface{}, error) {
		return buildShift(args, -1)
	})
	register(FamilyWindow, []string{"LEAD"}, func(args []string) (interface{}, error) {
		return buildShift(args, 1)
	})
}

func buildShift(args []string, sign int) (interface{}, error) {
	if len(args) == 0 {
		return nil, &UnknownFunctionError{Name: "LAG/LEAD"}
	}
	shift := M{"output": FieldExpr(args[0])}
	offset := 1
	if len(args) >= 2 {
		offset = int(toFloat(numericLiteral(strings.TrimSpace(args[1]))))
	}
	shift["by"] = offset * sign
	if len(args) >= 3 {
		shift["default"] = FieldExpr(args[2])
	}
	return M{"$shift": shift}, nil
}
