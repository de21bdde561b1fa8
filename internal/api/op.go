package api

// Op identifies one operation on the surface.
type Op string

// The full operation surface. Adding an op means adding a handler in
// newHandlers and an argument schema; unknown names never reach a
// handler.
const (
	OpRunCode          Op = "run_code"
	OpLoadData         Op = "load_data"
	OpSetDeveloperMode Op = "set_developer_mode"
	OpCurrentState     Op = "current_state"
	OpMoveStep         Op = "move_step"
	OpSetPage          Op = "set_page"
	OpGetSolution      Op = "get_solution"
	OpSubmitFeedback   Op = "submit_feedback"
)

// Ops lists every operation, for introspection and the serve command's
// routing table.
func Ops() []Op {
	return []Op{
		OpRunCode,
		OpLoadData,
		OpSetDeveloperMode,
		OpCurrentState,
		OpMoveStep,
		OpSetPage,
		OpGetSolution,
		OpSubmitFeedback,
	}
}

// ParseOp resolves an operation name. Unknown names are caller errors
// at the dispatch boundary.
func ParseOp(name string) (Op, bool) {
	op := Op(name)
	switch op {
	case OpRunCode, OpLoadData, OpSetDeveloperMode, OpCurrentState,
		OpMoveStep, OpSetPage, OpGetSolution, OpSubmitFeedback:
		return op, true
	}
	return "", false
}
