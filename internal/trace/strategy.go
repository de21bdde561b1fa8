package trace

// RefStrategy chooses which registered call a submission's trace-lookup
// reference points at.
//
// The selection rule for "the" call of a submission is genuinely open:
// the executor payload carries no parent links, so the top-level call
// cannot be identified reliably. Strategies make the choice pluggable;
// LastCall is the default and is known-incomplete for multi-call traces.
type RefStrategy interface {
	// Select returns the chosen call id, or false when there is no call
	// to reference.
	Select(callIDs []int64) (int64, bool)
}

// LastCall selects the last registered call.
//
// Known limitation: with nested or multiple calls this is not necessarily
// the top-level call. Kept as the default until the executor payload
// carries enough structure to pick correctly.
type LastCall struct{}

// Select implements RefStrategy.
func (LastCall) Select(callIDs []int64) (int64, bool) {
	if len(callIDs) == 0 {
		return 0, false
	}
	return callIDs[len(callIDs)-1], true
}

// FirstCall selects the first registered call. Useful where the executor
// is known to emit the outermost call first.
type FirstCall struct{}

// Select implements RefStrategy.
func (FirstCall) Select(callIDs []int64) (int64, bool) {
	if len(callIDs) == 0 {
		return 0, false
	}
	return callIDs[0], true
}
