package join

import "context"

// NestedLoopJoin compares every left entry with every right entry.
//
// Matches are emitted in left-major scan order, so the output is fully
// determined by the scan order of the inputs. Time is O(|L|·|R|); no extra
// space is needed beyond the output.
type NestedLoopJoin struct{}

// NewNestedLoopJoin creates a nested-loop executor.
func NewNestedLoopJoin() *NestedLoopJoin {
	return &NestedLoopJoin{}
}

// Strategy returns NestedLoop.
func (*NestedLoopJoin) Strategy() Strategy { return NestedLoop }

// Execute joins in.Left with in.Right on byte-exact value equality.
func (*NestedLoopJoin) Execute(ctx context.Context, in Input) (*Output, error) {
	e := newEmitter(ctx, in)
	if e.full() {
		return e.out, nil
	}

	for _, l := range in.Left {
		for _, r := range in.Right {
			if l.Value != r.Value {
				continue
			}
			if err := e.emit(l.Key, r.Key); err != nil {
				return nil, err
			}
			if e.full() {
				return e.out, nil
			}
		}
	}
	return e.out, nil
}
