package join

import "context"

// HashJoin builds a bucket table over the left (build) side keyed by the
// 32-bit hash of the join value, then probes it with every right entry.
//
// Distinct values can share a hash, so a bucket hit is only a candidate: the
// raw values are compared again before a pair is emitted.
//
// Matches are emitted in right-major scan order, and in left scan order
// within a bucket. Time is O(|L| + |R| + matches), space O(|L|).
type HashJoin struct {
	seed uint32
	hash func(data []byte, seed uint32) uint32
}

// NewHashJoin creates a hash-join executor using Hash32 with the given seed.
func NewHashJoin(seed uint32) *HashJoin {
	return &HashJoin{seed: seed, hash: Hash32}
}

// Strategy returns Hash.
func (*HashJoin) Strategy() Strategy { return Hash }

// Execute joins in.Left with in.Right.
func (hj *HashJoin) Execute(ctx context.Context, in Input) (*Output, error) {
	e := newEmitter(ctx, in)
	if e.full() {
		return e.out, nil
	}

	buckets := hj.build(in)

	for _, r := range in.Right {
		candidates, ok := buckets[hj.hash([]byte(r.Value), hj.seed)]
		if !ok {
			continue
		}
		for _, pos := range candidates {
			l := in.Left[pos]
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

// build maps hash -> positions in in.Left.
func (hj *HashJoin) build(in Input) map[uint32][]int {
	buckets := make(map[uint32][]int, len(in.Left))
	for i, l := range in.Left {
		h := hj.hash([]byte(l.Value), hj.seed)
		buckets[h] = append(buckets[h], i)
	}
	return buckets
}
