package join

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapkv/internal/kvstore"
)

// Strategy identifies a join executor.
type Strategy int

// Available strategies. The zero value is NestedLoop, which is always correct.
const (
	NestedLoop Strategy = iota
	Hash
)

func (s Strategy) String() string {
	switch s {
	case Hash:
		return "hash"
	case NestedLoop:
		return "nested_loop"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "hash" and "nested_loop" (also "nested-loop", "nl").
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hash":
		return Hash, nil
	case "nested_loop", "nested-loop", "nestedloop", "nl":
		return NestedLoop, nil
	}
	return NestedLoop, invalid(ParamStrategy, "'hash' or 'nested_loop'", s)
}

// Criterion names one selector vote.
type Criterion string

// Selector criteria, in evaluation order.
const (
	CriterionSizeRatio   Criterion = "size-ratio"
	CriterionValueType   Criterion = "value-type"
	CriterionSelectivity Criterion = "selectivity"
)

// Vote is one criterion's choice and the measurement behind it.
type Vote struct {
	Criterion Criterion
	Choice    Strategy
	Reason    string
}

// Plan is the selector's decision.
type Plan struct {
	Strategy Strategy
	Votes    []Vote
	// Forced is set when the request named a strategy and the vote was overridden.
	Forced bool
}

// Tally counts the hash and nested-loop votes.
func (p Plan) Tally() (hash, nestedLoop int) {
	for _, v := range p.Votes {
		if v.Choice == Hash {
			hash++
		} else {
			nestedLoop++
		}
	}
	return hash, nestedLoop
}

// SelectorConfig holds the selector thresholds.
type SelectorConfig struct {
	// SizeRatioMin and SizeRatioMax bound count(left)/count(right) for a hash vote.
	SizeRatioMin float64
	SizeRatioMax float64
	// SelectivityThreshold is the rows-per-distinct-value ratio above which a
	// side counts as highly duplicated.
	SelectivityThreshold float64
}

// DefaultSelectorConfig returns the standard thresholds.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		SizeRatioMin:         0.5,
		SizeRatioMax:         2.0,
		SelectivityThreshold: 2.0,
	}
}

// Stats is the selector input.
type Stats struct {
	LeftCount  int
	RightCount int
	Left       kvstore.ScanResult
	Right      kvstore.ScanResult
}

// Selector picks a join strategy by majority vote over three criteria.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector creates a selector. Zero thresholds fall back to the defaults.
func NewSelector(cfg SelectorConfig) *Selector {
	def := DefaultSelectorConfig()
	if cfg.SizeRatioMin == 0 {
		cfg.SizeRatioMin = def.SizeRatioMin
	}
	if cfg.SizeRatioMax == 0 {
		cfg.SizeRatioMax = def.SizeRatioMax
	}
	if cfg.SelectivityThreshold == 0 {
		cfg.SelectivityThreshold = def.SelectivityThreshold
	}
	return &Selector{cfg: cfg}
}

// Select runs the vote. Hash wins only with strictly more votes; a tie goes to
// nested loop.
func (s *Selector) Select(stats Stats) Plan {
	votes := []Vote{
		s.sizeRatioVote(stats.LeftCount, stats.RightCount),
		valueTypeVote(stats.Left, stats.Right),
		s.selectivityVote(stats.Left, stats.Right),
	}

	plan := Plan{Strategy: NestedLoop, Votes: votes}
	if hash, nl := plan.Tally(); hash > nl {
		plan.Strategy = Hash
	}
	return plan
}

// Force overrides the voted strategy, keeping the votes for reporting.
func (p Plan) Force(strategy Strategy) Plan {
	p.Strategy = strategy
	p.Forced = true
	return p
}

func (s *Selector) sizeRatioVote(left, right int) Vote {
	v := Vote{Criterion: CriterionSizeRatio, Choice: NestedLoop}
	if right == 0 {
		v.Reason = fmt.Sprintf("right side has no rows (left %d)", left)
		return v
	}

	ratio := float64(left) / float64(right)
	v.Reason = fmt.Sprintf("ratio %.3f, hash range [%g, %g]", ratio, s.cfg.SizeRatioMin, s.cfg.SizeRatioMax)
	if ratio >= s.cfg.SizeRatioMin && ratio <= s.cfg.SizeRatioMax {
		v.Choice = Hash
	}
	return v
}

func valueTypeVote(left, right kvstore.ScanResult) Vote {
	for _, side := range []struct {
		name string
		scan kvstore.ScanResult
	}{{"left", left}, {"right", right}} {
		for _, c := range side.scan {
			if _, err := strconv.ParseInt(c.Value, 10, 64); err != nil {
				return Vote{
					Criterion: CriterionValueType,
					Choice:    NestedLoop,
					Reason:    fmt.Sprintf("%s value %q of row %q is not an integer", side.name, c.Value, c.Key),
				}
			}
		}
	}
	return Vote{Criterion: CriterionValueType, Choice: Hash, Reason: "all join values are integers"}
}

func (s *Selector) selectivityVote(left, right kvstore.ScanResult) Vote {
	ls, rs := Selectivity(left), Selectivity(right)
	v := Vote{
		Criterion: CriterionSelectivity,
		Choice:    Hash,
		Reason:    fmt.Sprintf("left %.3f, right %.3f, threshold %g", ls, rs, s.cfg.SelectivityThreshold),
	}
	if ls > s.cfg.SelectivityThreshold && rs > s.cfg.SelectivityThreshold {
		v.Choice = NestedLoop
	}
	return v
}

// Selectivity is rows per distinct join value; 0 for an empty scan.
func Selectivity(scan kvstore.ScanResult) float64 {
	if len(scan) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(scan))
	for _, c := range scan {
		distinct[c.Value] = struct{}{}
	}
	return float64(len(scan)) / float64(len(distinct))
}
