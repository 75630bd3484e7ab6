package timeline

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Params tunes the selection engine.
type Params struct {
	Window           time.Duration
	ExhaustionMargin time.Duration
	TailMargin       time.Duration
	// MarginRatio: the loudest source is chosen only when loudest*MarginRatio
	// exceeds the runner-up.
	MarginRatio  float64
	MaxUnfocused int
	MaxFocused   int
	// Sentinel stands in for the runner-up when no second source has a value.
	Sentinel float64
}

// DefaultParams returns the stock engine parameters.
func DefaultParams() Params {
	return Params{
		Window:           5 * time.Second,
		ExhaustionMargin: 5 * time.Second,
		TailMargin:       11 * time.Second,
		MarginRatio:      0.05,
		MaxUnfocused:     2,
		MaxFocused:       2,
		Sentinel:         -100,
	}
}

// Validate reports unusable parameters.
func (p Params) Validate() error {
	switch {
	case p.Window <= 0:
		return errors.New("selection window must be positive")
	case p.ExhaustionMargin < 0 || p.TailMargin < 0:
		return errors.New("selection margins must be >= 0")
	case p.MarginRatio < 0:
		return errors.New("selection margin ratio must be >= 0")
	case p.MaxUnfocused < 0 || p.MaxFocused < 0:
		return errors.New("selection counters must be >= 0")
	}
	return nil
}

// Rule names the decision that produced a segment.
type Rule int

const (
	RuleBootstrap Rule = iota
	RuleExhaustion
	RuleTail
	RuleDeFocus
	RuleDominant
	RuleDefault
)

func (r Rule) String() string {
	switch r {
	case RuleBootstrap:
		return "bootstrap"
	case RuleExhaustion:
		return "exhaustion"
	case RuleTail:
		return "tail"
	case RuleDeFocus:
		return "defocus"
	case RuleDominant:
		return "dominant"
	case RuleDefault:
		return "default"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// SelectionState is threaded through the fold. Unfocused counts consecutive
// reference windows chosen by de-focus or default; Focused counts consecutive
// dominant-speaker windows.
type SelectionState struct {
	Unfocused int
	Focused   int
}

// Input is everything the engine needs for one program.
type Input struct {
	// Sources[0] is the reference.
	Sources []Source
	Levels  Levels
	DeFocus []DeFocusWindow
	Lead    time.Duration
}

// Engine evaluates windows of one program.
type Engine struct {
	params   Params
	input    Input
	total    time.Duration
	windows  int
	shortEnd []time.Duration
}

// NewEngine validates p and in and precomputes the program length.
func NewEngine(p Params, in Input) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(in.Sources) == 0 {
		return nil, errors.New("selection needs at least the reference source")
	}
	if in.Sources[ReferenceIndex].Offset != 0 {
		return nil, fmt.Errorf("reference offset must be 0, got %s", in.Sources[ReferenceIndex].Offset)
	}
	for i, src := range in.Sources {
		if src.Index != i {
			return nil, fmt.Errorf("source %d carries index %d", i, src.Index)
		}
	}
	total := in.Sources[ReferenceIndex].AlignedDuration(in.Lead)
	if total <= 0 {
		return nil, errors.New("reference has no program time after the lead")
	}

	e := &Engine{
		params:  p,
		input:   in,
		total:   total,
		windows: int((total + p.Window - 1) / p.Window),
	}
	for _, src := range in.Sources[1:] {
		if d := src.AlignedDuration(in.Lead); d < total {
			e.shortEnd = append(e.shortEnd, d)
		}
	}
	return e, nil
}

// Windows returns the number of windows, ceil(total/window).
func (e *Engine) Windows() int {
	return e.windows
}

// Total returns the program length, the aligned duration of the reference.
func (e *Engine) Total() time.Duration {
	return e.total
}

// Step decides window i given the state after window i-1. It returns the
// next state, the window's segment and the rule that fired.
func (e *Engine) Step(state SelectionState, i int) (SelectionState, Segment, Rule) {
	p := e.params
	sec := time.Duration(i) * p.Window
	seg := Segment{Source: ReferenceIndex, Start: sec, Duration: min(p.Window, e.total-sec)}

	if i == 0 {
		return state, seg, RuleBootstrap
	}

	for _, end := range e.shortEnd {
		if end-p.ExhaustionMargin < sec && sec < end+p.ExhaustionMargin {
			return state, seg, RuleExhaustion
		}
	}

	if sec > e.total-p.TailMargin {
		return state, seg, RuleTail
	}

	if state.Unfocused < p.MaxUnfocused && e.inDeFocus(sec) {
		return SelectionState{Unfocused: state.Unfocused + 1}, seg, RuleDeFocus
	}

	if state.Focused < p.MaxFocused {
		if src, ok := e.dominant(i); ok {
			seg.Source = src
			return SelectionState{Focused: state.Focused + 1}, seg, RuleDominant
		}
	}

	return SelectionState{Unfocused: state.Unfocused + 1}, seg, RuleDefault
}

func (e *Engine) inDeFocus(t time.Duration) bool {
	for _, w := range e.input.DeFocus {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

type ranked struct {
	source int
	level  float64
}

// dominant ranks non-reference sources with a defined level in window i.
func (e *Engine) dominant(i int) (int, bool) {
	candidates := make([]ranked, 0, len(e.input.Sources)-1)
	for _, src := range e.input.Sources[1:] {
		if level, ok := e.input.Levels.Level(src.Index, i); ok {
			candidates = append(candidates, ranked{source: src.Index, level: level})
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].level > candidates[b].level
	})

	first := candidates[0]
	second := e.params.Sentinel
	if len(candidates) > 1 {
		second = candidates[1].level
	}
	onlyPerson := len(e.input.Sources) == 2
	if onlyPerson || first.level*e.params.MarginRatio > second {
		return first.source, true
	}
	return 0, false
}

// Plan is the outcome of Select: one segment and one rule per window.
type Plan struct {
	Segments []Segment
	Rules    []Rule
	Total    time.Duration
}

// RuleCounts tallies how often each rule fired.
func (p Plan) RuleCounts() map[Rule]int {
	counts := make(map[Rule]int, 6)
	for _, r := range p.Rules {
		counts[r]++
	}
	return counts
}

// Select folds Step over every window of the reference.
func Select(p Params, in Input) (Plan, error) {
	e, err := NewEngine(p, in)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{
		Segments: make([]Segment, 0, e.windows),
		Rules:    make([]Rule, 0, e.windows),
		Total:    e.total,
	}
	var state SelectionState
	for i := 0; i < e.windows; i++ {
		var seg Segment
		var rule Rule
		state, seg, rule = e.Step(state, i)
		plan.Segments = append(plan.Segments, seg)
		plan.Rules = append(plan.Rules, rule)
	}
	return plan, nil
}
