package rules

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Pipeline step names used as rule statistics keys.
const (
	RuleCollisions    = "collisions"
	RuleDoorClearance = "door_clearance"
	RulePairClearance = "pair_clearance"
	RuleRelations     = "relations"
	RuleSoft          = "soft"
)

// RuleStat counts how often a pipeline step ran and how often it changed the
// layout. Items is the number of item changes it made in total.
type RuleStat struct {
	Calls int `json:"calls"`
	Hits  int `json:"hits"`
	Items int `json:"items"`
}

func (s RuleStat) add(o RuleStat) RuleStat {
	return RuleStat{Calls: s.Calls + o.Calls, Hits: s.Hits + o.Hits, Items: s.Items + o.Items}
}

// record notes one run of step that produced step report r.
func (r *Report) record(step string, o Report) {
	if r.Rules == nil {
		r.Rules = make(map[string]RuleStat)
	}
	st := RuleStat{Calls: 1, Items: len(o.Removed) + len(o.Moved) + len(o.Rotated) + len(o.Synthesized)}
	if st.Items > 0 {
		st.Hits = 1
	}
	r.Rules[step] = r.Rules[step].add(st)
	r.merge(o)
}

// Stats accumulates rule statistics across engines and goroutines.
type Stats struct {
	mu    sync.Mutex
	rules map[string]RuleStat
}

// NewStats returns an empty collector.
func NewStats() *Stats {
	return &Stats{rules: make(map[string]RuleStat)}
}

// Add folds one report's counters into s. A nil Stats ignores the call.
func (s *Stats) Add(counts map[string]RuleStat) {
	if s == nil || len(counts) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, st := range counts {
		s.rules[name] = s.rules[name].add(st)
	}
}

// Snapshot returns a copy of the counters so far.
func (s *Stats) Snapshot() map[string]RuleStat {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]RuleStat, len(s.rules))
	for name, st := range s.rules {
		out[name] = st
	}
	return out
}

// LogStats writes one debug line per rule, in name order.
func LogStats(logger *log.Logger, counts map[string]RuleStat) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := counts[name]
		logger.Debug("rule stats", "rule", name, "calls", st.Calls, "hits", st.Hits, "items", st.Items)
	}
}
