package validation

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"dnsc/internal/catalog"
	"dnsc/internal/dnscerr"
	"dnsc/internal/snapshot"
)

// Report is the frozen output of one validation run: issues partitioned by
// severity and sorted by (severity, code, element_ref, message) within each
// partition for bitwise-stable output.
type Report struct {
	Blockers []AreaIssue
	Warnings []AreaIssue
	Infos    []AreaIssue
}

// IsBlocked reports whether the run found at least one blocker.
func (r Report) IsBlocked() bool { return len(r.Blockers) > 0 }

// All returns every issue across all three severities, in the same sorted
// order the per-severity slices already carry (blockers, then warnings,
// then infos).
func (r Report) All() []AreaIssue {
	out := make([]AreaIssue, 0, len(r.Blockers)+len(r.Warnings)+len(r.Infos))
	out = append(out, r.Blockers...)
	out = append(out, r.Warnings...)
	out = append(out, r.Infos...)
	return out
}

// Engine evaluates Registry's fixed rule set against a snapshot.
type Engine struct{}

// NewEngine builds a validation Engine. It holds no state: every rule is a
// pure function of its arguments, so one Engine value is safe for any
// number of concurrent Validate calls.
func NewEngine() *Engine { return &Engine{} }

// Validate fans Registry's rules out across goroutines (each rule is a pure
// read of snap/reg, so no rule can observe another's result) and collects
// every emitted issue into a single, deterministically sorted Report.
// Concurrency never leaks into output order: results are always re-sorted
// after the fan-in.
func (e *Engine) Validate(ctx context.Context, snap *snapshot.Snapshot, reg *catalog.Registry) (Report, error) {
	results := make([][]dnscerr.Issue, len(Registry))
	g, _ := errgroup.WithContext(ctx)
	for i, rule := range Registry {
		i, rule := i, rule
		g.Go(func() error {
			results[i] = rule.Func(snap, reg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	var blockers, warnings, infos []AreaIssue
	for i := range Registry {
		for _, issue := range results[i] {
			ai := AreaIssue{Issue: issue, Area: areaOf(issue.Code)}
			switch SeverityOf(issue.Code) {
			case SeverityWarning:
				warnings = append(warnings, ai)
			case SeverityInfo:
				infos = append(infos, ai)
			default:
				blockers = append(blockers, ai)
			}
		}
	}
	sortIssues(blockers)
	sortIssues(warnings)
	sortIssues(infos)
	return Report{Blockers: blockers, Warnings: warnings, Infos: infos}, nil
}

func sortIssues(issues []AreaIssue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.ElementRef != b.ElementRef {
			return a.ElementRef < b.ElementRef
		}
		return a.Message < b.Message
	})
}
