package verify

import "time"

// Category is one ordered group of verification test cases.
type Category string

const (
	// CategoryStructure checks that required files and directories exist
	CategoryStructure Category = "structure"
	// CategoryRuntime checks that the embedded interpreter executes and
	// core modules import
	CategoryRuntime Category = "runtime"
	// CategoryCLI checks the launcher's command surface
	CategoryCLI Category = "cli"
	// CategoryPlatform checks OS-dependent behaviors
	CategoryPlatform Category = "platform"
	// CategoryComponents checks prefetched optional component availability
	CategoryComponents Category = "components"
	// CategoryIntegration compiles a throwaway sample with the embedded
	// interpreter
	CategoryIntegration Category = "integration"
)

// Categories returns all categories in their fixed execution order.
func Categories() []Category {
	return []Category{
		CategoryStructure,
		CategoryRuntime,
		CategoryCLI,
		CategoryPlatform,
		CategoryComponents,
		CategoryIntegration,
	}
}

// CaseResult is the recorded outcome of one executed test case.
type CaseResult struct {
	Name     string
	Category Category
	Passed   bool

	// TimedOut distinguishes a predicate that exceeded its time budget
	// from a normal assertion failure
	TimedOut bool

	Output   string
	Duration time.Duration
}

// Report aggregates the results of one verification run. Each run owns its
// own report; results are never accumulated in shared state.
type Report struct {
	results []CaseResult
}

// Add records one case result.
func (r *Report) Add(result CaseResult) {
	r.results = append(r.results, result)
}

// Total returns the number of executed cases.
func (r *Report) Total() int {
	return len(r.results)
}

// Passed returns the number of passing cases.
func (r *Report) Passed() int {
	n := 0
	for _, result := range r.results {
		if result.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing cases, timeouts included.
func (r *Report) Failed() int {
	return r.Total() - r.Passed()
}

// Results returns all recorded results in execution order.
func (r *Report) Results() []CaseResult {
	out := make([]CaseResult, len(r.results))
	copy(out, r.results)
	return out
}

// PerCategory groups results by category, preserving execution order within
// each group.
func (r *Report) PerCategory() map[Category][]CaseResult {
	grouped := make(map[Category][]CaseResult)
	for _, result := range r.results {
		grouped[result.Category] = append(grouped[result.Category], result)
	}
	return grouped
}

// Failures returns only the failing cases.
func (r *Report) Failures() []CaseResult {
	var failures []CaseResult
	for _, result := range r.results {
		if !result.Passed {
			failures = append(failures, result)
		}
	}
	return failures
}

// ExitCode is 0 exactly when no executed case failed, independent of how
// many categories were skipped.
func (r *Report) ExitCode() int {
	if r.Failed() == 0 {
		return 0
	}
	return 1
}
