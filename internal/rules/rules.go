// Package rules implements the static quality checks run against a phase's
// assembled markdown content.
//
// The checks are text conventions, not structural guarantees: they look for
// literal heading names, bolded requirement markers and checkbox task lines.
// Every evaluator is a pure function of its input and never panics, even on
// empty content. An empty document always yields at least one failing result
// so the caller can explain what is missing.
package rules

import (
	"regexp"
	"strings"
)

// Result is the outcome of a single check.
// Explanation is only filled in when Passed is false.
type Result struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Passed      bool   `json:"passed"`
	Explanation string `json:"explanation,omitempty"`
}

// Evaluator runs every check for one phase against assembled content.
type Evaluator func(content string) []Result

// evaluators maps phase names to their check sets.
var evaluators = map[string]Evaluator{
	"spec":  EvaluateSpec,
	"plan":  EvaluatePlan,
	"tasks": EvaluateTasks,
}

// ForPhase returns the evaluator for the given phase name, or nil when the
// phase is not recognized.
func ForPhase(phase string) Evaluator {
	return evaluators[phase]
}

// Summary counts passed checks.
func Summary(results []Result) (passed, total int) {
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return passed, len(results)
}

func pass(id, name string) Result {
	return Result{ID: id, Name: name, Passed: true}
}

func fail(id, name, explanation string) Result {
	return Result{ID: id, Name: name, Passed: false, Explanation: explanation}
}

// hasLevel2Heading reports whether content has a "## <name>" heading.
// Anything may follow the name on the same line ("## Priority: High").
func hasLevel2Heading(content, name string) bool {
	re := regexp.MustCompile(`(?m)^##[ \t]+` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(content)
}

// missingHeadings returns the names in required that have no level-2 heading.
func missingHeadings(content string, required []string) []string {
	var missing []string
	for _, name := range required {
		if !hasLevel2Heading(content, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
