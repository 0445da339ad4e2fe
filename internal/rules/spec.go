package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Check identifiers for the spec phase.
const (
	CheckSpecEARS        = "spec-ears"
	CheckSpecSections    = "spec-sections"
	CheckSpecPerformance = "spec-performance"
)

// SpecRequiredSections are the headings every spec must contain.
var SpecRequiredSections = []string{
	"Priority",
	"Rationale",
	"Main Flow",
	"Validation Rules",
	"Error Handling",
}

var (
	// requirementLine matches a line opening with a bolded requirement id,
	// optionally as a list item: "**FR-001**: ..." or "- **NFR-2** ...".
	requirementLine = regexp.MustCompile(`^\s*(?:[-*]\s+)?\*\*((?:FR|NFR|REQ)-\d+)\*\*`)

	earsKeyword = regexp.MustCompile(`\b(?:WHEN|THEN|SHALL|WHERE|IF)\b`)

	performanceHeading = regexp.MustCompile(`(?m)^#{1,6}[ \t]+.*\bPerformance\b`)

	performanceKeyword = regexp.MustCompile(
		`(?i)\b(?:performance|latency|throughput|response time|p95|p99|requests per second|rps|milliseconds|concurrent users)\b`,
	)
)

// EvaluateSpec runs the spec-phase checks.
func EvaluateSpec(content string) []Result {
	return []Result{
		checkEARS(content),
		checkSpecSections(content),
		checkPerformance(content),
	}
}

func checkEARS(content string) Result {
	const name = "EARS requirement syntax"

	total := 0
	var lacking []string
	for _, line := range strings.Split(content, "\n") {
		m := requirementLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		total++
		if !earsKeyword.MatchString(line) {
			lacking = append(lacking, m[1])
		}
	}

	if total == 0 {
		return fail(CheckSpecEARS, name,
			"No requirements found. Write requirements as bolded ids (e.g. **FR-001**) using WHEN/THEN/SHALL/WHERE/IF.")
	}
	if len(lacking) > 0 {
		return fail(CheckSpecEARS, name,
			fmt.Sprintf("Requirements missing an EARS keyword (WHEN, THEN, SHALL, WHERE, IF): %s", joinList(lacking)))
	}
	return pass(CheckSpecEARS, name)
}

func checkSpecSections(content string) Result {
	const name = "Required sections"

	missing := missingHeadings(content, SpecRequiredSections)
	if len(missing) > 0 {
		return fail(CheckSpecSections, name, "Missing sections: "+joinList(missing))
	}
	return pass(CheckSpecSections, name)
}

func checkPerformance(content string) Result {
	const name = "Performance target"

	if performanceHeading.MatchString(content) || performanceKeyword.MatchString(content) {
		return pass(CheckSpecPerformance, name)
	}
	return fail(CheckSpecPerformance, name,
		"No performance target found. Add a Performance section or state latency/throughput expectations.")
}
