package rules

import (
	"regexp"
	"strings"
)

// Check identifiers for the plan phase.
const (
	CheckPlanSections = "plan-sections"
	CheckPlanContent  = "plan-content"
)

// PlanRequiredSections are the headings every plan must contain.
var PlanRequiredSections = []string{
	"Architecture",
	"API Contracts",
	"Data Model",
	"Tech Decisions",
	"Security & Edge Cases",
}

// sectionBoundary matches level-1 and level-2 headings. Deeper headings
// belong to the body of the section above them.
var sectionBoundary = regexp.MustCompile(`^#{1,2}[ \t]`)

// EvaluatePlan runs the plan-phase checks.
func EvaluatePlan(content string) []Result {
	return []Result{
		checkPlanSections(content),
		checkPlanContent(content),
	}
}

func checkPlanSections(content string) Result {
	const name = "Required sections"

	missing := missingHeadings(content, PlanRequiredSections)
	if len(missing) > 0 {
		return fail(CheckPlanSections, name, "Missing sections: "+joinList(missing))
	}
	return pass(CheckPlanSections, name)
}

func checkPlanContent(content string) Result {
	const name = "Section content"

	bodies := sectionBodies(content)
	var empty []string
	for _, heading := range PlanRequiredSections {
		found, filled := false, false
		for title, body := range bodies {
			if !hasLevel2Heading("## "+title, heading) {
				continue
			}
			found = true
			if strings.TrimSpace(body) != "" {
				filled = true
			}
		}
		// Absent headings are reported by plan-sections.
		if found && !filled {
			empty = append(empty, heading)
		}
	}

	if len(empty) > 0 {
		return fail(CheckPlanContent, name, "Sections without content: "+joinList(empty))
	}
	return pass(CheckPlanContent, name)
}

// sectionBodies maps each level-2 heading title to the text between it and
// the next level-1 or level-2 heading. When a heading repeats, the first
// non-empty body wins.
func sectionBodies(content string) map[string]string {
	bodies := make(map[string]string)

	var (
		current string
		open    bool
		body    strings.Builder
	)
	flush := func() {
		if !open {
			return
		}
		if prev, ok := bodies[current]; !ok || strings.TrimSpace(prev) == "" {
			bodies[current] = body.String()
		}
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if sectionBoundary.MatchString(line) {
			flush()
			open = strings.HasPrefix(line, "##")
			current = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}
		if open {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}
	flush()

	return bodies
}
