package rules

import (
	"strings"
	"testing"
)

// --- helpers ---

func findResult(t *testing.T, results []Result, id string) Result {
	t.Helper()
	for _, r := range results {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("result %q not found in %+v", id, results)
	return Result{}
}

const completeSpec = `## Overview
A todo list for small teams.

## Requirements
**FR-001**: WHEN a user submits a task THEN the system SHALL store it.
**FR-002**: The system SHALL list tasks sorted by due date.

## Priority
High.

## Rationale
Teams lose track of work.

## Main Flow
User opens the app, adds a task, sees it listed.

## Validation Rules
Titles must be non-empty.

## Error Handling
Show an inline error when storage fails.

## Performance
List renders in under 200ms for 1000 tasks.`

const completePlan = `## Architecture
Single binary with an embedded database.

## API Contracts
POST /tasks creates a task.

## Data Model
Task(id, title, due).

## Tech Decisions
Go and SQLite.

## Security & Edge Cases
Titles are escaped before rendering.`

const completeTasks = `## Task Breakdown
- [ ] T1 Create schema in internal/store/schema.sql
- [ ] T2 Implement task API
  Dependencies: T1
- [x] T3 Write handler tests
  Dependencies: T1, T2`

// --- ForPhase / Summary ---

func TestForPhase_KnownPhases(t *testing.T) {
	for _, phase := range []string{"spec", "plan", "tasks"} {
		if ForPhase(phase) == nil {
			t.Errorf("ForPhase(%q) = nil, want evaluator", phase)
		}
	}
}

func TestForPhase_UnknownPhase(t *testing.T) {
	if ForPhase("design") != nil {
		t.Error("ForPhase(design) should be nil")
	}
}

func TestSummary(t *testing.T) {
	results := []Result{
		{ID: "a", Passed: true},
		{ID: "b", Passed: false},
		{ID: "c", Passed: true},
	}
	passed, total := Summary(results)
	if passed != 2 || total != 3 {
		t.Errorf("Summary = (%d, %d), want (2, 3)", passed, total)
	}
}

// --- Empty input ---

func TestEvaluators_EmptyInputProducesFailingResult(t *testing.T) {
	for _, phase := range []string{"spec", "plan", "tasks"} {
		t.Run(phase, func(t *testing.T) {
			results := ForPhase(phase)("")
			if len(results) == 0 {
				t.Fatal("expected results for empty input")
			}
			failed := false
			for _, r := range results {
				if !r.Passed {
					failed = true
					if strings.TrimSpace(r.Explanation) == "" {
						t.Errorf("failing result %s has empty explanation", r.ID)
					}
				}
			}
			if !failed {
				t.Error("expected at least one failing result for empty input")
			}
		})
	}
}

// --- Spec ---

func TestEvaluateSpec_CompleteSpecPasses(t *testing.T) {
	for _, r := range EvaluateSpec(completeSpec) {
		if !r.Passed {
			t.Errorf("%s failed: %s", r.ID, r.Explanation)
		}
	}
}

func TestEvaluateSpec_NoRequirements(t *testing.T) {
	r := findResult(t, EvaluateSpec("## Overview\nJust prose."), CheckSpecEARS)
	if r.Passed {
		t.Fatal("spec-ears should fail when there are no requirements")
	}
	if !strings.Contains(r.Explanation, "No requirements found") {
		t.Errorf("explanation = %q, want 'No requirements found'", r.Explanation)
	}
}

func TestEvaluateSpec_ListsRequirementsWithoutKeywords(t *testing.T) {
	content := "**FR-001**: WHEN x THEN y.\n**FR-002**: the system stores data.\n- **NFR-3** pages load fast"
	r := findResult(t, EvaluateSpec(content), CheckSpecEARS)
	if r.Passed {
		t.Fatal("spec-ears should fail")
	}
	if strings.Contains(r.Explanation, "FR-001") {
		t.Errorf("FR-001 has keywords and should not be listed: %s", r.Explanation)
	}
	for _, id := range []string{"FR-002", "NFR-3"} {
		if !strings.Contains(r.Explanation, id) {
			t.Errorf("explanation should list %s: %s", id, r.Explanation)
		}
	}
}

func TestEvaluateSpec_KeywordsAreCaseSensitive(t *testing.T) {
	content := "**FR-001**: when a user clicks, the system shall respond."
	r := findResult(t, EvaluateSpec(content), CheckSpecEARS)
	if r.Passed {
		t.Error("lowercase keywords should not satisfy the EARS check")
	}
}

func TestEvaluateSpec_KeywordsNeedWordBoundary(t *testing.T) {
	content := "**FR-001**: SHALLOW copies are WHENEVER possible."
	r := findResult(t, EvaluateSpec(content), CheckSpecEARS)
	if r.Passed {
		t.Error("SHALLOW/WHENEVER should not count as EARS keywords")
	}
}

func TestEvaluateSpec_MissingSections(t *testing.T) {
	content := "## Priority\nHigh\n\n### Rationale\nnested is not level 2\n\n## Main Flow\nx"
	r := findResult(t, EvaluateSpec(content), CheckSpecSections)
	if r.Passed {
		t.Fatal("spec-sections should fail")
	}
	for _, want := range []string{"Rationale", "Validation Rules", "Error Handling"} {
		if !strings.Contains(r.Explanation, want) {
			t.Errorf("explanation should list %q: %s", want, r.Explanation)
		}
	}
	if strings.Contains(r.Explanation, "Priority") || strings.Contains(r.Explanation, "Main Flow") {
		t.Errorf("present sections should not be listed: %s", r.Explanation)
	}
}

func TestEvaluateSpec_PerformanceByKeyword(t *testing.T) {
	r := findResult(t, EvaluateSpec("Responses must keep LATENCY low."), CheckSpecPerformance)
	if !r.Passed {
		t.Errorf("keyword match should pass: %s", r.Explanation)
	}
}

func TestEvaluateSpec_PerformanceByHeading(t *testing.T) {
	r := findResult(t, EvaluateSpec("## Performance Targets\nTBD"), CheckSpecPerformance)
	if !r.Passed {
		t.Errorf("heading match should pass: %s", r.Explanation)
	}
}

func TestEvaluateSpec_NoPerformance(t *testing.T) {
	r := findResult(t, EvaluateSpec("## Overview\nA small tool."), CheckSpecPerformance)
	if r.Passed {
		t.Error("spec-performance should fail without a target")
	}
}

// --- Plan ---

func TestEvaluatePlan_CompletePlanPasses(t *testing.T) {
	for _, r := range EvaluatePlan(completePlan) {
		if !r.Passed {
			t.Errorf("%s failed: %s", r.ID, r.Explanation)
		}
	}
}

func TestEvaluatePlan_MissingSections(t *testing.T) {
	r := findResult(t, EvaluatePlan("## Architecture\nMonolith."), CheckPlanSections)
	if r.Passed {
		t.Fatal("plan-sections should fail")
	}
	for _, want := range []string{"API Contracts", "Data Model", "Tech Decisions", "Security & Edge Cases"} {
		if !strings.Contains(r.Explanation, want) {
			t.Errorf("explanation should list %q: %s", want, r.Explanation)
		}
	}
}

func TestEvaluatePlan_EmptySectionBody(t *testing.T) {
	content := strings.Replace(completePlan, "POST /tasks creates a task.", "   ", 1)
	r := findResult(t, EvaluatePlan(content), CheckPlanContent)
	if r.Passed {
		t.Fatal("plan-content should fail for an empty section")
	}
	if !strings.Contains(r.Explanation, "API Contracts") {
		t.Errorf("explanation should name API Contracts: %s", r.Explanation)
	}
	if strings.Contains(r.Explanation, "Architecture") {
		t.Errorf("filled sections should not be listed: %s", r.Explanation)
	}
}

func TestEvaluatePlan_SubheadingCountsAsBody(t *testing.T) {
	content := strings.Replace(completePlan, "Task(id, title, due).", "### Tables\ntask", 1)
	r := findResult(t, EvaluatePlan(content), CheckPlanContent)
	if !r.Passed {
		t.Errorf("level-3 headings belong to the section body: %s", r.Explanation)
	}
}

func TestEvaluatePlan_AbsentSectionNotReportedAsEmpty(t *testing.T) {
	r := findResult(t, EvaluatePlan("## Architecture\nMonolith."), CheckPlanContent)
	if !r.Passed {
		t.Errorf("absent sections belong to plan-sections, got: %s", r.Explanation)
	}
}

// --- Tasks ---

func TestEvaluateTasks_CompleteTasksPass(t *testing.T) {
	for _, r := range EvaluateTasks(completeTasks) {
		if !r.Passed {
			t.Errorf("%s failed: %s", r.ID, r.Explanation)
		}
	}
}

func TestEvaluateTasks_NoTasksFailsBothChecks(t *testing.T) {
	results := EvaluateTasks("## Task Breakdown\nWe will figure it out.")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Passed {
			t.Errorf("%s should fail", r.ID)
		}
		if !strings.Contains(r.Explanation, "No tasks found") {
			t.Errorf("%s explanation = %q, want 'No tasks found'", r.ID, r.Explanation)
		}
	}
}

func TestEvaluateTasks_UnlabelledCheckbox(t *testing.T) {
	content := completeTasks + "\n- [ ] Polish the UI"
	r := findResult(t, EvaluateTasks(content), CheckTasksStructure)
	if r.Passed {
		t.Fatal("tasks-structure should fail for a checkbox without id")
	}
	if !strings.Contains(r.Explanation, "Polish the UI") {
		t.Errorf("explanation should quote the unlabelled item: %s", r.Explanation)
	}
}

func TestEvaluateTasks_TaskWithoutDetails(t *testing.T) {
	content := "- [ ] T1 Do the thing\n- [ ] T2 Add tests for the thing"
	r := findResult(t, EvaluateTasks(content), CheckTasksStructure)
	if r.Passed {
		t.Fatal("tasks-structure should fail")
	}
	if !strings.Contains(r.Explanation, "T1") {
		t.Errorf("explanation should list T1: %s", r.Explanation)
	}
	if strings.Contains(r.Explanation, "T2") {
		t.Errorf("T2 mentions tests and should not be listed: %s", r.Explanation)
	}
}

func TestEvaluateTasks_UnknownDependenciesDeduplicated(t *testing.T) {
	content := "- [ ] T1 Build\n  Dependencies: T9\n- [ ] T2 Ship\n  Dependencies: T1, T9, T7"
	r := findResult(t, EvaluateTasks(content), CheckTasksDependencies)
	if r.Passed {
		t.Fatal("tasks-dependencies should fail")
	}
	if strings.Count(r.Explanation, "T9") != 1 {
		t.Errorf("T9 should be reported once: %s", r.Explanation)
	}
	if !strings.Contains(r.Explanation, "T7") {
		t.Errorf("explanation should list T7: %s", r.Explanation)
	}
	if strings.Contains(r.Explanation, "T1") {
		t.Errorf("known task T1 should not be listed: %s", r.Explanation)
	}
}

func TestEvaluateTasks_InlineDependencies(t *testing.T) {
	content := "- [ ] T1 Build schema.sql\n- [ ] T2 Wire API (Dependencies: T1)"
	for _, r := range EvaluateTasks(content) {
		if !r.Passed {
			t.Errorf("%s failed: %s", r.ID, r.Explanation)
		}
	}
}

func TestEvaluateTasks_CheckedVariantRecognized(t *testing.T) {
	content := "- [X] T1 Write tests"
	r := findResult(t, EvaluateTasks(content), CheckTasksStructure)
	if !r.Passed {
		t.Errorf("checked task should be recognized: %s", r.Explanation)
	}
}
