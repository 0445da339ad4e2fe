package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Check identifiers for the tasks phase.
const (
	CheckTasksStructure    = "tasks-structure"
	CheckTasksDependencies = "tasks-dependencies"
)

var (
	checkboxLine = regexp.MustCompile(`^\s*[-*]\s+\[[ xX]\]`)
	taskLine     = regexp.MustCompile(`^\s*[-*]\s+\[[ xX]\]\s+\*{0,2}(T\d+)\b`)
	headingLine  = regexp.MustCompile(`^#{1,6}[ \t]`)

	dependencyLine = regexp.MustCompile(`(?i)\bdependencies\*{0,2}\s*:\s*(.*)$`)
	dependsOnRef   = regexp.MustCompile(`(?i)\bdepends on\b`)
	taskRef        = regexp.MustCompile(`\bT\d+\b`)

	// filePathRef matches things like internal/store/db.go, `cmd/main.go`
	// or src/app.ts: at least one slash, or a dotted name with a short
	// extension.
	filePathRef = regexp.MustCompile(`(?:[\w.-]+/)+[\w.-]+|\b[\w-]+\.(?:go|ts|tsx|js|jsx|py|rs|java|sql|md|json|yaml|yml|toml|css|html)\b`)

	testKeyword = regexp.MustCompile(`(?i)\b(?:test|tests|testing|spec|assert|verify|coverage)\b`)
)

// task is one recognized checkbox task and the lines under it.
type task struct {
	id    string
	lines []string
}

// EvaluateTasks runs the tasks-phase checks.
func EvaluateTasks(content string) []Result {
	const (
		structureName = "Task structure"
		depsName      = "Dependency references"
		noTasks       = "No tasks found. List tasks as checkbox items with ids, e.g. \"- [ ] T1 Create schema\"."
	)

	tasks, unlabelled := parseTasks(content)
	if len(tasks) == 0 {
		return []Result{
			fail(CheckTasksStructure, structureName, noTasks),
			fail(CheckTasksDependencies, depsName, noTasks),
		}
	}

	return []Result{
		checkTaskStructure(tasks, unlabelled, structureName),
		checkTaskDependencies(tasks, depsName),
	}
}

// parseTasks splits content into task blocks. A block runs from a task line
// to the next checkbox line or heading. Checkbox lines without a T<n> id are
// returned separately.
func parseTasks(content string) ([]task, []string) {
	var (
		tasks      []task
		unlabelled []string
		current    *task
	)

	for _, line := range strings.Split(content, "\n") {
		if m := taskLine.FindStringSubmatch(line); m != nil {
			tasks = append(tasks, task{id: m[1], lines: []string{line}})
			current = &tasks[len(tasks)-1]
			continue
		}
		if checkboxLine.MatchString(line) {
			unlabelled = append(unlabelled, strings.TrimSpace(line))
			current = nil
			continue
		}
		if headingLine.MatchString(line) {
			current = nil
			continue
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}

	return tasks, unlabelled
}

func checkTaskStructure(tasks []task, unlabelled []string, name string) Result {
	var problems []string

	if len(unlabelled) > 0 {
		problems = append(problems,
			fmt.Sprintf("Checkbox items without a task id: %s", joinList(unlabelled)))
	}

	var thin []string
	for _, t := range tasks {
		block := strings.Join(t.lines, "\n")
		if hasDependencyRef(block) || filePathRef.MatchString(block) || testKeyword.MatchString(block) {
			continue
		}
		thin = append(thin, t.id)
	}
	if len(thin) > 0 {
		problems = append(problems,
			fmt.Sprintf("Tasks without dependencies, file references or test criteria: %s", joinList(thin)))
	}

	if len(problems) > 0 {
		return fail(CheckTasksStructure, name, strings.Join(problems, ". "))
	}
	return pass(CheckTasksStructure, name)
}

func hasDependencyRef(block string) bool {
	for _, line := range strings.Split(block, "\n") {
		if dependencyLine.MatchString(line) {
			return true
		}
	}
	return dependsOnRef.MatchString(block)
}

func checkTaskDependencies(tasks []task, name string) Result {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.id] = true
	}

	seen := make(map[string]bool)
	var unknown []string
	for _, t := range tasks {
		for _, line := range t.lines {
			m := dependencyLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			for _, ref := range taskRef.FindAllString(m[1], -1) {
				if known[ref] || seen[ref] {
					continue
				}
				seen[ref] = true
				unknown = append(unknown, ref)
			}
		}
	}

	if len(unknown) > 0 {
		return fail(CheckTasksDependencies, name, "Unknown task references: "+joinList(unknown))
	}
	return pass(CheckTasksDependencies, name)
}
