package core

import (
	"strings"
	"time"

	"github.com/thought-machine/xcout/src/cli"
	"github.com/thought-machine/xcout/src/cli/logging"
	"github.com/thought-machine/xcout/src/xctest"
)

var log = logging.Log

const maxSuggestionDistance = 5

// A TestRun is the xctest.Reporter implementation backing one runner
// invocation. It accumulates events into the suite/case/execution tree.
// Indices handed out by GetIndex are stable for the lifetime of the run.
//
// It is deliberately tolerant: every method accepts xctest.NoIndex (and any
// other unknown index) as a no-op, since events can arrive for tests the run
// doesn't know about yet.
type TestRun struct {
	Suites []*TestSuite // Every suite observed, in first-seen order
	Output []string     // Untargeted output: lines not attributable to any test or suite

	// Strict stops GetIndex creating test cases on demand; unknown names
	// resolve to NoIndex (with a logged near-miss suggestion). Used when the
	// universe of tests is known up front via RegisterTest.
	Strict bool

	items      []*runItem
	byName     map[string]int
	byFile     map[string][]int
	suiteStack []*TestSuite
}

// A runItem is one entry in the index space; either a test case or a suite.
type runItem struct {
	testCase *TestCase
	suite    *TestSuite
	open     int // index of the in-progress execution, or -1
}

// NewTestRun returns an empty run that creates test cases as it learns about them.
func NewTestRun() *TestRun {
	return &TestRun{
		byName: map[string]int{},
		byFile: map[string][]int{},
	}
}

// RegisterTest pre-registers a test so a strict run can resolve it, recording
// the file it lives in for hint-based lookups.
func (r *TestRun) RegisterTest(className, name, file string) int {
	index := r.addCase(className, name)
	if file != "" {
		r.byFile[file] = append(r.byFile[file], index)
	}
	return index
}

// GetIndex resolves a qualified test or suite name to its index, creating
// test cases on demand unless the run is strict. A file hint disambiguates
// tests not yet known by name; unresolvable names yield xctest.NoIndex.
func (r *TestRun) GetIndex(name, fileHint string) int {
	if index, present := r.byName[name]; present {
		return index
	}
	if fileHint != "" {
		if indices := r.byFile[fileHint]; len(indices) == 1 {
			return indices[0]
		}
	}
	className, method, isTest := splitQualifiedName(name)
	if !isTest {
		// Suite names only exist once their suite has started.
		return xctest.NoIndex
	}
	if r.Strict {
		if suggestions := cli.Suggest(name, r.knownNames(), maxSuggestionDistance); len(suggestions) != 0 {
			log.Debug("Unknown test %s; maybe you meant %s?", name, suggestions[0])
		}
		return xctest.NoIndex
	}
	return r.addCase(className, method)
}

// Started marks the beginning of a (possibly repeat) execution of a test.
func (r *TestRun) Started(index int) {
	if item := r.testItem(index); item != nil {
		item.testCase.Executions = append(item.testCase.Executions, TestExecution{})
		item.open = len(item.testCase.Executions) - 1
	}
}

// Completed marks the current execution of a test as finished.
func (r *TestRun) Completed(index int, duration time.Duration) {
	if item := r.testItem(index); item != nil {
		item.currentExec().Duration = &duration
		item.open = -1
	}
}

// Skipped marks the current execution of a test as skipped.
func (r *TestRun) Skipped(index int) {
	if item := r.testItem(index); item != nil {
		item.currentExec().Skip = &TestResultSkip{}
		item.open = -1
	}
}

// RecordIssue attaches a failure to the test's current execution.
func (r *TestRun) RecordIssue(index int, message string, known bool, loc *xctest.Location, diff *xctest.Diff) {
	if item := r.testItem(index); item != nil {
		exec := item.currentExec()
		exec.Failures = append(exec.Failures, TestResultFailure{
			Message:  message,
			Known:    known,
			Location: loc,
			Diff:     diff,
		})
	}
}

// StartedSuite opens a suite, creating it on first sight. A suite name seen
// again after completing reopens the same suite; deduplication of repeat
// occurrences is this layer's choice, not the parser's.
func (r *TestRun) StartedSuite(name string) {
	suite := r.ensureSuite(name)
	suite.Status = SuiteRunning
	r.suiteStack = append(r.suiteStack, suite)
}

// PassedSuite marks a suite as having passed.
func (r *TestRun) PassedSuite(name string) {
	r.completeSuite(name, SuitePassed)
}

// FailedSuite marks a suite as having failed.
func (r *TestRun) FailedSuite(name string) {
	r.completeSuite(name, SuiteFailed)
}

// RecordOutput appends a raw output line to the given test or suite's
// transcript, or to the run's untargeted output for an unresolved index.
func (r *TestRun) RecordOutput(index int, line string) {
	if index < 0 || index >= len(r.items) {
		r.Output = append(r.Output, line)
		return
	}
	item := r.items[index]
	if item.suite != nil {
		item.suite.Output = append(item.suite.Output, line)
		return
	}
	exec := item.currentExec()
	exec.Output = append(exec.Output, line)
}

// Tests returns the total number of test cases across all suites.
func (r *TestRun) Tests() int {
	tests := 0
	for _, suite := range r.Suites {
		tests += suite.Tests()
	}
	return tests
}

// Passes returns the total number of passed test cases.
func (r *TestRun) Passes() int {
	passes := 0
	for _, suite := range r.Suites {
		passes += suite.Passes()
	}
	return passes
}

// Failures returns the total number of failed test cases.
func (r *TestRun) Failures() int {
	failures := 0
	for _, suite := range r.Suites {
		failures += suite.Failures()
	}
	return failures
}

// Skips returns the total number of skipped test cases.
func (r *TestRun) Skips() int {
	skips := 0
	for _, suite := range r.Suites {
		skips += suite.Skips()
	}
	return skips
}

// Duration returns the total measured duration across all suites.
func (r *TestRun) Duration() time.Duration {
	duration := time.Duration(0)
	for _, suite := range r.Suites {
		duration += suite.Duration()
	}
	return duration
}

func (r *TestRun) completeSuite(name string, status SuiteStatus) {
	index, present := r.byName[name]
	if !present || r.items[index].suite == nil {
		log.Debug("Ignoring completion of unknown suite %s", name)
		return
	}
	suite := r.items[index].suite
	suite.Status = status
	for i := len(r.suiteStack) - 1; i >= 0; i-- {
		if r.suiteStack[i] == suite {
			r.suiteStack = append(r.suiteStack[:i], r.suiteStack[i+1:]...)
			break
		}
	}
}

// addCase creates a new test case attached to the innermost running suite,
// or to a suite named after its class if no suite is open.
func (r *TestRun) addCase(className, name string) int {
	suite := r.currentSuite(className)
	testCase := &TestCase{ClassName: className, Name: name}
	suite.TestCases = append(suite.TestCases, testCase)
	index := r.addItem(testCase.QualifiedName(), &runItem{testCase: testCase, open: -1})
	return index
}

func (r *TestRun) currentSuite(className string) *TestSuite {
	if len(r.suiteStack) > 0 {
		return r.suiteStack[len(r.suiteStack)-1]
	}
	return r.ensureSuite(className)
}

func (r *TestRun) ensureSuite(name string) *TestSuite {
	if index, present := r.byName[name]; present && r.items[index].suite != nil {
		return r.items[index].suite
	}
	suite := &TestSuite{Name: name}
	r.Suites = append(r.Suites, suite)
	r.addItem(name, &runItem{suite: suite, open: -1})
	return suite
}

func (r *TestRun) addItem(name string, item *runItem) int {
	index := len(r.items)
	r.items = append(r.items, item)
	if _, present := r.byName[name]; !present {
		r.byName[name] = index
	}
	return index
}

// testItem returns the item at index if it's a valid test case, else nil.
func (r *TestRun) testItem(index int) *runItem {
	if index < 0 || index >= len(r.items) || r.items[index].testCase == nil {
		return nil
	}
	return r.items[index]
}

func (r *TestRun) knownNames() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// currentExec returns the open execution, or the most recent one, creating
// an initial execution if the test has never run. Events that arrive outside
// a started/completed window (e.g. the finished marker's own output line)
// attach to the most recent execution.
func (it *runItem) currentExec() *TestExecution {
	tc := it.testCase
	if it.open >= 0 && it.open < len(tc.Executions) {
		return &tc.Executions[it.open]
	}
	if len(tc.Executions) == 0 {
		tc.Executions = append(tc.Executions, TestExecution{})
	}
	return &tc.Executions[len(tc.Executions)-1]
}

func splitQualifiedName(name string) (className, method string, ok bool) {
	if i := strings.LastIndex(name, "/"); i > 0 && i < len(name)-1 {
		return name[:i], name[i+1:], true
	}
	return "", "", false
}
