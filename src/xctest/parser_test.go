package xctest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeReporter records every call as a formatted string so tests can assert
// on exact event sequences. Indices are handed out in first-lookup order.
type fakeReporter struct {
	events  []string
	indices map[string]int
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{indices: map[string]int{}}
}

func (f *fakeReporter) GetIndex(name, fileHint string) int {
	if index, present := f.indices[name]; present {
		return index
	}
	index := len(f.indices)
	f.indices[name] = index
	return index
}

func (f *fakeReporter) Started(index int) {
	f.events = append(f.events, fmt.Sprintf("started %d", index))
}

func (f *fakeReporter) Completed(index int, duration time.Duration) {
	f.events = append(f.events, fmt.Sprintf("completed %d %s", index, duration))
}

func (f *fakeReporter) Skipped(index int) {
	f.events = append(f.events, fmt.Sprintf("skipped %d", index))
}

func (f *fakeReporter) RecordIssue(index int, message string, known bool, loc *Location, diff *Diff) {
	event := fmt.Sprintf("issue %d %q", index, message)
	if loc != nil {
		event += fmt.Sprintf(" at %s:%d", loc.File, loc.Line)
	}
	if diff != nil {
		event += fmt.Sprintf(" diff %s != %s", diff.Actual, diff.Expected)
	}
	f.events = append(f.events, event)
}

func (f *fakeReporter) StartedSuite(name string) {
	f.events = append(f.events, "suite started "+name)
}

func (f *fakeReporter) PassedSuite(name string) {
	f.events = append(f.events, "suite passed "+name)
}

func (f *fakeReporter) FailedSuite(name string) {
	f.events = append(f.events, "suite failed "+name)
}

func (f *fakeReporter) RecordOutput(index int, line string) {
	f.events = append(f.events, fmt.Sprintf("output %d %s", index, line))
}

func parseAll(t *testing.T, dialect Dialect, input string) *fakeReporter {
	t.Helper()
	reporter := newFakeReporter()
	NewParser(dialect).ParseResult(input, &Session{}, reporter)
	return reporter
}

func TestSinglePassingTest(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testPass]' started.\n"+
			"Test Case '-[T.C testPass]' passed (0.001 seconds).\n")
	assert.Equal(t, []string{
		"started 0",
		"output 0 Test Case '-[T.C testPass]' started.",
		"completed 0 1ms",
		"output 0 Test Case '-[T.C testPass]' passed (0.001 seconds).",
	}, reporter.events)
}

func TestFailingTestRecordsIssueWithLocationAndDiff(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testFail]' started.\n"+
			`/code/Tests/CTests.swift:13: error: -[T.C testFail] : XCTAssertEqual failed: ("1") is not equal to ("2")`+"\n"+
			"Test Case '-[T.C testFail]' failed (0.003 seconds).\n")
	assert.Equal(t, []string{
		"started 0",
		"output 0 Test Case '-[T.C testFail]' started.",
		`output 0 /code/Tests/CTests.swift:13: error: -[T.C testFail] : XCTAssertEqual failed: ("1") is not equal to ("2")`,
		`issue 0 "XCTAssertEqual failed: (\"1\") is not equal to (\"2\")" at /code/Tests/CTests.swift:13 diff "1" != "2"`,
		"completed 0 3ms",
		"output 0 Test Case '-[T.C testFail]' failed (0.003 seconds).",
	}, reporter.events)
}

func TestTwoErrorsUnderOneTest(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testBoom]' started.\n"+
			"/code/a.swift:1: error: -[T.C testBoom] : first\n"+
			"/code/a.swift:2: error: -[T.C testBoom] : second\n"+
			"Test Case '-[T.C testBoom]' failed (0.100 seconds).\n")
	issues := []string{}
	for _, event := range reporter.events {
		if len(event) > 5 && event[:5] == "issue" {
			issues = append(issues, event)
		}
	}
	assert.Equal(t, []string{
		`issue 0 "first" at /code/a.swift:1`,
		`issue 0 "second" at /code/a.swift:2`,
	}, issues)
}

func TestMultilineFailureMessage(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testLong]' started.\n"+
			"/code/a.swift:9: error: -[T.C testLong] : failed - top\n"+
			"middle\n"+
			"bottom\n"+
			"Test Case '-[T.C testLong]' failed (0.010 seconds).\n")
	assert.Contains(t, reporter.events, "issue 0 \"failed - top\\nmiddle\\nbottom\" at /code/a.swift:9")
	// Continuation lines also land in the test's transcript.
	assert.Contains(t, reporter.events, "output 0 middle")
	assert.Contains(t, reporter.events, "output 0 bottom")
}

func TestBareFailureWithoutErrorLine(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testFail]' started.\n"+
			"Test Case '-[T.C testFail]' failed (0.002 seconds).\n")
	assert.Contains(t, reporter.events, `issue 0 "Failed"`)
}

func TestSkippedMarker(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testSkip]' started.\n"+
			"/code/a.swift:5: -[T.C testSkip] : Test skipped - not supported here\n")
	assert.Contains(t, reporter.events, "skipped 0")
}

func TestSkippedOutcomeInFinishedLine(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testSkip]' started.\n"+
			"Test Case '-[T.C testSkip]' skipped (0.001 seconds).\n")
	assert.Contains(t, reporter.events, "skipped 0")
	assert.NotContains(t, reporter.events, "completed 0 1ms")
}

func TestSuiteOutputAttribution(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Suite 'CTests' started at 2022-01-01 12:00:00.000\n"+
			"Test Case '-[T.CTests testPass]' started.\n"+
			"Test Case '-[T.CTests testPass]' passed (0.001 seconds).\n")
	// The suite's start marker is flushed to the suite's transcript once the
	// first test resolves it.
	assert.Equal(t, []string{
		"suite started CTests",
		"started 0",
		"output 1 Test Suite 'CTests' started at 2022-01-01 12:00:00.000",
		"output 0 Test Case '-[T.CTests testPass]' started.",
		"completed 0 1ms",
		"output 0 Test Case '-[T.CTests testPass]' passed (0.001 seconds).",
	}, reporter.events)
}

func TestNestedSuiteMarkersFlushAsPassthrough(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Suite 'All tests' started at 2022-01-01 12:00:00.000\n"+
			"Test Suite 'CTests' started at 2022-01-01 12:00:00.001\n"+
			"Test Case '-[T.CTests testPass]' started.\n")
	// Only the innermost marker is attributed to the (active) suite.
	assert.Equal(t, []string{
		"suite started All tests",
		"suite started CTests",
		"started 0",
		"output -1 Test Suite 'All tests' started at 2022-01-01 12:00:00.000",
		"output 1 Test Suite 'CTests' started at 2022-01-01 12:00:00.001",
		"output 0 Test Case '-[T.CTests testPass]' started.",
	}, reporter.events)
}

func TestEmptySuiteFlushesEverything(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Suite 'Empty' started at 2022-01-01 12:00:00.000\n"+
			"some build noise\n"+
			"Test Suite 'Empty' passed at 2022-01-01 12:00:00.010\n")
	assert.Equal(t, []string{
		"suite started Empty",
		"suite passed Empty",
		"output -1 Test Suite 'Empty' started at 2022-01-01 12:00:00.000",
		"output 0 some build noise",
		"output 0 Test Suite 'Empty' passed at 2022-01-01 12:00:00.010",
	}, reporter.events)
}

func TestSuiteEndWithoutStartIsUntargeted(t *testing.T) {
	reporter := parseAll(t, Darwin, "Test Suite 'Ghost' failed at 2022-01-01 12:00:00.000\n")
	assert.Equal(t, []string{
		"output -1 Test Suite 'Ghost' failed at 2022-01-01 12:00:00.000",
	}, reporter.events)
}

func TestUnmatchedOutputIsUntargeted(t *testing.T) {
	reporter := parseAll(t, Darwin, "hello from the test binary\n")
	assert.Equal(t, []string{"output -1 hello from the test binary"}, reporter.events)
}

func TestLinuxDialect(t *testing.T) {
	reporter := parseAll(t, Linux,
		"Test Case 'CTests.testFail' started at 2022-01-01 12:00:00.000\n"+
			`/code/Tests/CTests.swift:13: error: CTests.testFail : XCTAssertEqual failed: ("1") is not equal to ("2")`+"\n"+
			"Test Case 'CTests.testFail' failed (0.003 seconds)\n")
	assert.Equal(t, []string{
		"started 0",
		"output 0 Test Case 'CTests.testFail' started at 2022-01-01 12:00:00.000",
		`output 0 /code/Tests/CTests.swift:13: error: CTests.testFail : XCTAssertEqual failed: ("1") is not equal to ("2")`,
		`issue 0 "XCTAssertEqual failed: (\"1\") is not equal to (\"2\")" at /code/Tests/CTests.swift:13 diff "1" != "2"`,
		"completed 0 3ms",
		"output 0 Test Case 'CTests.testFail' failed (0.003 seconds)",
	}, reporter.events)
}

func TestNewTestClearsStaleFailureRecord(t *testing.T) {
	reporter := parseAll(t, Darwin,
		"Test Case '-[T.C testOne]' started.\n"+
			"/code/a.swift:1: error: -[T.C testOne] : boom\n"+
			"Test Case '-[T.C testTwo]' started.\n"+
			"Test Case '-[T.C testTwo]' failed (0.001 seconds).\n")
	// testTwo's bare failure must not inherit testOne's abandoned record.
	assert.Contains(t, reporter.events, `issue 1 "Failed"`)
	assert.NotContains(t, reporter.events, `issue 1 "boom" at /code/a.swift:1`)
}

// Splitting one blob into arbitrary chunks must produce identical events to
// parsing it in one call, whatever the boundaries hit.
func TestChunkingInvariance(t *testing.T) {
	input := "Test Suite 'CTests' started at 2022-01-01 12:00:00.000\n" +
		"Test Case '-[T.CTests testPass]' started.\r\n" +
		"some output from the test\r\n" +
		"Test Case '-[T.CTests testPass]' passed (0.001 seconds).\n" +
		"Test Case '-[T.CTests testFail]' started.\n" +
		"/code/t.swift:3: error: -[T.CTests testFail] : nope\n" +
		"Test Case '-[T.CTests testFail]' failed (0.002 seconds).\n" +
		"Test Suite 'CTests' failed at 2022-01-01 12:00:00.500\n"
	expected := parseAll(t, Darwin, input)

	for split := 1; split < len(input); split++ {
		reporter := newFakeReporter()
		session := &Session{}
		parser := NewParser(Darwin)
		parser.ParseResult(input[:split], session, reporter)
		parser.ParseResult(input[split:], session, reporter)
		assert.Equal(t, expected.events, reporter.events, "split at byte %d", split)
	}
}
