// Package core holds the structured result model for a test run and the
// reporter that accumulates streamed events into it.
package core

import (
	"time"

	"github.com/thought-machine/xcout/src/xctest"
)

// SuiteStatus is the lifecycle state of a test suite.
type SuiteStatus uint8

const (
	// SuiteRunning means the suite has started and not yet reported an outcome.
	SuiteRunning SuiteStatus = iota
	// SuitePassed and SuiteFailed are terminal.
	SuitePassed
	SuiteFailed
)

func (s SuiteStatus) String() string {
	switch s {
	case SuitePassed:
		return "passed"
	case SuiteFailed:
		return "failed"
	}
	return "running"
}

// TestSuite describes all the results for one named suite.
type TestSuite struct {
	Name      string      // The name of the suite as the runner reported it
	Status    SuiteStatus // Lifecycle state; suites with zero tests still terminate
	TestCases []*TestCase // The test cases observed for this suite
	Output    []string    // The suite's own transcript lines (its start/end markers)
}

// Passes returns the number of test cases which succeeded (not skipped).
func (suite *TestSuite) Passes() int {
	passes := 0
	for _, result := range suite.TestCases {
		if result.Success() != nil {
			passes++
		}
	}
	return passes
}

// Failures returns the number of test cases which did not succeed.
func (suite *TestSuite) Failures() int {
	failures := 0
	for _, result := range suite.TestCases {
		if result.Success() == nil && result.Skip() == nil && len(result.Failures()) > 0 {
			failures++
		}
	}
	return failures
}

// Skips returns the number of test cases that were skipped.
func (suite *TestSuite) Skips() int {
	skips := 0
	for _, result := range suite.TestCases {
		if result.Skip() != nil {
			skips++
		}
	}
	return skips
}

// Tests returns the total number of test cases in this suite.
func (suite *TestSuite) Tests() int {
	return len(suite.TestCases)
}

// Duration returns the total time the suite's tests took.
func (suite *TestSuite) Duration() time.Duration {
	duration := time.Duration(0)
	for _, result := range suite.TestCases {
		for _, execution := range result.Executions {
			if execution.Duration != nil {
				duration += *execution.Duration
			}
		}
	}
	return duration
}

// TestCase describes the results of a single test, possibly over several executions.
type TestCase struct {
	ClassName  string          // Qualified class path of the test
	Name       string          // Name of the test method
	Executions []TestExecution // One entry per time the test ran
}

// QualifiedName returns the canonical class-path/method name of the test.
func (testCase *TestCase) QualifiedName() string {
	return xctest.QualifiedName(testCase.ClassName, testCase.Name)
}

// Success returns the first successful execution, or nil if there was none.
func (testCase *TestCase) Success() *TestExecution {
	for i, execution := range testCase.Executions {
		if len(execution.Failures) == 0 && execution.Skip == nil && execution.Duration != nil {
			return &testCase.Executions[i]
		}
	}
	return nil
}

// Skip returns the first skipped execution, or nil if there was none.
func (testCase *TestCase) Skip() *TestExecution {
	for i, execution := range testCase.Executions {
		if execution.Skip != nil {
			return &testCase.Executions[i]
		}
	}
	return nil
}

// Failures returns every failure recorded across all executions, in order.
func (testCase *TestCase) Failures() []TestResultFailure {
	var failures []TestResultFailure
	for _, execution := range testCase.Executions {
		failures = append(failures, execution.Failures...)
	}
	return failures
}

// Duration returns how long the test took, if that's known.
func (testCase *TestCase) Duration() *time.Duration {
	for _, execution := range testCase.Executions {
		if execution.Duration != nil {
			return execution.Duration
		}
	}
	return nil
}

// A TestExecution is one run of a test. No failures, no skip and a duration
// means it passed; an execution without a duration never completed.
type TestExecution struct {
	Failures []TestResultFailure // The issues recorded against this execution, in order
	Skip     *TestResultSkip     // Set if the test was skipped
	Duration *time.Duration      // How long the run took; nil if it never finished
	Output   []string            // Raw output lines attributed to this execution
}

// A TestResultFailure is one recorded issue: an assertion failure or other
// error with whatever detail the stream carried for it.
type TestResultFailure struct {
	Message  string           // The failure message, verbatim and possibly multi-line
	Known    bool             // Whether this is a known (expected) issue; the consumer's concern
	Location *xctest.Location // Where the failure was reported, if known
	Diff     *xctest.Diff     // Actual/expected values, if the message contained them
}

// A TestResultSkip records that a test was skipped.
type TestResultSkip struct {
	Message string // The reason for skipping, if given
}
