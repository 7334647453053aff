// Package xctest parses the streamed output of an XCTest-style test runner
// into structured test lifecycle events.
//
// The runner writes line-oriented markers for test and suite lifecycle
// interleaved with arbitrary program output, and the stream arrives in
// chunks that can split a line anywhere. The parser reassembles lines,
// classifies them against one of two platform dialects and drives a
// Reporter with the resulting events. Everything it needs to remember
// between chunks lives in a Session so that multiple parsers (e.g. the
// parallel-run wrapper) can cooperate over one logical stream.
package xctest

import (
	"time"
)

// NoIndex is returned by Reporter.GetIndex for names it cannot resolve.
// All other Reporter methods must tolerate receiving it.
const NoIndex = -1

// A Reporter consumes the events produced by parsing a test run.
// Implementations are expected to be tolerant: indices may be NoIndex and
// lifecycle calls can arrive for tests that were never registered.
type Reporter interface {
	// GetIndex resolves a qualified test or suite name to an index.
	// fileHint optionally disambiguates tests the reporter doesn't know by name yet.
	GetIndex(name, fileHint string) int
	// Started marks a test as having begun execution.
	Started(index int)
	// Completed marks a test as finished, with how long it took.
	Completed(index int, duration time.Duration)
	// Skipped marks a test as skipped.
	Skipped(index int)
	// RecordIssue attaches a failure to a test.
	RecordIssue(index int, message string, known bool, loc *Location, diff *Diff)
	// StartedSuite, PassedSuite and FailedSuite track suite lifecycle.
	StartedSuite(name string)
	PassedSuite(name string)
	FailedSuite(name string)
	// RecordOutput appends one line of raw output to a test or suite's
	// transcript, or to the run's untargeted output when index is NoIndex.
	RecordOutput(index int, line string)
}

// A Location is a source position attached to an issue.
type Location struct {
	File string
	Line int
}

// A Diff is the actual/expected pair extracted from an assertion failure.
type Diff struct {
	Actual   string
	Expected string
}
