package xctest

import (
	"time"

	"github.com/coreos/go-semver/semver"
)

// Swift 5.6 was the first toolchain whose runner emits line-delimited output
// under parallel execution. Before that, parallel workers' output arrives
// concatenated with no delimiters and parsing it would misattribute
// everything, so we don't try.
var minParallelStreamingVersion = semver.Version{Major: 5, Minor: 6}

// A ParallelParser wraps a Parser for output produced by a parallel test run.
// Under parallel execution the authoritative pass/fail/timing signal comes
// from the whole-run XML report parsed after the process exits; the stream's
// remaining value is the assertion failure text and locations, which the XML
// report doesn't carry. So lifecycle events are dropped and only issues (and
// the output needed to capture them) flow through to the real reporter.
type ParallelParser struct {
	parser  *Parser
	version *semver.Version
}

// NewParallelParser returns a parser for parallel-run output from the given
// toolchain version. A nil version is treated as new enough to stream.
func NewParallelParser(dialect Dialect, toolchain *semver.Version) *ParallelParser {
	return &ParallelParser{parser: NewParser(dialect), version: toolchain}
}

// ParseResult parses one chunk, forwarding only issue recording to the
// reporter. The session is shared with the underlying parser so a run can mix
// wrapped and unwrapped parsing without duplicating buffer state.
func (p *ParallelParser) ParseResult(text string, session *Session, reporter Reporter) {
	if p.version != nil && p.version.LessThan(minParallelStreamingVersion) {
		log.Debug("Not parsing streamed output from Swift %s parallel run; results come from the XML report", p.version)
		return
	}
	p.parser.ParseResult(text, session, issueOnlyReporter{reporter})
}

// issueOnlyReporter forwards issue recording and name resolution and no-ops
// every lifecycle notification. It's stateless; per-call construction is fine.
type issueOnlyReporter struct {
	r Reporter
}

func (p issueOnlyReporter) GetIndex(name, fileHint string) int {
	return p.r.GetIndex(name, fileHint)
}

func (p issueOnlyReporter) RecordIssue(index int, message string, known bool, loc *Location, diff *Diff) {
	p.r.RecordIssue(index, message, known, loc, diff)
}

func (p issueOnlyReporter) Started(index int)                          {}
func (p issueOnlyReporter) Completed(index int, duration time.Duration) {}
func (p issueOnlyReporter) Skipped(index int)                          {}
func (p issueOnlyReporter) StartedSuite(name string)                   {}
func (p issueOnlyReporter) PassedSuite(name string)                    {}
func (p issueOnlyReporter) FailedSuite(name string)                    {}
func (p issueOnlyReporter) RecordOutput(index int, line string)        {}
