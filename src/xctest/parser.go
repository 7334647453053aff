package xctest

import (
	"strconv"
	"time"

	"github.com/thought-machine/xcout/src/cli/logging"
)

var log = logging.Log

// A Parser converts raw runner output into Reporter events. It holds no
// per-stream state itself; everything mutable lives in the Session so the
// parser can be shared or wrapped freely.
type Parser struct {
	re *regexSet
}

// NewParser returns a parser for the given dialect.
func NewParser(dialect Dialect) *Parser {
	return &Parser{re: dialect.regexes()}
}

// ParseResult fully processes one chunk of runner output against the session
// and reporter. Chunks may split lines anywhere; feeding the same text in any
// chunking produces the same event sequence. Unrecognised lines are never an
// error, they become test output or failure message continuations.
func (p *Parser) ParseResult(text string, session *Session, reporter Reporter) {
	for _, line := range session.reassemble(text) {
		p.parseLine(line, session, reporter)
	}
}

// parseLine classifies a single complete line and dispatches it. The patterns
// are tried in a fixed priority order; the first match wins.
func (p *Parser) parseLine(line string, session *Session, reporter Reporter) {
	switch {
	case p.parseStarted(line, session, reporter):
	case p.parseFinished(line, session, reporter):
	case p.parseError(line, session, reporter):
	case p.parseSkipped(line, reporter):
	case p.parseSuiteStarted(line, session, reporter):
	case p.parseSuiteFinished(line, session, reporter):
	default:
		p.parseUnmatched(line, session, reporter)
	}
}

func (p *Parser) parseStarted(line string, session *Session, reporter Reporter) bool {
	m := p.re.started.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	index := reporter.GetIndex(QualifiedName(m[1], m[2]), "")
	reporter.Started(index)
	// A new test beginning invalidates any carryover failure from a prior test.
	session.FailedTest = nil
	p.flushPendingSuiteOutput(session, reporter)
	reporter.RecordOutput(index, line)
	return true
}

func (p *Parser) parseFinished(line string, session *Session, reporter Reporter) bool {
	m := p.re.finished.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	index := reporter.GetIndex(QualifiedName(m[1], m[2]), "")
	switch m[3] {
	case "passed":
		reporter.Completed(index, parseDuration(m[4]))
	case "failed":
		if f := session.FailedTest; f != nil {
			f.Complete = true
			reporter.RecordIssue(f.Index, f.Message, false, f.Location(), ExtractDiff(f.Message))
		} else {
			// The runner reported a failure but we never saw an error line for it.
			reporter.RecordIssue(index, "Failed", false, nil, nil)
		}
		reporter.Completed(index, parseDuration(m[4]))
	case "skipped":
		reporter.Skipped(index)
	}
	session.FailedTest = nil
	reporter.RecordOutput(index, line)
	return true
}

func (p *Parser) parseError(line string, session *Session, reporter Reporter) bool {
	m := p.re.errored.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	file := m[1]
	lineNum, _ := strconv.Atoi(m[2])
	// Some dialects report errors for tests the reporter hasn't indexed yet,
	// so the file path goes along as a disambiguation hint.
	index := reporter.GetIndex(QualifiedName(m[3], m[4]), file)
	if f := session.FailedTest; f != nil && !f.Complete {
		// Two errors under one test: each error line starts a fresh record,
		// finalising the previous one first.
		reporter.RecordIssue(f.Index, f.Message, false, f.Location(), ExtractDiff(f.Message))
	}
	session.FailedTest = &OpenFailure{Index: index, Message: m[5], File: file, Line: lineNum}
	reporter.RecordOutput(index, line)
	return true
}

func (p *Parser) parseSkipped(line string, reporter Reporter) bool {
	m := p.re.skipped.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	index := reporter.GetIndex(QualifiedName(m[3], m[4]), m[1])
	reporter.Skipped(index)
	reporter.RecordOutput(index, line)
	return true
}

func (p *Parser) parseSuiteStarted(line string, session *Session, reporter Reporter) bool {
	m := p.re.suiteStarted.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	// Don't attribute the line yet; the suite's index may not exist until
	// lookup and suites can nest. It's buffered until the first test starts
	// or the suite itself ends.
	session.PendingSuiteOutput = append(session.PendingSuiteOutput, line)
	session.ActiveSuite = m[1]
	reporter.StartedSuite(m[1])
	return true
}

func (p *Parser) parseSuiteFinished(line string, session *Session, reporter Reporter) bool {
	if m := p.re.suitePassed.FindStringSubmatch(line); m != nil {
		p.completeSuite(line, m[1], true, session, reporter)
		return true
	}
	if m := p.re.suiteFailed.FindStringSubmatch(line); m != nil {
		p.completeSuite(line, m[1], false, session, reporter)
		return true
	}
	return false
}

func (p *Parser) completeSuite(line, name string, passed bool, session *Session, reporter Reporter) {
	index := NoIndex
	if session.ActiveSuite != "" {
		if passed {
			reporter.PassedSuite(name)
		} else {
			reporter.FailedSuite(name)
		}
		index = reporter.GetIndex(session.ActiveSuite, "")
		// Covers the empty-suite case too: the suite completes with no test
		// ever having started, so whatever was buffered flushes here.
		p.flushPendingOutput(index, session, reporter)
		session.ActiveSuite = ""
	}
	reporter.RecordOutput(index, line)
}

func (p *Parser) parseUnmatched(line string, session *Session, reporter Reporter) {
	if f := session.FailedTest; f != nil && !f.Complete {
		// Continuation of a multi-line failure message.
		f.Message += "\n" + line
		reporter.RecordOutput(f.Index, line)
		return
	}
	if len(session.PendingSuiteOutput) > 0 {
		// A suite has started but nothing in it has; hold the line until we
		// know whether it belongs before the suite's first test or trails an
		// empty suite.
		session.PendingSuiteOutput = append(session.PendingSuiteOutput, line)
		return
	}
	reporter.RecordOutput(NoIndex, line)
}

// flushPendingSuiteOutput resolves the active suite and flushes the buffer to it.
func (p *Parser) flushPendingSuiteOutput(session *Session, reporter Reporter) {
	index := NoIndex
	if session.ActiveSuite != "" {
		index = reporter.GetIndex(session.ActiveSuite, "")
	}
	p.flushPendingOutput(index, session, reporter)
}

// flushPendingOutput drains the pending suite buffer. All but the last line
// are pure passthrough; the last line is the suite's own marker and belongs
// to its transcript.
func (p *Parser) flushPendingOutput(index int, session *Session, reporter Reporter) {
	lines := session.PendingSuiteOutput
	if len(lines) == 0 {
		return
	}
	for _, l := range lines[:len(lines)-1] {
		reporter.RecordOutput(NoIndex, l)
	}
	reporter.RecordOutput(index, lines[len(lines)-1])
	session.PendingSuiteOutput = nil
}

func parseDuration(s string) time.Duration {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Debug("Unparseable test duration %s", s)
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
