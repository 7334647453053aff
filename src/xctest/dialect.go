package xctest

import (
	"runtime"

	"github.com/peterebden/go-deferred-regex"
)

// A Dialect identifies one of the two fixed marker syntaxes the runner uses.
// They differ only lexically; once a line matches, downstream handling is
// dialect-agnostic.
type Dialect uint8

const (
	// Darwin is the syntax used on macOS, with Objective-C style
	// -[Target.Class method] test identifiers.
	Darwin Dialect = iota
	// Linux is the syntax used everywhere else, with Class.method identifiers.
	Linux
)

// HostDialect returns the dialect the current platform's runner emits.
func HostDialect() Dialect {
	if runtime.GOOS == "darwin" {
		return Darwin
	}
	return Linux
}

// ParseDialect converts a user-supplied dialect name.
func ParseDialect(name string) (Dialect, bool) {
	switch name {
	case "darwin":
		return Darwin, true
	case "linux":
		return Linux, true
	}
	return 0, false
}

func (d Dialect) String() string {
	if d == Darwin {
		return "darwin"
	}
	return "linux"
}

func (d Dialect) regexes() *regexSet {
	if d == Darwin {
		return &darwinRegex
	}
	return &linuxRegex
}

// A regexSet is the fixed pattern table for one dialect. Capture group order
// is identical across dialects: started/finished yield (class path, method),
// error/skipped yield (file, line, class path, method, ...).
type regexSet struct {
	started      deferredregex.DeferredRegex
	finished     deferredregex.DeferredRegex
	errored      deferredregex.DeferredRegex
	skipped      deferredregex.DeferredRegex
	suiteStarted deferredregex.DeferredRegex
	suitePassed  deferredregex.DeferredRegex
	suiteFailed  deferredregex.DeferredRegex
}

var darwinRegex = regexSet{
	started:      deferredregex.DeferredRegex{Re: `^Test Case '-\[(\S+)\s(.*)\]' started\.`},
	finished:     deferredregex.DeferredRegex{Re: `^Test Case '-\[(\S+)\s(.*)\]' (passed|failed|skipped) \((\d+\.\d+) seconds\)`},
	errored:      deferredregex.DeferredRegex{Re: `^(.+?):(\d+): error: -\[(\S+)\s(.*)\] : (.*)$`},
	skipped:      deferredregex.DeferredRegex{Re: `^(.+?):(\d+): -\[(\S+)\s(.*)\] : Test skipped`},
	suiteStarted: deferredregex.DeferredRegex{Re: `^Test Suite '(.*)' started at`},
	suitePassed:  deferredregex.DeferredRegex{Re: `^Test Suite '(.*)' passed at`},
	suiteFailed:  deferredregex.DeferredRegex{Re: `^Test Suite '(.*)' failed at`},
}

var linuxRegex = regexSet{
	started:      deferredregex.DeferredRegex{Re: `^Test Case '(\S+)\.(\S+)' started at`},
	finished:     deferredregex.DeferredRegex{Re: `^Test Case '(\S+)\.(\S+)' (passed|failed|skipped) \((\d+\.\d+) seconds\)`},
	errored:      deferredregex.DeferredRegex{Re: `^(.+?):(\d+): error: (\S+)\.(\S+) : (.*)$`},
	skipped:      deferredregex.DeferredRegex{Re: `^(.+?):(\d+): (\S+)\.(\S+) : Test skipped`},
	suiteStarted: deferredregex.DeferredRegex{Re: `^Test Suite '(.*)' started at`},
	suitePassed:  deferredregex.DeferredRegex{Re: `^Test Suite '(.*)' passed at`},
	suiteFailed:  deferredregex.DeferredRegex{Re: `^Test Suite '(.*)' failed at`},
}

// QualifiedName joins the two name captures into the canonical
// "class-path/method" form used for reporter lookups.
func QualifiedName(classPath, method string) string {
	return classPath + "/" + method
}
