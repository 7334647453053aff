package xctest

// A Session holds the buffering state that must survive between calls to
// ParseResult on one logical stream. It is owned by the caller, not the
// parser; two parsers sharing a Session parse two chunk sequences as one
// continuous stream, which the parallel-run wrapper relies on.
type Session struct {
	// Excess is the unterminated trailing line carried over from the previous chunk.
	Excess string
	// ActiveSuite is the name of the most recently started, unfinished suite.
	ActiveSuite string
	// PendingSuiteOutput holds lines seen after a suite started but before its
	// identity is resolved (i.e. before its first test starts or it ends).
	PendingSuiteOutput []string
	// FailedTest is the open failure record for the most recent error marker.
	FailedTest *OpenFailure
}

// An OpenFailure is an in-progress failure message. Unmatched lines grow the
// message until a test-finished marker (or another error marker) finalises it.
// At most one incomplete OpenFailure exists at a time.
type OpenFailure struct {
	Index    int
	Message  string
	File     string
	Line     int
	Complete bool
}

// Location returns the source position the failure was reported at.
func (f *OpenFailure) Location() *Location {
	return &Location{File: f.File, Line: f.Line}
}
