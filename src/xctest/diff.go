package xctest

import (
	"github.com/peterebden/go-deferred-regex"
)

// Assertion failures read like `XCTAssertEqual failed: ("1") is not equal to ("2")`.
// The connector wording varies by assertion so only the parenthesised values are
// structural; (?s) lets them span line breaks.
var assertionDiff = deferredregex.DeferredRegex{Re: `(?s)\((.*)\) is not ([\w ]+?) to \((.*)\)`}

// ExtractDiff pulls the actual/expected values out of an assertion failure
// message. It returns nil when the message doesn't have that shape, or when
// both captured values print identically - an identity assertion comparing
// two distinct but equal-looking objects would otherwise present a "diff"
// with nothing in it.
func ExtractDiff(message string) *Diff {
	m := assertionDiff.FindStringSubmatch(message)
	if m == nil || m[1] == m[3] {
		return nil
	}
	return &Diff{Actual: m[1], Expected: m[3]}
}
