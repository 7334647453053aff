// Package xunit parses whole-run XML test reports.
//
// Older runners don't emit line-delimited output under parallel execution, so
// the authoritative pass/fail/timing for those runs comes from the XML report
// written when the process exits. It drives the same reporter interface as
// the streaming parser; the two never race because the report is only read
// after all stream chunks have been delivered.
package xunit

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/thought-machine/xcout/src/cli/logging"
	"github.com/thought-machine/xcout/src/fs"
	"github.com/thought-machine/xcout/src/xctest"
)

var log = logging.Log

// LooksLikeXMLResults returns true if the data appears to be an XML report.
func LooksLikeXMLResults(b []byte) bool {
	return bytes.HasPrefix(b, []byte("<?xml")) || bytes.HasPrefix(b, []byte("<test"))
}

// ParseResults replays an XML report's suites and cases into the reporter.
func ParseResults(data []byte, reporter xctest.Reporter) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}

		switch tok := token.(type) { //nolint:gocritic
		case xml.StartElement:
			switch tok.Name.Local {
			case "testsuites":
				suites := xmlTestSuites{}
				if err := decoder.DecodeElement(&suites, &tok); err != nil {
					return err
				}
				for _, suite := range suites.TestSuites {
					replaySuite(suite, reporter)
				}
			case "testsuite":
				suite := &xmlTestSuite{}
				if err := decoder.DecodeElement(suite, &tok); err != nil {
					return err
				}
				replaySuite(suite, reporter)
			case "testcase":
				// A bare test outside any suite; attribute it by class name.
				testCase := xmlTestCase{}
				if err := decoder.DecodeElement(&testCase, &tok); err != nil {
					return err
				}
				replayCase(testCase, reporter)
			}
		}
	}
}

// ParseResultsFile parses a single XML report file.
func ParseResultsFile(filename string, reporter xctest.Reporter) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("Failed to read test results from %s: %w", filename, err)
	}
	if !LooksLikeXMLResults(data) {
		return fmt.Errorf("%s doesn't look like an XML test report", filename)
	}
	return ParseResults(data, reporter)
}

// ParseResultsDir walks a results directory parsing every file in it.
// Per-file failures don't stop the walk; they're aggregated and returned
// together at the end.
func ParseResultsDir(dir string, reporter xctest.Reporter) error {
	var errs *multierror.Error
	found := false
	err := fs.Walk(dir, func(name string, isDir bool) error {
		if !isDir {
			found = true
			log.Debug("Parsing test results from %s", name)
			if err := ParseResultsFile(name, reporter); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("Didn't find any test results in %s", dir)
	}
	return errs.ErrorOrNil()
}

func replaySuite(suite *xmlTestSuite, reporter xctest.Reporter) {
	reporter.StartedSuite(suite.Name)
	failed := suite.Failures > 0
	for _, testCase := range suite.TestCases {
		if replayCase(testCase, reporter) {
			failed = true
		}
	}
	if failed {
		reporter.FailedSuite(suite.Name)
	} else {
		reporter.PassedSuite(suite.Name)
	}
}

// replayCase emits one case's lifecycle into the reporter, returning true if it failed.
func replayCase(testCase xmlTestCase, reporter xctest.Reporter) bool {
	index := reporter.GetIndex(xctest.QualifiedName(testCase.ClassName, testCase.Name), testCase.File)
	reporter.Started(index)
	if testCase.Skipped != nil {
		reporter.Skipped(index)
		return false
	}
	for _, failure := range testCase.Failures {
		reporter.RecordIssue(index, failure.message(), false, testCase.location(), xctest.ExtractDiff(failure.message()))
	}
	for _, xmlErr := range testCase.Errors {
		reporter.RecordIssue(index, xmlErr.message(), false, testCase.location(), nil)
	}
	reporter.Completed(index, testCase.Duration())
	return len(testCase.Failures) > 0 || len(testCase.Errors) > 0
}

type xmlTestSuites struct {
	XMLName    xml.Name        `xml:"testsuites"`
	TestSuites []*xmlTestSuite `xml:"testsuite"`
}

type xmlTestSuite struct {
	XMLName   xml.Name      `xml:"testsuite"`
	Name      string        `xml:"name,attr"`
	Tests     int           `xml:"tests,attr"`
	Failures  int           `xml:"failures,attr"`
	TestCases []xmlTestCase `xml:"testcase"`
}

type xmlTestCase struct {
	XMLName   xml.Name     `xml:"testcase"`
	ClassName string       `xml:"classname,attr"`
	Name      string       `xml:"name,attr"`
	File      string       `xml:"file,attr"`
	Line      int          `xml:"line,attr"`
	Time      float64      `xml:"time,attr"`
	Failures  []xmlFailure `xml:"failure"`
	Errors    []xmlFailure `xml:"error"`
	Skipped   *xmlSkipped  `xml:"skipped"`
}

func (testCase xmlTestCase) Duration() time.Duration {
	return time.Duration(testCase.Time * float64(time.Second))
}

func (testCase xmlTestCase) location() *xctest.Location {
	if testCase.File == "" {
		return nil
	}
	return &xctest.Location{File: testCase.File, Line: testCase.Line}
}

type xmlFailure struct {
	Message   string `xml:"message,attr"`
	Type      string `xml:"type,attr"`
	Traceback string `xml:",chardata"`
}

// message prefers the structured attribute, falling back to the element body.
func (failure xmlFailure) message() string {
	if failure.Message != "" {
		return failure.Message
	}
	return failure.Traceback
}

type xmlSkipped struct {
	Message string `xml:"message,attr"`
}
