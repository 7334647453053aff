package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/thought-machine/xcout/src/cli"
	logger "github.com/thought-machine/xcout/src/cli/logging"
	"github.com/thought-machine/xcout/src/core"
	"github.com/thought-machine/xcout/src/xctest"
	"github.com/thought-machine/xcout/src/xunit"
)

var log = logger.Log

// Version of the tool. This is filled in at release time.
const version = "1.2.0"

// chunkSize is how much we read from the input at a time. Small enough to
// exercise the incremental path on realistically sized output.
const chunkSize = 64 * int(cli.KiByte)

var config *core.Configuration

var opts = struct {
	Usage     string
	Verbosity cli.Verbosity `short:"v" long:"verbosity" default:"warning" description:"Verbosity of output (higher number = more output)"`
	Config    string        `short:"c" long:"config" description:"Location of the config file"`
	Dialect   string        `short:"d" long:"dialect" description:"Override the line dialect the output uses" choice:"darwin" choice:"linux"`

	Parse struct {
		SwiftVersion string `long:"swift_version" description:"Version of the Swift toolchain that produced the output"`
		Parallel     bool   `long:"parallel" description:"The output came from a parallel test run"`
		ShowOutput   bool   `short:"o" long:"show_output" description:"Print each test's captured output in the summary"`
		Args         struct {
			File string `positional-arg-name:"file" description:"File to parse; - or omitted reads stdin"`
		} `positional-args:"true"`
	} `command:"parse" description:"Parses streamed test-runner output into structured results"`

	Results struct {
		Args struct {
			Path string `positional-arg-name:"path" required:"true" description:"XML report file or directory of reports"`
		} `positional-args:"true" required:"true"`
	} `command:"results" description:"Parses a whole-run XML test report"`

	Version struct{} `command:"version" description:"Prints the version and exits"`
}{
	Usage: `
xcout parses the output of an XCTest-style test runner into structured results.

It understands the streamed, line-oriented markers the runner writes on both
macOS and Linux, reassembling them from arbitrarily chunked input, and the
whole-run XML reports used where streamed output isn't available (parallel
runs on older toolchains).
`,
}

func main() {
	command := cli.ParseFlagsOrDie("xcout", &opts)
	cli.InitLogging(opts.Verbosity)

	var err error
	filenames := []string{core.ConfigFileName}
	if opts.Config != "" {
		filenames = append(filenames, opts.Config)
	}
	config, err = core.ReadConfigFiles(filenames)
	if err != nil {
		log.Fatalf("Error reading config file: %s", err)
	}
	if opts.Dialect != "" {
		config.Parse.Dialect = opts.Dialect
	}

	run := core.NewTestRun()
	switch command {
	case "parse":
		parseStream(run)
	case "results":
		if err := xunit.ParseResultsDir(opts.Results.Args.Path, run); err != nil {
			log.Fatalf("Failed to parse test results: %s", err)
		}
	case "version":
		fmt.Printf("xcout version %s\n", version)
		os.Exit(0)
	}
	printSummary(run)
	if run.Failures() > 0 {
		os.Exit(1)
	}
}

// parseStream feeds the input through the streaming parser a chunk at a time.
func parseStream(run *core.TestRun) {
	input := os.Stdin
	if f := opts.Parse.Args.File; f != "" && f != "-" {
		var err error
		if input, err = os.Open(f); err != nil {
			log.Fatalf("Failed to open %s: %s", f, err)
		}
		defer input.Close()
	}

	if opts.Parse.SwiftVersion != "" {
		config.Runner.Version = opts.Parse.SwiftVersion
	}
	toolchain, err := config.RunnerVersion()
	if err != nil {
		log.Fatalf("%s", err)
	}
	dialect := config.Dialect()
	log.Info("Parsing %s dialect output", dialect)

	session := &xctest.Session{}
	parse := xctest.NewParser(dialect).ParseResult
	if opts.Parse.Parallel || config.Runner.Parallel {
		parse = xctest.NewParallelParser(dialect, toolchain).ParseResult
	}

	total := 0
	buf := make([]byte, chunkSize)
	for {
		n, err := input.Read(buf)
		if n > 0 {
			total += n
			parse(string(buf[:n]), session, run)
		}
		if err == io.EOF {
			break
		} else if err != nil {
			log.Fatalf("Failed to read input: %s", err)
		}
	}
	log.Info("Parsed %s of test output", humanize.Bytes(uint64(total)))

	// Parallel runs get their lifecycle from the XML report afterwards.
	if (opts.Parse.Parallel || config.Runner.Parallel) && config.Results.Dir != "" {
		if err := xunit.ParseResultsDir(config.Results.Dir, run); err != nil {
			log.Warning("Failed to parse XML results: %s", err)
		}
	}
}

func printSummary(run *core.TestRun) {
	for _, suite := range run.Suites {
		fmt.Printf("%s: %s (%d tests, %d passed, %d failed, %d skipped) in %s\n",
			suite.Name, suite.Status, suite.Tests(), suite.Passes(), suite.Failures(), suite.Skips(), suite.Duration())
		for _, testCase := range suite.TestCases {
			printCase(testCase)
		}
	}
}

func printCase(testCase *core.TestCase) {
	for _, failure := range testCase.Failures() {
		fmt.Printf("    FAIL %s: %s\n", testCase.QualifiedName(), failure.Message)
		if failure.Location != nil {
			fmt.Printf("         at %s:%d\n", failure.Location.File, failure.Location.Line)
		}
		if failure.Diff != nil {
			fmt.Printf("         actual:   %s\n", failure.Diff.Actual)
			fmt.Printf("         expected: %s\n", failure.Diff.Expected)
		}
	}
	if opts.Parse.ShowOutput {
		for _, execution := range testCase.Executions {
			for _, line := range execution.Output {
				fmt.Printf("    > %s\n", line)
			}
		}
	}
}
