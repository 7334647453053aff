// Package cli contains helper functions related to flag parsing and logging.
package cli

import (
	"github.com/dustin/go-humanize"
	cli "github.com/peterebden/go-cli-init/v5/flags"
	clilogging "github.com/peterebden/go-cli-init/v5/logging"
)

// KiByte is a re-export for convenience of other things using it.
const KiByte = humanize.KiByte

// A Verbosity is used as a flag to define logging verbosity.
type Verbosity = clilogging.Verbosity

// ParseFlagsOrDie parses the app's flags and dies if unsuccessful.
// Also dies if any unexpected arguments are passed.
// It returns the active command if there is one.
func ParseFlagsOrDie(appname string, data interface{}) string {
	return cli.ParseFlagsOrDie(appname, data, nil)
}

// InitLogging initialises logging backends at the given verbosity.
func InitLogging(verbosity Verbosity) {
	clilogging.InitLogging(verbosity)
}
