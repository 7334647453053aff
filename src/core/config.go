// Utilities for reading the xcout config file.

package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/please-build/gcfg"

	"github.com/thought-machine/xcout/src/xctest"
)

// ConfigFileName is the file we look for in the working directory.
// It is normally checked in alongside the project it describes.
const ConfigFileName = ".xcoutconfig"

// Configuration holds everything the config file can specify.
type Configuration struct {
	Parse struct {
		// Dialect overrides the host platform's marker syntax; "darwin" or "linux".
		Dialect string `gcfg:"dialect"`
	} `gcfg:"parse"`
	Runner struct {
		// Version of the Swift toolchain that produced the output, e.g. "5.6.1".
		Version string `gcfg:"version"`
		// Parallel indicates the output came from a parallel test run.
		Parallel bool `gcfg:"parallel"`
	} `gcfg:"runner"`
	Results struct {
		// Dir is where the runner wrote its whole-run XML report(s).
		Dir string `gcfg:"dir"`
	} `gcfg:"results"`
}

// DefaultConfiguration returns the config used when no file is present.
func DefaultConfiguration() *Configuration {
	config := &Configuration{}
	config.Parse.Dialect = xctest.HostDialect().String()
	return config
}

// ReadConfigFiles reads the config from the given locations, in order.
// Values are overridden by later files. It's not an error for any file
// not to exist.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	if _, ok := xctest.ParseDialect(config.Parse.Dialect); !ok {
		return config, fmt.Errorf("Unknown dialect %s, must be darwin or linux", config.Parse.Dialect)
	}
	if _, err := config.RunnerVersion(); err != nil {
		return config, err
	}
	return config, nil
}

func readConfigFile(config *Configuration, filename string) error {
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // It's not an error to not have the file at all.
	} else if err != nil {
		return err
	}
	log.Debug("Read config from %s", filename)
	return nil
}

// Dialect returns the configured line dialect.
func (config *Configuration) Dialect() xctest.Dialect {
	dialect, _ := xctest.ParseDialect(config.Parse.Dialect)
	return dialect
}

// RunnerVersion returns the configured toolchain version, or nil if unset.
// Swift versions are often written with fewer than three components, so
// "5.6" is padded out to a full semver before parsing.
func (config *Configuration) RunnerVersion() (*semver.Version, error) {
	s := config.Runner.Version
	if s == "" {
		return nil, nil
	}
	for strings.Count(s, ".") < 2 {
		s += ".0"
	}
	version, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("Invalid runner version %s: %s", config.Runner.Version, err)
	}
	return version, nil
}
