// Package logging holds the structured logger shared by the library and the CLI.
package logging

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Logger is the package-level structured logger. It is usable before Init
// and defaults to the info level.
var Logger = newLogger()

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
}

// Init sets up color detection and the logger level. Call this once at CLI
// startup.
func Init(level string, noColorFlag bool) error {
	noColor := noColorFlag || os.Getenv("NO_COLOR") != ""

	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	Logger = newLogger()
	Logger.SetLevel(lvl)
	if noColor {
		Logger.SetStyles(log.DefaultStyles())
	}
	return nil
}
