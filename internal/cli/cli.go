package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/branchtalk/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("branchtalk", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
branchtalk - Explore the possible futures of a conversation as a live graph.

Usage:
  branchtalk [options] [INPUTS_DIR]

Arguments:
  INPUTS_DIR
    Directory holding context.txt (the conversation so far) and any number
    of <channel>.txt files with additional inputs.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", app.DefaultConfigPath, "Path to the .hcl configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration (shorthand).")
	inputsFlag := flagSet.String("inputs", "", "Path to the inputs directory.")
	iFlag := flagSet.String("i", "", "Path to the inputs directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health, metrics and graph server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	inputs := firstNonEmpty(*inputsFlag, *iFlag)
	if inputs == "" && flagSet.NArg() > 0 {
		inputs = flagSet.Arg(0)
	}
	slog.Debug("Inputs path determined.", "path", inputs)

	if inputs == "" {
		slog.Debug("No inputs path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if *healthPortFlag < 0 || *healthPortFlag > 65535 {
		return nil, false, &ExitError{Code: 2, Message: "invalid healthcheck-port: must be between 0 and 65535"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:      firstNonEmpty(*cFlag, *configFlag),
		InputsPath:      inputs,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
