package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/nodegraph/internal/app"
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

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("nodegraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
nodegraph - runs an event-driven node graph on a fixed tick.

Usage:
  nodegraph [options] [GRAPH_PATH]
  nodegraph -search PATTERN

Arguments:
  GRAPH_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and stats server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	tickRateFlag := flagSet.Int("tick-rate", app.DefaultTickRate, "Host ticks per second.")
	durationFlag := flagSet.Duration("duration", 0, "Stop after this long. 0 runs until interrupted.")
	idleFlag := flagSet.Bool("exit-when-idle", false, "Stop once no traces are pending and no relayed triggers are queued.")
	drainFlag := flagSet.Duration("drain-timeout", app.DefaultDrainTimeout, "How long shutdown waits for pending traces before dropping them.")
	relayURLFlag := flagSet.String("relay-url", "", "socket.io server to receive remote triggers from. Empty disables the relay.")
	relayNSFlag := flagSet.String("relay-namespace", "/", "socket.io namespace of the trigger relay.")
	otlpFlag := flagSet.String("otlp-endpoint", "", "OTLP gRPC collector endpoint for traces. Empty disables tracing.")
	searchFlag := flagSet.String("search", "", "List registered node kinds matching PATTERN and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" && *searchFlag == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	if *tickRateFlag <= 0 {
		return nil, false, usageError("invalid tick-rate: must be positive, got %d", *tickRateFlag)
	}
	if *drainFlag <= 0 {
		return nil, false, usageError("invalid drain-timeout: must be positive, got %s", *drainFlag)
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPath:       path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		TickRate:        *tickRateFlag,
		Duration:        *durationFlag,
		ExitWhenIdle:    *idleFlag,
		DrainTimeout:    *drainFlag,
		RelayURL:        *relayURLFlag,
		RelayNamespace:  *relayNSFlag,
		OTLPEndpoint:    *otlpFlag,
		Search:          *searchFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
