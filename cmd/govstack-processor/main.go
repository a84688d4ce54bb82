// Command govstack-processor maps and validates GovStack registration
// documents and serves them over HTTP.
//
// Usage:
//
//	govstack-processor [global flags] <command> [flags] [args]
//
// Commands:
//
//	map       map a document and print the mapped records
//	validate  validate a document against a rule document
//	check     statically check a mapping document
//	serve     serve registrations over HTTP
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) int
}

var commands = []command{
	{name: "map", summary: "map a document and print the mapped records", run: runMap},
	{name: "validate", summary: "validate a document against a rule document", run: runValidate},
	{name: "check", summary: "statically check a mapping document", run: runCheck},
	{name: "serve", summary: "serve registrations over HTTP", run: runServe},
}

// env carries the process streams and the configured logger.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("govstack-processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "log format: text, json")

	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	name := fs.Arg(0)

	i := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if i < 0 {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		fs.Usage()

		return exitUsage
	}

	e := &env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: newLogger(stderr, *logLevel, *logFormat),
	}

	slog.SetDefault(e.logger)

	return commands[i].run(e, fs.Args()[1:])
}

func usage(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintln(w, "Usage: govstack-processor [global flags] <command> [flags] [args]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")

	for _, c := range commands {
		_, _ = fmt.Fprintf(w, "  %-9s %s\n", c.name, c.summary)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Global flags:")
	fs.PrintDefaults()
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level

	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// readInput reads the named file, or stdin when name is empty or "-".
func (e *env) readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(e.stdin)
	}

	return os.ReadFile(name)
}
