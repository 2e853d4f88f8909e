// Command prov-log is a tool for viewing and analyzing provisioning event
// logs.
//
// Log files are written by buddypal-prov when started with --protocol-log
// or with log.protocol_log set in its configuration.
//
// Usage:
//
//	prov-log <command> [flags] <file.plog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	prov-log view device.plog
//
//	# View only Bluetooth writes
//	prov-log view --transport ble --category write device.plog
//
//	# Export connection attempts to CSV
//	prov-log export --category attempt --format csv device.plog
//
//	# Keep one configuration session
//	prov-log filter --session 5f1c2a9e-... -o session.plog device.plog
//
//	# Show statistics
//	prov-log stats device.plog
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/buddypal/wifiprov/cmd/prov-log/commands"
)

const usage = `prov-log - Provisioning Log Analyzer

Usage:
  prov-log <command> [flags] <file.plog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "prov-log <command> --help" for more information about a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	cmd, args := args[0], args[1:]
	var err error
	switch cmd {
	case "view":
		err = runView(args, stdout, stderr)
	case "export":
		err = runExport(args, stdout, stderr)
	case "filter":
		err = runFilter(args, stdout, stderr)
	case "stats":
		err = runStats(args, stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(stderr, usage)
		return 1
	}

	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// newFlagSet returns a flag set carrying the selection flags.
func newFlagSet(name, summary string, stderr io.Writer, opts *commands.Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "prov-log %s - %s\n\nUsage:\n  prov-log %s [flags] <file.plog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.Session, "session", "", "filter by session ID")
	fs.StringVar(&opts.Transport, "transport", "", "filter by transport (ble, ap)")
	fs.StringVar(&opts.Layer, "layer", "", "filter by layer (transport, supervisor, orchestrator)")
	fs.StringVar(&opts.Direction, "direction", "", "filter by direction (in, out, local)")
	fs.StringVar(&opts.Category, "category", "", "filter by category (write, notify, state, attempt, error)")
	fs.StringVar(&opts.Since, "since", "", "events at or after this time (RFC3339)")
	fs.StringVar(&opts.Until, "until", "", "events before this time (RFC3339)")
	return fs
}

// parsePath parses args and returns the log file argument.
func parsePath(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", errors.New("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string, stdout, stderr io.Writer) error {
	var opts commands.Options
	fs := newFlagSet("view", "View log file in human-readable format", stderr, &opts)
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunView(path, opts, stdout)
}

func runExport(args []string, stdout, stderr io.Writer) error {
	var opts commands.Options
	fs := newFlagSet("export", "Export log file to JSONL or CSV format", stderr, &opts)
	format := fs.String("format", "jsonl", "output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "output file (default: stdout)")
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunExport(path, opts, *format, *output, stdout)
}

func runFilter(args []string, stdout, stderr io.Writer) error {
	var opts commands.Options
	fs := newFlagSet("filter", "Filter log file and write to new file", stderr, &opts)
	output := fs.StringP("output", "o", "", "output file (required)")
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunFilter(path, opts, *output, stdout)
}

func runStats(args []string, stdout, stderr io.Writer) error {
	var opts commands.Options
	fs := newFlagSet("stats", "Show statistics about the log file", stderr, &opts)
	path, err := parsePath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, opts, stdout)
}
