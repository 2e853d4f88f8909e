package commands

import (
	"fmt"
	"io"

	"github.com/buddypal/wifiprov/pkg/log"
)

// RunFilter writes the matching events of path to a new log file at output
// and reports the count on w.
func RunFilter(path string, opts Options, output string, w io.Writer) error {
	if output == "" {
		return fmt.Errorf("output file required")
	}
	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	err = each(path, opts, func(event log.Event) error {
		logger.Log(event)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
