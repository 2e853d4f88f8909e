package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/buddypal/wifiprov/pkg/log"
)

// RunExport exports the matching events of path as jsonl or csv to output,
// or to w when output is empty.
func RunExport(path string, opts Options, format, output string, w io.Writer) error {
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(path, opts, w)
	case "csv":
		return exportCSV(path, opts, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(path string, opts Options, w io.Writer) error {
	encoder := json.NewEncoder(w)
	return each(path, opts, func(event log.Event) error {
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(path string, opts Options, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "direction", "layer", "category", "transport", "type", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return each(path, opts, func(event log.Event) error {
		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.Transport,
			typeLabel(event),
			detail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
}

// detail is a one-field summary of the event payload.
func detail(event log.Event) string {
	switch {
	case event.Write != nil:
		return event.Write.Role + " " + strconv.Itoa(event.Write.Size) + "B"
	case event.Notify != nil:
		return event.Notify.Payload
	case event.StateChange != nil:
		return event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.Attempt != nil:
		return event.Attempt.SSID + " " + event.Attempt.Outcome
	case event.Error != nil:
		return event.Error.Message
	default:
		return ""
	}
}
