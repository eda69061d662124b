package logger

import (
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/singer-io/tap-stripe/types"
)

// Protocol messages are framed as newline-delimited JSON on stdout. The sink
// is append-only and single-writer; durability belongs to the consumer.
var (
	outMu  sync.Mutex
	out    = bufio.NewWriter(os.Stdout)
	encode = func(message *types.Message) error {
		outMu.Lock()
		defer outMu.Unlock()

		raw, err := json.Marshal(message)
		if err != nil {
			return err
		}
		if _, err := out.Write(append(raw, '\n')); err != nil {
			return err
		}
		return out.Flush()
	}
)

func emit(message *types.Message) {
	if err := encode(message); err != nil {
		Fatalf("failed to emit %s message: %s", message.Type, err)
	}
}

func LogRecord(stream string, record types.Record, extractedAt time.Time) {
	emit(&types.Message{
		Type:          types.RecordMessage,
		Stream:        stream,
		Record:        record,
		TimeExtracted: &extractedAt,
	})
}

func LogSchema(stream string, schema map[string]any, keyProperties, bookmarkProperties []string) {
	emit(&types.Message{
		Type:               types.SchemaMessage,
		Stream:             stream,
		Schema:             schema,
		KeyProperties:      keyProperties,
		BookmarkProperties: bookmarkProperties,
	})
}

func LogState(state *types.State) {
	emit(&types.Message{
		Type:  types.StateMessage,
		Value: state,
	})
}

// LogCatalog prints the bare discovery document; consumers feed it back as
// the --catalog input.
func LogCatalog(catalog *types.Catalog) {
	outMu.Lock()
	defer outMu.Unlock()

	raw, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		Fatalf("failed to marshal catalog: %s", err)
	}
	if _, err := out.Write(append(raw, '\n')); err == nil {
		_ = out.Flush()
	}
}

func LogConnectionStatus(status types.ConnectionStatus, message string) {
	emit(&types.Message{
		Type: types.ConnectionStatusMessage,
		ConnectionStatus: &types.StatusRow{
			Status:  status,
			Message: message,
		},
	})
}

func LogSpec(spec map[string]any) {
	emit(&types.Message{
		Type: types.SpecMessage,
		Spec: spec,
	})
}
