package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/google/uuid"
)

// Envelope wraps every CLI result.
type Envelope struct {
	RunID   string `json:"run_id"`
	Model   string `json:"model"`
	Seed    int64  `json:"seed"`
	Results any    `json:"results"`
}

func newEnvelope(model string, seed int64, results any) Envelope {
	return Envelope{RunID: uuid.NewString(), Model: model, Seed: seed, Results: results}
}

func writeEnvelope(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// saveEnvelope writes to path, or to stdout when path is empty.
func saveEnvelope(path string, stdout io.Writer, env Envelope) error {
	if path == "" {
		return writeEnvelope(stdout, env)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeEnvelope(f, env); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
