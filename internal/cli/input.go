package cli

import (
	"fmt"
	"os"

	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/ingest"
)

// readTable opens and parses an experiment file.
func readTable(path string) (*experiment.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	table, err := ingest.Read(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return table, nil
}
