package eval

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func writeTSV(w io.Writer, headers []string, records [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(headers); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

// writeTSVFile creates or truncates path and writes a header row followed by records.
func writeTSVFile(path string, headers []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeTSV(f, headers, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
