package crfpp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteTemplate emits a CRF++ template with one unigram macro per (offset, column)
// pair and a single bigram line over output labels. Columns are numbered from 0 and
// the label column, which follows the last feature column, is never referenced.
func WriteTemplate(w io.Writer, featureColumns int, window []int) error {
	if featureColumns <= 0 {
		return fmt.Errorf("template needs at least one feature column, got %d", featureColumns)
	}
	if len(window) == 0 {
		window = []int{0}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Unigram")
	id := 0
	for col := 0; col < featureColumns; col++ {
		for _, offset := range window {
			fmt.Fprintf(bw, "U%03d:%%x[%d,%d]\n", id, offset, col)
			id++
		}
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "# Bigram")
	fmt.Fprintln(bw, "B")
	return bw.Flush()
}

func GenerateTemplate(path string, featureColumns int, window []int) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for template %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create template %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteTemplate(f, featureColumns, window); err != nil {
		return fmt.Errorf("failed to write template %s: %w", path, err)
	}
	return f.Close()
}
