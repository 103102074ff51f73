package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func localStorageFullpath(baseDir, bucket, key string) string {
	return filepath.Join(baseDir, bucket, key)
}

// walkFiles calls fn for every regular file below src with its slash separated path
// relative to src.
func walkFiles(src string, fn func(path, rel string) error) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk directory %s: %w", src, err)
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel))
	})
}

func objectKey(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return strings.TrimSuffix(prefix, "/") + "/" + rel
}

func copyFile(dst string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dst, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("failed to write file %s: %w", dst, err)
	}
	return f.Close()
}
