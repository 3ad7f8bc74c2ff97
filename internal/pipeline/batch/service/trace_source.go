package service

import (
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/pipeline/batch/model"
	"github.com/klauspost/compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoadFiles reads trace files from disk. Files ending in .gz are decompressed.
// A file's modification date anchors its wall clock times. Unreadable files
// are reported as failures and do not stop the others.
func LoadFiles(paths []string) ([]model.TraceSource, []model.ImportFailure) {
	sources := make([]model.TraceSource, 0, len(paths))
	var failures []model.ImportFailure
	for _, path := range paths {
		source, err := loadFile(path)
		if err != nil {
			failures = append(failures, model.ImportFailure{Name: filepath.Base(path), Err: err})
			continue
		}
		sources = append(sources, source)
	}
	return sources, failures
}

// ExpandPaths replaces every directory in paths with the files directly
// inside it.
func ExpandPaths(paths []string) ([]string, error) {
	var expanded []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			expanded = append(expanded, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				expanded = append(expanded, filepath.Join(path, entry.Name()))
			}
		}
	}
	return expanded, nil
}

func loadFile(path string) (model.TraceSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.TraceSource{}, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return model.TraceSource{}, fmt.Errorf("failed to stat trace file: %w", err)
	}

	var reader io.Reader = file
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return model.TraceSource{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		reader = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return model.TraceSource{}, fmt.Errorf("failed to read trace file: %w", err)
	}
	modified := info.ModTime()
	return model.TraceSource{
		Name:    name,
		Text:    string(data),
		LogDate: time.Date(modified.Year(), modified.Month(), modified.Day(), 0, 0, 0, 0, modified.Location()),
	}, nil
}
