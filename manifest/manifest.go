package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one pair of files to compare.
type Entry struct {
	Line  int
	PathA string
	PathB string
}

// FormatError reports a manifest line that does not hold exactly two paths.
type FormatError struct {
	Line   int
	Fields int
	Text   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("manifest line %d: expected 2 paths, found %d in %q", e.Line, e.Fields, e.Text)
}

// Read parses a manifest. Blank lines are skipped; every other line must hold
// exactly two whitespace-separated paths.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, &FormatError{Line: lineNo, Fields: len(fields), Text: line}
		}

		entries = append(entries, Entry{Line: lineNo, PathA: fields[0], PathB: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return entries, nil
}

// ReadFile opens and parses the manifest at path.
func ReadFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	entries, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}
