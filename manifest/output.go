package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/codesim/similarity"
)

// FormatScores renders one score per line, without a trailing newline.
func FormatScores(scores []float64) string {
	lines := make([]string, len(scores))
	for i, score := range scores {
		lines[i] = similarity.FormatScore(score)
	}
	return strings.Join(lines, "\n")
}

// WriteScores writes the scores to path in a single step. The content goes to a
// temporary file in the same directory which is then renamed over path, so a
// failed run never leaves a half-written result behind.
func WriteScores(path string, scores []float64) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(FormatScores(scores)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set output file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}

	return nil
}
