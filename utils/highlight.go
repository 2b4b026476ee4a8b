package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightSource writes Python source to w with terminal colors in the given
// chroma theme. An empty theme writes the text unchanged.
func HighlightSource(w io.Writer, source string, theme string) error {
	if theme == "" || theme == "none" {
		_, err := io.WriteString(w, source)
		return err
	}
	return quick.Highlight(w, source, "python", "terminal256", theme)
}

// HighlightLinesWithContext highlights source line by line so long output can
// be interrupted.
func HighlightLinesWithContext(ctx context.Context, w io.Writer, source string, theme string) error {
	lines := strings.Split(source, "\n")

	for i, line := range lines {
		select {
		case <-ctx.Done():
			fmt.Fprintf(w, "\n\n🔄 Output interrupted...\n")
			return ctx.Err()
		default:
		}

		var buf bytes.Buffer
		if err := HighlightSource(&buf, line, theme); err != nil {
			return err
		}
		if i < len(lines)-1 {
			buf.WriteByte('\n')
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	return nil
}
