package chunkmap

import (
	"fmt"
	"os"
	"strings"

	"github.com/valyala/fasttemplate"
)

// DefaultBanner heads the worker when no banner is configured.
const DefaultBanner = "Generated service worker"

// banner expands {VAR} placeholders in Banner and turns every
// line into a line comment. Unknown variables are kept as-is.
func (bu *Builder) banner() (string, error) {
	const errCtx = "stamping banner"

	text := bu.Banner
	if text == "" {
		text = DefaultBanner
	}

	stamps, err := loadStamps(bu.StampInfoFiles)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	text = fasttemplate.ExecuteStringStd(text, "{", "}", stamps)

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for idx, line := range lines {
		lines[idx] = strings.TrimRight("// "+line, " ")
	}

	return strings.Join(lines, "\n"), nil
}

// loadStamps merges Bazel workspace status files. Each line is
// "KEY VALUE" split on the first space; other lines are ignored
// and later files win.
func loadStamps(
	infoFiles []string,
) (map[string]interface{}, error) {
	stamps := make(map[string]interface{})

	for _, sf := range infoFiles {
		content, err := os.ReadFile(sf) //nolint:gosec // paths from configuration
		if err != nil {
			return nil, err
		}

		for _, line := range strings.Split(string(content), "\n") {
			if key, val, ok := strings.Cut(line, " "); ok {
				stamps[key] = val
			}
		}
	}

	return stamps, nil
}
