package chunkmap_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstLines(tb testing.TB, content []byte, n int) []string {
	tb.Helper()

	lines := strings.Split(string(content), "\n")
	require.GreaterOrEqual(tb, len(lines), n)

	return lines[:n]
}

func TestRender_banner_stamps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sf := writeTemp(
		t, dir, "stable-status.txt",
		"BUILD_SCM_REVISION deadbeef\nBUILD_USER alice\nBADLINE\n",
	)

	bu := newBuilder(dir)
	bu.Banner = "app worker\nrevision {BUILD_SCM_REVISION} by {BUILD_USER} {UNKNOWN}"
	bu.StampInfoFiles = []string{sf}

	got, err := bu.Render(nil)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"// app worker",
		"// revision deadbeef by alice {UNKNOWN}",
		"const SRI_MAP = {};",
	}, firstLines(t, got, 3))
}

func TestRender_banner_later_stamp_file_wins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sf1 := writeTemp(t, dir, "s1.txt", "VER 1.0\n")
	sf2 := writeTemp(t, dir, "s2.txt", "VER 2.0\n")

	bu := newBuilder(dir)
	bu.Banner = "v{VER}"
	bu.StampInfoFiles = []string{sf1, sf2}

	got, err := bu.Render(nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"// v2.0"}, firstLines(t, got, 1))
}

func TestRender_banner_blank_line(t *testing.T) {
	t.Parallel()

	bu := newBuilder(t.TempDir())
	bu.Banner = "top\n\nbottom\n"

	got, err := bu.Render(nil)

	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{"// top", "//", "// bottom", "const SRI_MAP = {};"},
		firstLines(t, got, 4),
	)
}

func TestRender_missing_stamp_file(t *testing.T) {
	t.Parallel()

	bu := newBuilder(t.TempDir())
	bu.StampInfoFiles = []string{"/nonexistent/status.txt"}

	_, err := bu.Render(nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stamping banner")
}
