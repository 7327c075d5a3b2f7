package rewriter_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/rules_sri/digester"
	"github.com/byte4ever/rules_sri/rewriter"
)

func TestCheck_reports_missing_integrity(t *testing.T) {
	t.Parallel()

	dir := newFixture(t)
	htmlPath := writeTemp(
		t, dir, "index.html",
		`<html><head>`+
			`<script src="/js/app.123.js"></script>`+
			`<script src="/js/gone.js"></script>`+
			`</head></html>`,
	)

	rw := rewriter.Rewriter{Root: dir, Algorithm: digester.Default}

	findings, err := rw.Check(htmlPath)

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, rewriter.Finding{
		File:   htmlPath,
		Raw:    "/js/app.123.js",
		Path:   filepath.Join(dir, "js", "app.123.js"),
		Want:   appJSSRI,
		Status: rewriter.StatusMissing,
	}, findings[0])
	assert.Equal(
		t,
		htmlPath+": /js/app.123.js missing",
		findings[0].String(),
	)
}

func TestCheck_clean_after_rewrite(t *testing.T) {
	t.Parallel()

	dir := newFixture(t)
	htmlPath := writeTemp(
		t, dir, "index.html",
		`<html><head>`+
			`<link rel="stylesheet" href="/css/main.css">`+
			`<script src="/js/app.123.js"></script>`+
			`</head></html>`,
	)

	rw := rewriter.Rewriter{Root: dir, Algorithm: digester.Default}

	_, err := rw.Rewrite(htmlPath)
	require.NoError(t, err)

	before := readFile(t, htmlPath)

	findings, err := rw.Check(htmlPath)

	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Equal(t, before, readFile(t, htmlPath))
}

func TestCheck_reports_stale_integrity(t *testing.T) {
	t.Parallel()

	dir := newFixture(t)
	htmlPath := writeTemp(
		t, dir, "index.html",
		`<html><head><script src="/js/app.123.js"></script></head></html>`,
	)

	rw := rewriter.Rewriter{Root: dir, Algorithm: digester.Default}

	_, err := rw.Rewrite(htmlPath)
	require.NoError(t, err)

	writeTemp(t, dir, "js/app.123.js", "console.log(3);")

	findings, err := rw.Check(htmlPath)

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, rewriter.StatusStale, findings[0].Status)
	assert.Equal(t, appJSSRI, findings[0].Got)
	assert.NotEqual(t, findings[0].Got, findings[0].Want)
}

func TestCheck_malformed_integrity_is_stale(t *testing.T) {
	t.Parallel()

	dir := newFixture(t)
	htmlPath := writeTemp(
		t, dir, "index.html",
		`<html><head><script src="/js/app.123.js" integrity="bogus"></script></head></html>`,
	)

	rw := rewriter.Rewriter{Root: dir, Algorithm: digester.Default}

	findings, err := rw.Check(htmlPath)

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, rewriter.StatusStale, findings[0].Status)
	assert.Equal(t, "bogus", findings[0].Got)
}

func TestCheck_missing_html_file(t *testing.T) {
	t.Parallel()

	rw := rewriter.Rewriter{Root: t.TempDir(), Algorithm: digester.Default}

	_, err := rw.Check("/nonexistent/index.html")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking html")
}
