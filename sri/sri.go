package sri

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/byte4ever/rules_sri/config"
	"github.com/byte4ever/rules_sri/rewriter"
)

// Report summarizes a Generate run.
type Report struct {
	HTMLFiles  []string
	Annotated  int
	MapEntries int
	WorkerPath string
}

// Generate annotates every entry-point HTML file directly under
// cfg.OutputDir and writes the chunk map worker. The worker is
// built once, before the first entry point; without entry points
// nothing is written. Files rewritten before an error are kept.
func Generate(cfg config.Config) (Report, error) {
	const errCtx = "generating sri"

	var rep Report

	if err := cfg.Validate(); err != nil {
		return rep, fmt.Errorf("%s: %w", errCtx, err)
	}

	entries, err := entryPoints(cfg)
	if err != nil {
		return rep, fmt.Errorf("%s: %w", errCtx, err)
	}

	rw := cfg.Rewriter()
	bu := cfg.Builder()

	for idx, pa := range entries {
		if idx == 0 {
			mp, err := bu.Build()
			if err != nil {
				return rep, fmt.Errorf("%s: %w", errCtx, err)
			}

			rep.MapEntries = len(mp)
			rep.WorkerPath = bu.WorkerPath()
		}

		n, err := rw.Rewrite(pa)
		if err != nil {
			return rep, fmt.Errorf("%s: %w", errCtx, err)
		}

		rep.HTMLFiles = append(rep.HTMLFiles, pa)
		rep.Annotated += n

		slog.Info(
			"sri added",
			"file", relPath(cfg.OutputDir, pa),
			"elements", n,
		)
	}

	slog.Info(
		"sri generation complete",
		"html_files", len(rep.HTMLFiles),
		"elements", rep.Annotated,
	)

	return rep, nil
}

// Check reports entry-point elements whose integrity is missing
// or stale and a worker that differs from a fresh render. Nothing
// is written.
func Check(cfg config.Config) ([]rewriter.Finding, error) {
	const errCtx = "checking sri"

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	entries, err := entryPoints(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(entries) == 0 {
		return nil, nil
	}

	rw := cfg.Rewriter()

	var findings []rewriter.Finding

	for _, pa := range entries {
		found, err := rw.Check(pa)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		findings = append(findings, found...)
	}

	wf, err := checkWorker(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if wf != nil {
		findings = append(findings, *wf)
	}

	return findings, nil
}

func checkWorker(cfg config.Config) (*rewriter.Finding, error) {
	bu := cfg.Builder()

	mp, err := bu.Scan()
	if err != nil {
		return nil, err
	}

	want, err := bu.Render(mp)
	if err != nil {
		return nil, err
	}

	got, err := os.ReadFile(bu.WorkerPath())
	if errors.Is(err, fs.ErrNotExist) {
		return &rewriter.Finding{
			File:   bu.WorkerPath(),
			Status: rewriter.StatusMissing,
		}, nil
	}

	if err != nil {
		return nil, err
	}

	if !bytes.Equal(want, got) {
		return &rewriter.Finding{
			File:   bu.WorkerPath(),
			Status: rewriter.StatusStale,
		}, nil
	}

	return nil, nil
}

// entryPoints lists regular files directly under the output
// directory whose name ends with the entry suffix, sorted by name.
func entryPoints(cfg config.Config) ([]string, error) {
	dirEntries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	var found []string

	for _, de := range dirEntries {
		if !strings.HasSuffix(de.Name(), cfg.EntrySuffix) {
			continue
		}

		pa := filepath.Join(cfg.OutputDir, de.Name())

		fi, err := os.Stat(pa)
		if err != nil {
			return nil, err
		}

		if fi.Mode().IsRegular() {
			found = append(found, pa)
		}
	}

	return found, nil
}

func relPath(base string, pa string) string {
	rel, err := filepath.Rel(base, pa)
	if err != nil {
		return pa
	}

	return rel
}
