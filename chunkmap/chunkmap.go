package chunkmap

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/rules_sri/digester"
)

// Extensions selected from the script and style directories.
const (
	ScriptExt = ".js"
	StyleExt  = ".css"
)

const workerTemplate = `{{banner}}
const SRI_MAP = {{map}};

self.addEventListener('install', () => self.skipWaiting());

self.addEventListener('fetch', event => {
  const url = new URL(event.request.url);
  if (SRI_MAP[url.pathname] && url.pathname.endsWith('{{script_ext}}')) {
    event.respondWith(
      fetch(new Request(event.request, {
        integrity: SRI_MAP[url.pathname],
        credentials: 'omit'
      }))
    );
  }
});
`

// Map associates a public asset path with its SRI value.
type Map map[string]string

// Builder scans the asset directories of Root and writes the
// worker script.
type Builder struct {
	Root       string
	ScriptDir  string
	StyleDir   string
	WorkerFile string

	// Banner is the worker's leading comment. Each line gets a
	// "// " prefix; {VAR} placeholders are read from
	// StampInfoFiles.
	Banner         string
	StampInfoFiles []string
}

// WorkerPath is where Build writes the worker script.
func (bu *Builder) WorkerPath() string {
	return filepath.Join(bu.Root, bu.WorkerFile)
}

// Scan hashes the scripts and stylesheets found directly in the
// script and style directories. Missing directories are errors.
func (bu *Builder) Scan() (Map, error) {
	const errCtx = "scanning chunks"

	merged := make(Map)

	for _, sd := range []struct {
		dir string
		ext string
	}{
		{dir: bu.ScriptDir, ext: ScriptExt},
		{dir: bu.StyleDir, ext: StyleExt},
	} {
		if err := bu.scanDir(sd.dir, sd.ext, merged); err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return merged, nil
}

func (bu *Builder) scanDir(dir string, ext string, into Map) error {
	full := filepath.Join(bu.Root, dir)

	entries, err := os.ReadDir(full)
	if err != nil {
		return err
	}

	for _, en := range entries {
		if !strings.HasSuffix(en.Name(), ext) {
			continue
		}

		fp := filepath.Join(full, en.Name())

		// Bazel outputs may be symlinks.
		fi, err := os.Stat(fp)
		if err != nil {
			return err
		}

		if !fi.Mode().IsRegular() {
			continue
		}

		sri, err := digester.CalculateIntegrity(fp, digester.Default)
		if err != nil {
			return err
		}

		pub := path.Join("/", filepath.ToSlash(dir), en.Name())
		into[pub] = sri

		slog.Debug("chunk hashed", "path", pub, "integrity", sri)
	}

	return nil
}

// Render returns the worker script embedding mp. Keys are
// emitted in sorted order so equal maps give equal output.
func (bu *Builder) Render(mp Map) ([]byte, error) {
	const errCtx = "rendering worker"

	if mp == nil {
		mp = Map{}
	}

	var js bytes.Buffer

	enc := json.NewEncoder(&js)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(map[string]string(mp)); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	banner, err := bu.banner()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var out bytes.Buffer

	if _, err := fasttemplate.ExecuteStd(
		workerTemplate, "{{", "}}", &out,
		map[string]interface{}{
			"banner":     banner,
			"map":        strings.TrimSuffix(js.String(), "\n"),
			"script_ext": ScriptExt,
		},
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return out.Bytes(), nil
}

// Build scans, renders and writes the worker script, replacing
// any previous version. It returns the scanned map.
func (bu *Builder) Build() (Map, error) {
	const errCtx = "building chunk map"

	mp, err := bu.Scan()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	content, err := bu.Render(mp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile( //nolint:gosec // path from configuration
		bu.WorkerPath(), content, 0o666,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"chunk map written",
		"worker", bu.WorkerFile,
		"entries", len(mp),
	)

	return mp, nil
}
