package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/byte4ever/rules_sri/chunkmap"
	"github.com/byte4ever/rules_sri/digester"
	"github.com/byte4ever/rules_sri/rewriter"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of a run. It is built once and
// handed to each component.
type Config struct {
	Algorithm      digester.Algorithm `yaml:"algorithm" toml:"algorithm" json:"algorithm"`
	OutputDir      string             `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
	PublicPaths    []string           `yaml:"public_paths" toml:"public_paths" json:"public_paths"`
	EntrySuffix    string             `yaml:"entry_suffix" toml:"entry_suffix" json:"entry_suffix"`
	ScriptDir      string             `yaml:"script_dir" toml:"script_dir" json:"script_dir"`
	StyleDir       string             `yaml:"style_dir" toml:"style_dir" json:"style_dir"`
	WorkerFile     string             `yaml:"worker_file" toml:"worker_file" json:"worker_file"`
	Banner         string             `yaml:"banner" toml:"banner" json:"banner"`
	StampInfoFiles []string           `yaml:"stamp_info_files" toml:"stamp_info_files" json:"stamp_info_files"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Algorithm:   digester.Default,
		OutputDir:   "dist",
		EntrySuffix: "index.html",
		ScriptDir:   "js",
		StyleDir:    "css",
		WorkerFile:  "sri-sw.js",
		Banner:      chunkmap.DefaultBanner,
	}
}

// Load reads a configuration file on top of Default. The format
// follows the extension: .yaml/.yml, .toml or .json. A relative
// output_dir or stamp file is taken relative to the file's
// directory.
func Load(path string) (Config, error) {
	const errCtx = "loading config"

	cfg := Default()
	cfg.OutputDir = ""

	content, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &cfg)
	case ".toml":
		_, err = toml.Decode(string(content), &cfg)
	case ".json":
		err = json.Unmarshal(content, &cfg)
	default:
		return Config{}, fmt.Errorf(
			"%s: %w: unknown config format %q",
			errCtx, ErrInvalid, ext,
		)
	}

	if err != nil {
		return Config{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	base := filepath.Dir(path)

	if cfg.OutputDir == "" {
		cfg.OutputDir = Default().OutputDir
	}

	cfg.OutputDir = relativeTo(base, cfg.OutputDir)

	for idx, sf := range cfg.StampInfoFiles {
		cfg.StampInfoFiles[idx] = relativeTo(base, sf)
	}

	return cfg, nil
}

func relativeTo(base string, pa string) string {
	if filepath.IsAbs(pa) {
		return pa
	}

	return filepath.Join(base, pa)
}

// Validate normalizes the algorithm name and rejects settings
// that cannot describe an output tree.
func (cfg *Config) Validate() error {
	const errCtx = "validating config"

	al, err := digester.ParseAlgorithm(string(cfg.Algorithm))
	if err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, ErrInvalid, err)
	}

	cfg.Algorithm = al

	if cfg.OutputDir == "" {
		return fmt.Errorf("%s: %w: empty output_dir", errCtx, ErrInvalid)
	}

	if cfg.EntrySuffix == "" {
		return fmt.Errorf("%s: %w: empty entry_suffix", errCtx, ErrInvalid)
	}

	for _, kv := range []struct {
		key string
		val string
	}{
		{key: "script_dir", val: cfg.ScriptDir},
		{key: "style_dir", val: cfg.StyleDir},
		{key: "worker_file", val: cfg.WorkerFile},
	} {
		if !filepath.IsLocal(kv.val) {
			return fmt.Errorf(
				"%s: %w: %s must be a path inside output_dir, got %q",
				errCtx, ErrInvalid, kv.key, kv.val,
			)
		}
	}

	for _, pp := range cfg.PublicPaths {
		if pp == "" {
			return fmt.Errorf("%s: %w: empty public path", errCtx, ErrInvalid)
		}
	}

	return nil
}

// Rewriter returns the HTML rewriter for this configuration.
func (cfg *Config) Rewriter() *rewriter.Rewriter {
	return &rewriter.Rewriter{
		Root:        cfg.OutputDir,
		Algorithm:   cfg.Algorithm,
		PublicPaths: cfg.PublicPaths,
	}
}

// Builder returns the chunk map builder for this configuration.
func (cfg *Config) Builder() *chunkmap.Builder {
	return &chunkmap.Builder{
		Root:           cfg.OutputDir,
		ScriptDir:      cfg.ScriptDir,
		StyleDir:       cfg.StyleDir,
		WorkerFile:     cfg.WorkerFile,
		Banner:         cfg.Banner,
		StampInfoFiles: cfg.StampInfoFiles,
	}
}
