// Package config defines the settings of an SRI run and loads them from YAML,
// TOML or JSON files. Unset keys keep the values of Default, which reproduce
// the conventional layout: a dist directory with js and css subdirectories,
// index.html entry points and an sri-sw.js worker.
package config
