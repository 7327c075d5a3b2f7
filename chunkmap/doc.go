// Package chunkmap builds the integrity lookup table for dynamically loaded
// chunks and renders it into a service worker script.
//
// Scan hashes every script and stylesheet directly inside the configured
// asset subdirectories, always with the default sha384 algorithm, keyed by
// public path ("/js/app.123.js"). Render embeds the table in a worker that
// activates immediately and re-issues same-origin script fetches with the
// expected integrity. Build does both and writes the worker under the output
// root. The worker's banner comment accepts {VAR} placeholders filled from
// Bazel workspace status files.
package chunkmap
