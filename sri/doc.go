// Package sri drives a Subresource Integrity pass over a web build output
// directory. Generate rewrites every entry-point HTML file found directly in
// the output directory and writes the chunk map service worker; Check reports
// what Generate would change without touching any file.
package sri
