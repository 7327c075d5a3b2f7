// Package rewriter adds Subresource Integrity metadata to HTML entry points.
//
// Script and stylesheet references are classified as root-relative, under a
// configured public path, or external. The first two kinds are resolved below
// the output root and, when the file exists, the element receives integrity
// and crossorigin="anonymous" attributes. Missing assets are skipped without
// error. Documents are parsed leniently with golang.org/x/net/html and written
// back in place.
package rewriter
