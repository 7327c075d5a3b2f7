package rewriter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/byte4ever/rules_sri/digester"
)

// Origin classifies where a referenced asset lives.
type Origin int

const (
	// OriginLocal is a reference already relative to the output root.
	OriginLocal Origin = iota
	// OriginPublicPath is an absolute URL under a configured public path.
	OriginPublicPath
	// OriginExternal is any other http(s) URL. It is never hashed.
	OriginExternal
)

func (og Origin) String() string {
	switch og {
	case OriginLocal:
		return "local"
	case OriginPublicPath:
		return "public-path"
	default:
		return "external"
	}
}

// Reference is an asset URL found in markup.
type Reference struct {
	Raw    string
	Path   string
	Origin Origin
}

// Rewriter annotates script and stylesheet elements of HTML files
// with integrity metadata for assets found under Root.
type Rewriter struct {
	Root        string
	Algorithm   digester.Algorithm
	PublicPaths []string
}

// Classify decides whether raw points into the output root.
// The longest matching public path is stripped; values that do
// not start with "http" are taken as root-relative already.
func (rw *Rewriter) Classify(raw string) Reference {
	prefix := ""

	for _, pp := range rw.PublicPaths {
		if pp != "" && strings.HasPrefix(raw, pp) && len(pp) > len(prefix) {
			prefix = pp
		}
	}

	switch {
	case prefix != "":
		return Reference{
			Raw:    raw,
			Path:   strings.TrimPrefix(raw, prefix),
			Origin: OriginPublicPath,
		}
	case !strings.HasPrefix(raw, "http"):
		return Reference{Raw: raw, Path: raw, Origin: OriginLocal}
	default:
		return Reference{Raw: raw, Origin: OriginExternal}
	}
}

// Resolve returns the file backing ref, and false when ref is
// external, escapes the root, or names something that is not a
// regular file.
func (rw *Rewriter) Resolve(ref Reference) (string, bool) {
	if ref.Origin == OriginExternal {
		return "", false
	}

	pa := filepath.Join(rw.Root, filepath.FromSlash(ref.Path))

	rel, err := filepath.Rel(rw.Root, pa)
	if err != nil || rel == ".." ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	fi, err := os.Stat(pa)
	if err != nil || !fi.Mode().IsRegular() {
		return "", false
	}

	return pa, true
}

// Rewrite adds integrity and crossorigin attributes to every
// script and stylesheet element whose asset resolves to a local
// file, then overwrites htmlPath with the serialized document.
// It returns the number of annotated elements.
func (rw *Rewriter) Rewrite(htmlPath string) (int, error) {
	const errCtx = "rewriting html"

	doc, err := parseFile(htmlPath)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	annotated := 0

	for _, el := range assetElements(doc) {
		pa, ok := rw.Resolve(rw.Classify(el.url()))
		if !ok {
			continue
		}

		sri, err := digester.CalculateIntegrity(pa, rw.Algorithm)
		if err != nil {
			return annotated, fmt.Errorf("%s: %w", errCtx, err)
		}

		setAttr(el.node, "integrity", sri)
		setAttr(el.node, "crossorigin", "anonymous")

		annotated++
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return annotated, fmt.Errorf("%s: rendering: %w", errCtx, err)
	}

	if err := os.WriteFile( //nolint:gosec // path is caller-provided by design
		htmlPath, buf.Bytes(), 0o666,
	); err != nil {
		return annotated, fmt.Errorf("%s: %w", errCtx, err)
	}

	return annotated, nil
}

func parseFile(pa string) (*html.Node, error) {
	content, err := os.ReadFile(pa) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pa, err)
	}

	return doc, nil
}

type assetElement struct {
	node    *html.Node
	urlAttr string
}

func (el assetElement) url() string {
	val, _ := getAttr(el.node, el.urlAttr)
	return val
}

// assetElements collects <script src> and
// <link rel="stylesheet" href> elements in document order.
func assetElements(doc *html.Node) []assetElement {
	var found []assetElement

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script:
				if _, ok := getAttr(n, "src"); ok {
					found = append(found, assetElement{node: n, urlAttr: "src"})
				}
			case atom.Link:
				rel, _ := getAttr(n, "rel")
				_, hasHref := getAttr(n, "href")

				if hasHref && strings.EqualFold(rel, "stylesheet") {
					found = append(found, assetElement{node: n, urlAttr: "href"})
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}

	return "", false
}

// setAttr replaces key in place so attribute order is kept, or
// appends it.
func setAttr(n *html.Node, key string, val string) {
	for idx := range n.Attr {
		if n.Attr[idx].Namespace == "" && n.Attr[idx].Key == key {
			n.Attr[idx].Val = val
			return
		}
	}

	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
