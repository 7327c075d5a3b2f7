package rewriter

import (
	"fmt"

	"github.com/byte4ever/rules_sri/digester"
)

// Status describes why a Finding was raised.
type Status string

const (
	StatusMissing Status = "missing"
	StatusStale   Status = "stale"
)

// Finding reports an element, or a generated file, whose integrity
// metadata does not match the asset on disk.
type Finding struct {
	File   string
	Raw    string
	Path   string
	Want   string
	Got    string
	Status Status
}

func (fi Finding) String() string {
	if fi.Raw == "" {
		return fmt.Sprintf("%s: %s", fi.File, fi.Status)
	}

	return fmt.Sprintf("%s: %s %s", fi.File, fi.Raw, fi.Status)
}

// Check walks htmlPath like Rewrite but only reports local assets
// whose element has no integrity attribute or one that does not
// verify. The file is not modified.
func (rw *Rewriter) Check(htmlPath string) ([]Finding, error) {
	const errCtx = "checking html"

	doc, err := parseFile(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var findings []Finding

	for _, el := range assetElements(doc) {
		ref := rw.Classify(el.url())

		pa, ok := rw.Resolve(ref)
		if !ok {
			continue
		}

		want, err := digester.CalculateIntegrity(pa, rw.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		fi := Finding{
			File: htmlPath,
			Raw:  ref.Raw,
			Path: pa,
			Want: want,
		}

		got, present := getAttr(el.node, "integrity")
		if !present {
			fi.Status = StatusMissing
			findings = append(findings, fi)

			continue
		}

		fi.Got = got

		match, err := digester.VerifyIntegrity(pa, got)
		if err != nil || !match {
			fi.Status = StatusStale
			findings = append(findings, fi)
		}
	}

	return findings, nil
}
