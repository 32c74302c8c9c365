// Package scrape holds the very basic web-scraping helpers sources use to
// find download links on agency index pages.
package scrape

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

type settings struct {
	warn io.Writer
}

type Option func(*settings)

// WithWarnings routes the zero-match warning to w instead of stderr. A nil
// writer silences it.
func WithWarnings(w io.Writer) Option {
	return func(s *settings) {
		s.warn = w
	}
}

// Hyperlinks returns the set of href targets of all anchor tags in an HTML
// document. When pattern is non-nil only matching targets are returned. The
// parse is best-effort: malformed HTML yields whatever anchors the tokenizer
// can recover, never an error.
//
// A non-empty document that yields zero matches for a pattern usually means
// the upstream page changed shape, so that case logs a warning (to stderr by
// default; see WithWarnings).
func Hyperlinks(doc string, pattern *regexp.Regexp, opts ...Option) map[string]struct{} {
	cfg := settings{warn: os.Stderr}
	for _, apply := range opts {
		if apply != nil {
			apply(&cfg)
		}
	}

	links := make(map[string]struct{})

	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or unrecoverable input; either way we keep what we have.
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := z.TagAttr()
			if string(key) == "href" {
				href := string(val)
				if pattern == nil || pattern.MatchString(href) {
					links[href] = struct{}{}
				}
			}
			if !more {
				break
			}
		}
	}

	if len(links) == 0 && pattern != nil && strings.TrimSpace(doc) != "" && cfg.warn != nil {
		fmt.Fprintf(cfg.warn, "warning: no hyperlinks matched %s; check the filter pattern or whether the page changed shape\n", pattern)
	}
	return links
}

// SortedHyperlinks is Hyperlinks with a deterministic slice result, for
// callers that iterate links to build download tasks.
func SortedHyperlinks(doc string, pattern *regexp.Regexp, opts ...Option) []string {
	set := Hyperlinks(doc, pattern, opts...)
	out := make([]string, 0, len(set))
	for link := range set {
		out = append(out, link)
	}
	sort.Strings(out)
	return out
}
