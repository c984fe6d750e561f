// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anthology

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/anthology-harvester/pkg/types"
)

// Selectors for the listing markup, one exact class signature each. The
// anthology emits these Bootstrap class strings verbatim; attribute-equality
// matches keep a paper block from being confused with the page's other
// p/span/a combinations.
const (
	blockSelector = `p[class="d-sm-flex align-items-stretch"]`
	titleSelector = `span[class="d-block"] > strong > a[class="align-middle"]`
	badgeSelector = `span[class="d-block mr-2 text-nowrap list-button-row"] > a[class="badge badge-primary align-middle mr-1"]`
)

// ParseListing extracts paper entries from a rendered event listing page.
// One entry is produced per paper block carrying a badge whose trimmed text
// is exactly "pdf"; blocks without such a badge are skipped. Entries keep
// the page's document order. Titles have "/" replaced by "_" here so every
// later consumer sees the replaced form. A block whose title is missing
// yields an empty title, never a value carried over from an earlier block.
func ParseListing(r io.Reader, base *url.URL) ([]types.ListingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing listing HTML: %w", err)
	}

	var entries []types.ListingEntry
	doc.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		title := strings.TrimSpace(block.Find(titleSelector).First().Text())
		title = strings.ReplaceAll(title, "/", "_")

		// First "pdf" badge wins; bib, abs, and supplementary badges
		// share the same markup and are passed over by text.
		block.Find(badgeSelector).EachWithBreak(func(_ int, badge *goquery.Selection) bool {
			if strings.TrimSpace(badge.Text()) != "pdf" {
				return true
			}
			href, ok := badge.Attr("href")
			if !ok || href == "" {
				return true
			}
			entries = append(entries, types.ListingEntry{
				Title:  title,
				PDFURL: resolveHref(base, href),
			})
			return false
		})
	})
	return entries, nil
}

// resolveHref makes href absolute against the page URL. The browser resolves
// relative links before following them, so the parser does the same.
func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}
