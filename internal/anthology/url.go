// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anthology builds event listing URLs and extracts paper entries
// from rendered ACL Anthology pages.
package anthology

import "strings"

// eventsBase is the root of the anthology event listings. Declared as a
// variable so tests can substitute an httptest server.
var eventsBase = "https://aclweb.org/anthology/events/"

// EventURL returns the listing URL for an event and year, for example
// https://aclweb.org/anthology/events/acl-2020/. The event name is
// lowercased and the year is used verbatim. Inputs are not validated; a
// malformed pair produces a URL that fails downstream, not an error here.
func EventURL(event, year string) string {
	return eventsBase + strings.ToLower(event) + "-" + year + "/"
}
