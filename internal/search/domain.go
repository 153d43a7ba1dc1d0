package search

import (
	"net/url"
	"strings"
)

// redirectPrefixes are stripped from a listing link before the vendor domain
// is read, the longest matching prefix wins.
var redirectPrefixes = []string{
	"www.google.com/url?q=https://",
	"www.google.com/url?q=http://",
	"www.google.com/url?url=https://",
	"www.google.com/url?url=http://",
	"https://www.google.com/url?q=https://",
	"https://www.google.com/url?q=http://",
	"https://",
	"http://",
}

// DefaultTLDs are the top-level-domain boundaries the vendor domain is cut at.
var DefaultTLDs = []string{".com"}

// DeriveDomain reads the vendor domain out of a listing link: the segment
// following the redirect prefix, up to and including the first top-level
// domain boundary in `tlds`. When no boundary is found the host part of the
// segment is used.
func DeriveDomain(link string, tlds []string) string {
	if unescaped, err := url.QueryUnescape(link); err == nil {
		link = unescaped
	}
	segment := link
	bestLen := 0
	for _, p := range redirectPrefixes {
		if len(p) > bestLen && strings.HasPrefix(link, p) {
			segment = link[len(p):]
			bestLen = len(p)
		}
	}

	host := segment
	if end := strings.IndexAny(host, "/?&#:"); end >= 0 {
		host = host[:end]
	}

	cut := -1
	for _, tld := range tlds {
		if tld == "" {
			continue
		}
		for from := 0; from < len(host); {
			idx := strings.Index(host[from:], tld)
			if idx < 0 {
				break
			}
			end := from + idx + len(tld)
			// the boundary must end a dns label
			if end == len(host) || host[end] == '.' {
				if cut < 0 || end < cut {
					cut = end
				}
				break
			}
			from = from + idx + 1
		}
	}
	if cut >= 0 {
		return strings.ToLower(host[:cut])
	}
	return strings.ToLower(host)
}
