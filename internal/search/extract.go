package search

import (
	"cpuvalue/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const untitled = "Title N/A"

type ExtractOptions struct {
	// ContainerDepth is the number of enclosing divs between a price fragment
	// and the container holding the listing anchor.
	ContainerDepth int
	// LinkHost is prepended to relative listing links.
	LinkHost string
	// TLDs are the domain boundaries used by DeriveDomain.
	TLDs []string
}

func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		ContainerDepth: 7,
		LinkHost:       "www.google.com",
		TLDs:           DefaultTLDs,
	}
}

// ExtractResult holds the listings found in a result page, `Skipped` counts
// price fragments that had no recognizable listing container and
// `PriceErrors` the listings that were given the sentinel price.
type ExtractResult struct {
	Listings    []Listing
	Skipped     int
	PriceErrors []error
}

// isPriceFragment matches elements whose only content is a text node with
// a currency marker.
func isPriceFragment(_ int, s *goquery.Selection) bool {
	text, ok := htmlutil.SoleText(s.Get(0))
	return ok && strings.Contains(text, "$")
}

// Extract finds every price-bearing text fragment in `doc` and recovers the
// listing around it. The result is sorted ascending by price.
func Extract(doc *goquery.Document, opts ExtractOptions) ExtractResult {
	if opts.ContainerDepth <= 0 {
		opts.ContainerDepth = 1
	}

	var result ExtractResult
	doc.Find("span").FilterFunction(isPriceFragment).Each(func(_ int, fragment *goquery.Selection) {
		containers := fragment.ParentsFiltered("div")
		if containers.Length() < opts.ContainerDepth {
			result.Skipped++
			return
		}
		container := containers.Eq(opts.ContainerDepth - 1)

		anchor := container.Find("a[href]").First()
		if anchor.Length() == 0 {
			result.Skipped++
			return
		}
		href := anchor.AttrOr("href", "")
		link := href
		if strings.HasPrefix(href, "/") {
			link = opts.LinkHost + href
		}

		title := htmlutil.SelectionText(anchor.Find("h3").First())
		if title == "" {
			title = untitled
		}

		priceText, _ := htmlutil.SoleText(fragment.Get(0))
		price, err := NormalizePrice(strings.TrimSpace(priceText))
		if err != nil {
			result.PriceErrors = append(result.PriceErrors, err)
			price = PriceUnparsable
		}

		listing, err := NewListing(title, price, DeriveDomain(link, opts.TLDs), link)
		if err != nil {
			result.Skipped++
			return
		}
		result.Listings = append(result.Listings, listing)
	})

	SortByPrice(result.Listings)
	return result
}
