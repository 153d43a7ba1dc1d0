package search

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// PriceUnparsable is the price of a listing whose price text could not be
// normalized, it sorts after every real price.
const PriceUnparsable = math.MaxInt

// ErrPriceParse is returned by NormalizePrice for text that is not a price.
var ErrPriceParse = errors.New("unparsable price")

// Listing is a single priced search result.
type Listing struct {
	Title  string `json:"title"`
	Price  int    `json:"price"`
	Source string `json:"source"`
	Link   string `json:"link"`
}

func NewListing(title string, price int, source, link string) (Listing, error) {
	if price < 0 {
		return Listing{}, fmt.Errorf("listing %q: negative price %d", title, price)
	}
	return Listing{
		Title:  title,
		Price:  price,
		Source: source,
		Link:   link,
	}, nil
}

// Unparsable reports whether the listing carries the sentinel price.
func (l Listing) Unparsable() bool {
	return l.Price == PriceUnparsable
}

// NormalizePrice turns a price fragment like "$1,234.56" into whole currency
// units (1234). Everything before the first currency symbol is ignored,
// thousands separators are removed and sub-unit digits are truncated.
func NormalizePrice(text string) (int, error) {
	_, amount, found := strings.Cut(text, "$")
	if !found {
		return 0, fmt.Errorf("%w: %q has no currency symbol", ErrPriceParse, text)
	}
	amount = strings.ReplaceAll(amount, ",", "")
	amount, _, _ = strings.Cut(amount, ".")
	amount = strings.TrimSpace(amount)

	price, err := strconv.Atoi(amount)
	if err != nil || price < 0 {
		return 0, fmt.Errorf("%w: %q", ErrPriceParse, text)
	}
	return price, nil
}

// SortByPrice orders listings ascending by price, listings with the same
// price keep their relative order.
func SortByPrice(listings []Listing) {
	slices.SortStableFunc(listings, func(a, b Listing) int {
		if a.Price < b.Price {
			return -1
		}
		if a.Price > b.Price {
			return 1
		}
		return 0
	})
}
