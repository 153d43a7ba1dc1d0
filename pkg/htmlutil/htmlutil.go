package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns all the text under `node`, in document order.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// SoleText returns the text of `node` when its only child is a single text
// node, and false otherwise.
func SoleText(node *html.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	child := node.FirstChild
	if child == nil || child.NextSibling != nil || child.Type != html.TextNode {
		return "", false
	}
	return child.Data, true
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters and collapses whitespace.
func CleanText(text string) string {
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	text = innerWhitespace.ReplaceAllString(text, " ")
	return text
}

// SelectionText is CleanText applied to the text of every node in `sel`.
func SelectionText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return CleanText(buffer.String())
}
