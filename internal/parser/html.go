package parser

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bteparse/internal/doctree"
	"golang.org/x/net/html"
)

// Link is a PDF reference found on an index page.
type Link struct {
	URL    string          `json:"url"`
	Text   string          `json:"text,omitempty"`
	Type   doctree.DocType `json:"type,omitempty"`
	Year   int             `json:"year,omitempty"`
	Number string          `json:"number,omitempty"`
}

// bteFileRe matches published file names such as "bte5_2024.pdf" and
// "sep12_2023.pdf".
var bteFileRe = regexp.MustCompile(`(?i)^(bte|sep)(\d+)_(\d{4})\.pdf$`)

// ExtractPDFLinks walks an HTML index page and returns the absolute URLs of
// every linked PDF, in document order and without duplicates.
func ExtractPDFLinks(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []Link
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "a":
				if href := attr(n, "href"); href != "" {
					if l, ok := resolvePDF(base, href); ok && !seen[l.URL] {
						seen[l.URL] = true
						l.Text = textContent(n)
						links = append(links, l)
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return links, nil
}

func resolvePDF(base *url.URL, href string) (Link, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Link{}, false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return Link{}, false
	}
	if !strings.EqualFold(path.Ext(abs.Path), ".pdf") {
		return Link{}, false
	}
	abs.Fragment = ""

	l := Link{URL: abs.String()}
	if t, year, number, ok := InferSource(abs.Path); ok {
		l.Type, l.Year, l.Number = t, year, number
	}
	return l, true
}

// InferSource reads the document type, year and number from a published
// file name. ok is false for names that do not follow the convention.
func InferSource(p string) (t doctree.DocType, year int, number string, ok bool) {
	m := bteFileRe.FindStringSubmatch(path.Base(p))
	if m == nil {
		return "", 0, "", false
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return "", 0, "", false
	}
	t = doctree.TypeIssue
	if strings.EqualFold(m[1], "sep") {
		t = doctree.TypeOffprint
	}
	return t, year, strings.TrimLeft(m[2], "0"), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
