// Package validate checks parsed records against the persisted schema
// before they are stored.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/bteparse/internal/doctree"
)

// MinReferenceLen is the shortest accepted reference, in runes.
const MinReferenceLen = 10

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid record")

// Violation is one broken rule, with a path into the record.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Record returns nil when rec satisfies the schema. Otherwise the error
// wraps ErrInvalid and every Violation found.
func Record(rec *doctree.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrInvalid)
	}

	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !rec.Type.Valid() {
		add("type", "unknown document type %q", rec.Type)
	}
	if n := utf8.RuneCountInString(rec.Reference); n < MinReferenceLen {
		add("reference", "too short (%d < %d)", n, MinReferenceLen)
	}
	if _, err := time.Parse(time.DateOnly, rec.ISODate); err != nil {
		add("isoDate", "not a YYYY-MM-DD date: %q", rec.ISODate)
	}
	if !isHTTPURL(rec.SourceURL) {
		add("sourceUrl", "not an absolute http(s) URL: %q", rec.SourceURL)
	}
	for _, v := range Tree(rec.Root) {
		errs = append(errs, v)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Tree reports well-formedness problems in a document tree.
func Tree(root *doctree.Node) []Violation {
	if root == nil {
		return []Violation{{Field: "root", Message: "missing"}}
	}

	var out []Violation
	if root.Kind != doctree.KindRoot {
		out = append(out, Violation{Field: "root.kind", Message: fmt.Sprintf("expected root, got %q", root.Kind)})
	}
	if root.Text != nil {
		out = append(out, Violation{Field: "root.text", Message: "root carries no body text"})
	}
	for i, c := range root.Children {
		out = checkNode(c, fmt.Sprintf("root.children[%d]", i), out)
	}
	return out
}

func checkNode(n *doctree.Node, path string, out []Violation) []Violation {
	if n == nil {
		return append(out, Violation{Field: path, Message: "nil node"})
	}
	switch n.Kind {
	case doctree.KindDiploma, doctree.KindChapter:
	case doctree.KindArticle:
		if n.Text == nil {
			out = append(out, Violation{Field: path + ".text", Message: "article without text"})
		}
		if len(n.Children) > 0 {
			out = append(out, Violation{Field: path + ".children", Message: "article with children"})
		}
	case doctree.KindRoot:
		out = append(out, Violation{Field: path + ".kind", Message: "root below the top level"})
	default:
		out = append(out, Violation{Field: path + ".kind", Message: fmt.Sprintf("unknown kind %q", n.Kind)})
	}
	for i, c := range n.Children {
		out = checkNode(c, fmt.Sprintf("%s.children[%d]", path, i), out)
	}
	return out
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
