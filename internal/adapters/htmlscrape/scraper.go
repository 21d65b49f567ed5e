// Package htmlscrape extracts login form fields with the golang.org/x/net/html tokenizer.
// It tolerates markup the lexical scanner in the service package does not, such as
// entity-encoded values and attributes split across lines.
package htmlscrape

import (
	"strings"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/danxi/authgate/internal/ports"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TokenScraper walks the token stream and collects every <input> carrying both a
// non-empty name and a value. Later duplicates overwrite earlier ones.
type TokenScraper struct{}

var _ ports.FormScraper = TokenScraper{}

// Extract returns the name/value pairs of every <input> carrying both attributes, with
// entities decoded, in document order with later duplicates overwriting earlier ones.
func (TokenScraper) Extract(page string) domainauth.FormFields {
	fields := make(domainauth.FormFields)
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return fields
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Input {
				continue
			}
			if name, value, ok := nameValue(tok.Attr); ok {
				fields[name] = value
			}
		default:
		}
	}
}

func nameValue(attrs []html.Attribute) (string, string, bool) {
	var (
		name, value       string
		hasName, hasValue bool
	)
	for _, a := range attrs {
		switch a.Key {
		case "name":
			if !hasName {
				name, hasName = a.Val, true
			}
		case "value":
			if !hasValue {
				value, hasValue = a.Val, true
			}
		}
	}
	if name == "" || !hasValue {
		return "", "", false
	}
	return name, value, true
}
