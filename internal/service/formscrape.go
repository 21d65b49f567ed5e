package service

import (
	"regexp"
	"strings"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/danxi/authgate/internal/ports"
)

// Lexical scan of <input> tags. This is not HTML parsing: quoted text is skipped as a unit and
// attributes are walked left to right, but entities are not decoded and script-generated
// inputs are not seen.
var (
	reInputTag  = regexp.MustCompile(`(?is)<input\b((?:[^>"']|"[^"]*"|'[^']*')*)>`)
	reInputAttr = regexp.MustCompile(`(?s)([^\s"'>/=]+)\s*(?:=\s*("[^"]*"|'[^']*'|[^\s"'>]+))?`)
)

// LexicalScraper extracts input fields with regular expressions.
type LexicalScraper struct{}

var _ ports.FormScraper = LexicalScraper{}

// Extract returns the name/value pairs of every <input> carrying both attributes,
// in document order with later duplicates overwriting earlier ones.
func (LexicalScraper) Extract(html string) domainauth.FormFields {
	fields := make(domainauth.FormFields)
	for _, tag := range reInputTag.FindAllStringSubmatch(html, -1) {
		name, value, ok := inputNameValue(tag[1])
		if !ok {
			continue
		}
		fields[name] = value
	}
	return fields
}

func inputNameValue(attrs string) (string, string, bool) {
	// a slash directly before '>' closes the tag; it is not part of the last value
	attrs = strings.TrimSuffix(attrs, "/")

	var (
		name, value       string
		hasName, hasValue bool
	)
	for _, m := range reInputAttr.FindAllStringSubmatch(attrs, -1) {
		v := unquote(m[2])
		switch strings.ToLower(m[1]) {
		case "name":
			if !hasName {
				name, hasName = v, true
			}
		case "value":
			if !hasValue {
				value, hasValue = v, true
			}
		}
	}
	if !hasName || name == "" || !hasValue {
		return "", "", false
	}
	return name, value, true
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
