// Package sanitize strips producer-supplied card bodies down to a small HTML
// allow-list before they reach persistence or the live channel.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	fontSizePattern       = regexp.MustCompile(`^\d+(?:px|em|rem|%)$`)
	fontWeightPattern     = regexp.MustCompile(`^(?:bold|normal|\d+)$`)
	fontStylePattern      = regexp.MustCompile(`^(?:italic|normal)$`)
	textDecorationPattern = regexp.MustCompile(`^(?:underline|none)$`)
)

var bodyPolicy = newBodyPolicy()

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "span", "div")

	styled := []string{"span", "p", "div"}
	p.AllowAttrs("style").OnElements(styled...)
	p.AllowStyles("font-size").Matching(fontSizePattern).OnElements(styled...)
	p.AllowStyles("font-weight").Matching(fontWeightPattern).OnElements(styled...)
	p.AllowStyles("font-style").Matching(fontStylePattern).OnElements(styled...)
	p.AllowStyles("text-decoration").Matching(textDecorationPattern).OnElements(styled...)

	return p
}

// BodyHTML sanitizes a card body. Disallowed tags, attributes, and style
// properties are removed; the remaining markup is returned unchanged.
func BodyHTML(html string) string {
	return bodyPolicy.Sanitize(html)
}
