package lint

import (
	"regexp"
	"sort"
	"strings"
)

// AllowedHTMLTags are the tags help text may contain unescaped.
var AllowedHTMLTags = []string{
	"a", "abbr", "b", "blockquote", "br", "code", "dd", "del", "details", "div",
	"dl", "dt", "em", "h1", "h2", "h3", "h4", "h5", "h6", "hr", "i", "img", "kbd",
	"li", "ol", "p", "pre", "s", "span", "strong", "sub", "summary", "sup",
	"table", "tbody", "td", "th", "thead", "tr", "u", "ul",
}

var allowedTags = func() map[string]bool {
	m := make(map[string]bool, len(AllowedHTMLTags))
	for _, t := range AllowedHTMLTags {
		m[t] = true
	}
	return m
}()

// Placeholders such as <edge zone> or <os_des> are not tags.
var htmlTagRe = regexp.MustCompile(`<([^ \n_>]+)>`)

// IllegalHTMLTags returns the distinct <tag> names in msg that are neither
// allowed nor wrapped in backticks, sorted.
func IllegalHTMLTags(msg string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range htmlTagRe.FindAllStringSubmatch(msg, -1) {
		tag := m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		if allowedTags[strings.ToLower(strings.Trim(tag, "/"))] || backticked(msg, tag) {
			continue
		}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// backticked reports whether s occurs anywhere inside a `...` span of msg.
func backticked(msg, s string) bool {
	re := regexp.MustCompile("`[^`]*" + regexp.QuoteMeta(s) + "[^`]*`")
	return re.MatchString(msg)
}
