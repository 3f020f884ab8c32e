package sanitize

import "regexp"

var (
	// schemeRelativePattern matches a //host reference right after a quote
	// or an opening parenthesis.
	schemeRelativePattern = regexp.MustCompile(`(?i)(["'(])\s*//[^\s"'<>)]*`)

	// absoluteURLPattern matches any http or https URL.
	absoluteURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>)]*`)
)

// Scrub removes every remaining absolute or scheme-relative URL from the
// serialized document text and returns the result with the number of URLs
// removed. It works on raw text, so URLs inside comments, text and
// attribute values are all affected.
func Scrub(text string) (string, int) {
	n := len(schemeRelativePattern.FindAllStringIndex(text, -1))
	text = schemeRelativePattern.ReplaceAllString(text, "${1}")

	n += len(absoluteURLPattern.FindAllStringIndex(text, -1))
	text = absoluteURLPattern.ReplaceAllString(text, "")

	return text, n
}
