package resource

import "encoding/base64"

// placeholderBase64 is a 1x1 transparent PNG.
const placeholderBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR4nGNgYAAAAAMAAbitOmMAAAAASUVORK5CYII="

// placeholderExtension is forced on every placeholder file.
const placeholderExtension = ".png"

// placeholderPNG is decoded once at init; the constant is known to be valid.
var placeholderPNG = mustDecode(placeholderBase64)

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic("resource: invalid placeholder image: " + err.Error())
	}
	return b
}

// Placeholder returns a copy of the placeholder image bytes.
func Placeholder() []byte {
	out := make([]byte, len(placeholderPNG))
	copy(out, placeholderPNG)
	return out
}
