// Package document loads a saved HTML article into a mutable tree and
// serializes it back.
//
// Loading decodes the bytes to UTF-8, remembers the leading doctype
// declaration and parses the rest with golang.org/x/net/html. Rendering
// writes the remembered doctype on its own line followed by the tree, so a
// page always ends up with exactly one doctype even when the parser kept the
// original declaration as a node.
//
// The package also provides small attribute helpers shared by the
// localization steps.
package document
