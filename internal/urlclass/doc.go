// Package urlclass classifies the URL strings found in saved web articles.
//
// Every pass that touches a resource reference (image src, srcset entry,
// CSS url() token, meta content) asks this package the same questions:
//   - Is the reference remote (http, https or scheme-relative)?
//   - What is its canonical absolute form?
//   - Is it worth fetching as an image, or should it simply be dropped?
//   - Which file extension should the local copy get?
//
// The image heuristics are tuned to the markup conventions of one article
// platform (WeChat official accounts). The marker strings and the extension
// pattern are kept as literal constants.
package urlclass
