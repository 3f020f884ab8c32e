// Package pipeline turns a saved HTML article into a self-contained offline copy.
//
// Each document is processed by a Pipeline of Steps that share one Job: the
// parsed document, its resource cache and the report being filled in. The
// steps run in a fixed order:
//
//	localize_images        <img> sources fetched and pointed at image/
//	localize_srcset        srcset candidates of <img> and <source>
//	localize_meta          og:image/twitter:image localized, URL metas dropped
//	rewrite_style_blocks   url() tokens in <style> elements
//	rewrite_inline_styles  url() tokens in style attributes
//	remove_image_wall      trailing thumbnail grid removed
//	sanitize_dom           remaining remote elements and attributes removed
//
// Processor wraps a pipeline run with the filesystem work: it builds the
// output in a hidden staging directory next to the final one and renames it
// into place only when everything succeeded. A document therefore either has
// a complete output directory or none at all.
//
// Design decision: the Job is passed explicitly to every step instead of
// being kept in package state. Documents never share a Job or a cache, so a
// BatchProcessor can run several of them at once without locks in the steps.
//
// BatchProcessor drives many documents with errgroup, keeps the reports in
// input order and optionally pauses between groups of documents so that
// image CDNs are not hit in a tight loop.
package pipeline
