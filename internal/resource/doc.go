// Package resource localizes remote resources for a single document.
//
// A Cache maps each normalized remote URL to a file under the document's
// image directory. The first request for a URL fetches it and writes either
// the payload or a transparent placeholder PNG; every later request for the
// same URL returns the same relative path without touching the network.
//
// Filenames are allocated from a counter that starts at 1 and is never
// reused within a document, so the files are named img001, img002 and so on
// in first-seen order.
//
// # Failure Model
//
// Network failures never reach the caller. A failed fetch is recorded on the
// model.Resource and replaced by the placeholder so that the rewritten page
// never references a remote host. Filesystem errors are different: they are
// kept and reported through Err so the document can be failed as a whole.
//
// # Privacy
//
// Fetched images are inspected for EXIF metadata. An image carrying GPS
// coordinates is logged at warn level because the archived copy would keep
// the location of whoever took the photo.
package resource
