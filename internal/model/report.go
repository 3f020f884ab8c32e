package model

import "time"

// DocumentReport is the outcome of processing one saved article.
// It is created when processing starts and filled in by each pipeline step.
type DocumentReport struct {
	// Source is the input HTML file path.
	Source string `json:"source"`

	// Stem is the input file name without its extension; it names the output directory.
	Stem string `json:"stem"`

	// OutputDir is the final output directory (<output_root>/<stem>).
	OutputDir string `json:"output_dir"`

	// Referer is the Referer header used for every resource request of this document.
	Referer string `json:"referer,omitempty"`

	// DateProcessed is when processing started.
	DateProcessed time.Time `json:"date_processed"`

	// Duration is the wall time spent on this document.
	Duration time.Duration `json:"duration"`

	// Resources lists every local file in first-seen order.
	Resources []Resource `json:"resources,omitempty"`

	// RemovedWallImages is the number of trailing thumbnail images deleted.
	RemovedWallImages int `json:"removed_wall_images"`

	// RemovedElements counts scripts, remote links, embeds and meta tags deleted.
	RemovedElements int `json:"removed_elements"`

	// RemovedAttributes counts attributes deleted because they held a URL.
	RemovedAttributes int `json:"removed_attributes"`

	// RewrittenAnchors counts anchors whose remote href became "#".
	RewrittenAnchors int `json:"rewritten_anchors"`

	// ScrubbedURLs counts URLs removed by the final text scrub.
	ScrubbedURLs int `json:"scrubbed_urls"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that stopped processing, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewDocumentReport creates a report for the given input file.
func NewDocumentReport(source, stem string) *DocumentReport {
	return &DocumentReport{
		Source:        source,
		Stem:          stem,
		DateProcessed: time.Now(),
		Resources:     make([]Resource, 0),
	}
}

// SetError records err as the reason processing failed.
func (r *DocumentReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	} else {
		r.ErrorMessage = ""
	}
}

// Failed reports whether processing of the document failed.
func (r *DocumentReport) Failed() bool {
	return r.ErrorMessage != ""
}

// FetchedCount returns the number of resources fetched successfully.
func (r *DocumentReport) FetchedCount() int {
	n := 0
	for _, res := range r.Resources {
		if !res.Placeholder {
			n++
		}
	}
	return n
}

// PlaceholderCount returns the number of resources replaced by the placeholder.
func (r *DocumentReport) PlaceholderCount() int {
	return len(r.Resources) - r.FetchedCount()
}

// GPSCount returns the number of localized images that carry GPS EXIF data.
func (r *DocumentReport) GPSCount() int {
	n := 0
	for _, res := range r.Resources {
		if res.HasGPS {
			n++
		}
	}
	return n
}
