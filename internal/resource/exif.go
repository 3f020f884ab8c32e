package resource

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// exifInfo is the result of inspecting an image payload.
type exifInfo struct {
	present bool
	gps     bool
}

// inspectEXIF looks for an EXIF block in data and reports whether it has GPS tags.
// Images without an EXIF block report nothing.
func inspectEXIF(data []byte) exifInfo {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return exifInfo{}
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		// The block exists even if its IFDs are damaged.
		return exifInfo{present: true}
	}

	info := exifInfo{present: true}
	for _, entry := range entries {
		// GPSVersionID alone carries no location.
		if strings.HasPrefix(entry.TagName, "GPS") && entry.TagName != "GPSVersionID" {
			info.gps = true
			break
		}
	}
	return info
}
