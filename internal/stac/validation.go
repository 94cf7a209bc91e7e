package stac

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// ValidateBBox validates a bounding box
func ValidateBBox(bbox catalog.BBox) error {
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]

	// Validate longitude bounds
	if west < -180 || west > 180 {
		return fmt.Errorf("west longitude must be between -180 and 180, got %f", west)
	}
	if east < -180 || east > 180 {
		return fmt.Errorf("east longitude must be between -180 and 180, got %f", east)
	}

	// Validate latitude bounds
	if south < -90 || south > 90 {
		return fmt.Errorf("south latitude must be between -90 and 90, got %f", south)
	}
	if north < -90 || north > 90 {
		return fmt.Errorf("north latitude must be between -90 and 90, got %f", north)
	}

	return bbox.Validate()
}

// ParseDatetimeInterval parses a STAC datetime into the calendar days it
// spans. Supported forms:
// - "2024-01-01T00:00:00Z/2024-01-31T23:59:59Z" (closed interval)
// - "2024-01-01/.." (start only)
// - "../2024-01-31" (end only)
// - ".." or "../.." (open interval, both empty)
// - "2024-01-05T10:00:00Z" (single instant, start and end on that day)
func ParseDatetimeInterval(dt string) (start, end string, err error) {
	dt = strings.TrimSpace(dt)
	if dt == "" {
		return "", "", fmt.Errorf("datetime interval cannot be empty")
	}

	// Handle fully open interval
	if dt == ".." || dt == "../.." {
		return "", "", nil
	}

	if !strings.Contains(dt, "/") {
		day, ok := catalog.NormalizeDate(dt)
		if !ok {
			return "", "", fmt.Errorf("invalid datetime %q, expected RFC 3339", dt)
		}
		return day, day, nil
	}

	parts := strings.Split(dt, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid datetime interval format, expected 'start/end', got: %s", dt)
	}

	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	if startStr != "" && startStr != ".." {
		day, ok := catalog.NormalizeDate(startStr)
		if !ok {
			return "", "", fmt.Errorf("invalid start datetime %q", startStr)
		}
		start = day
	}

	if endStr != "" && endStr != ".." {
		day, ok := catalog.NormalizeDate(endStr)
		if !ok {
			return "", "", fmt.Errorf("invalid end datetime %q", endStr)
		}
		end = day
	}

	if start != "" && end != "" && start > end {
		return "", "", fmt.Errorf("start datetime (%s) must be before or equal to end datetime (%s)", start, end)
	}

	return start, end, nil
}
