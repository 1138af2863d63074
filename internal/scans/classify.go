package scans

import "strings"

// Classification is the device/browser/os triple derived from a raw
// User-Agent header at insert time.
type Classification struct {
	Device  string
	Browser string
	OS      string
}

// Classify buckets a User-Agent string. Matching is substring-based and
// order matters: Chrome ships "Safari" in its UA, so Chrome is checked
// first. The ordering is part of the stored-data contract; changing it
// would skew aggregates built over historical rows.
func Classify(userAgent string) Classification {
	out := Classification{Device: "Desktop", Browser: "Other", OS: "Other"}

	if strings.Contains(userAgent, "Mobile") ||
		strings.Contains(userAgent, "Android") ||
		strings.Contains(userAgent, "iPhone") ||
		strings.Contains(userAgent, "iPad") {
		out.Device = "Mobile"
	}

	switch {
	case strings.Contains(userAgent, "Chrome"):
		out.Browser = "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		out.Browser = "Firefox"
	case strings.Contains(userAgent, "Safari"):
		out.Browser = "Safari"
	}

	switch {
	case strings.Contains(userAgent, "Windows"):
		out.OS = "Windows"
	case strings.Contains(userAgent, "Mac"):
		out.OS = "macOS"
	case strings.Contains(userAgent, "Linux"):
		out.OS = "Linux"
	case strings.Contains(userAgent, "Android"):
		out.OS = "Android"
	case strings.Contains(userAgent, "iOS"):
		out.OS = "iOS"
	}

	return out
}
