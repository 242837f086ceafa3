package auth

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceName renders a human-readable device description from a
// User-Agent header for audit records.
func DeviceName(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
