package observability

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceSummary reduces a User-Agent header to "browser on os", or "bot" for crawlers.
func DeviceSummary(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	browser, _ := ua.Browser()
	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os := strings.ToLower(strings.TrimSpace(ua.OSInfo().Name))
	if os == "" {
		os = "unknown"
	}
	if ua.Mobile() {
		os += " (mobile)"
	}
	return browser + " on " + os
}
