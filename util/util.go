package util

import (
	"regexp"
	"strings"
)

// UserAgent is sent on plain HTTP fetches so media hosts and embed pages
// don't reject the request outright.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/123.0.0.0 Safari/537.36"

var domainRegex = regexp.MustCompile(`(?:https?://)?(?:www\.)?([-a-zA-Z0-9@:%._\+~#=]{1,256}\.[a-zA-Z0-9()]{1,6})/?`)

// GetDomain extracts the domain from a URL, in the form "example.com": no
// "www", no scheme. Unless keepSubdomain is set, only the second-level and
// top-level domain are kept. Returns "" if no domain is present.
func GetDomain(rawURL string, keepSubdomain bool) string {
	match := domainRegex.FindStringSubmatch(rawURL)
	if match == nil {
		return ""
	}

	domain := match[1]
	if !keepSubdomain {
		parts := strings.Split(domain, ".")
		if len(parts) > 2 {
			parts = parts[len(parts)-2:]
		}
		domain = strings.Join(parts, ".")
	}

	return domain
}
