package utils

import (
	"net/url"
	"strings"
)

const UnknownSite = "Unknown Site"

// ExtractSiteName returns the host of link without a leading "www.".
func ExtractSiteName(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return UnknownSite
	}
	if !strings.Contains(link, "://") {
		link = "http://" + link
	}

	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return UnknownSite
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
