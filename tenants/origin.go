package tenants

import (
	"net"
	"strings"
)

// reservedLabels are leading host labels that never name a tenant.
var reservedLabels = map[string]struct{}{
	"www":   {},
	"api":   {},
	"app":   {},
	"admin": {},
}

// SlugFromHost derives a tenant slug from a request origin. A host of the form
// slug.platform.tld yields slug. Hosts with fewer than three labels, IP
// addresses and reserved leading labels yield no slug.
func SlugFromHost(host string) (string, bool) {
	hostname := strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	hostname = strings.TrimSuffix(hostname, ".")
	if hostname == "" || net.ParseIP(hostname) != nil {
		return "", false
	}

	labels := strings.Split(hostname, ".")
	if len(labels) < 3 || labels[0] == "" {
		return "", false
	}
	if _, reserved := reservedLabels[labels[0]]; reserved {
		return "", false
	}
	return labels[0], true
}
