package domain

import (
	"net"
	"net/url"
	"strings"
)

// DetectObservableType classifies a raw observable value.
// Feed providers use this when a source does not declare the type itself.
func DetectObservableType(value string) ObservableType {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return URL
	}

	if ip := net.ParseIP(value); ip != nil {
		if ip.To4() != nil {
			return IPv4
		}
		return IPv6
	}

	if isHexHash(value) {
		return FileHash
	}

	return DomainName
}

// isHexHash reports whether the value looks like an MD5, SHA-1 or SHA-256 digest.
func isHexHash(value string) bool {
	switch len(value) {
	case 32, 40, 64:
	default:
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

// NormalizeValue canonicalizes an observable value for storage and matching.
func NormalizeValue(value string, observableType ObservableType) string {
	value = strings.TrimSpace(value)

	switch observableType {
	case URL:
		return strings.TrimSuffix(strings.ToLower(value), "/")
	case DomainName:
		return strings.ToLower(value)
	case FileHash:
		return strings.ToLower(value)
	default:
		return value
	}
}

// ExtractHost pulls the embedded host out of a URL-shaped indicator value so
// a second, narrower indicator can be recorded alongside the original.
// Returns the host and its observable type, or "" when nothing useful is embedded.
func ExtractHost(value string) (string, ObservableType) {
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return "", ""
	}

	u, err := url.Parse(value)
	if err != nil {
		return "", ""
	}

	host := u.Hostname()
	if host == "" || host == value {
		return "", ""
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, IPv4
		}
		return host, IPv6
	}
	return host, DomainName
}
