package fetcher

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// ValidateURL rejects URLs the service must never fetch: non-HTTP schemes,
// missing hosts, loopback, cloud metadata endpoints and private networks.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return errors.New("URL cannot be empty")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return err
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("only HTTP or HTTPS schemes allowed")
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return errors.New("URL must contain a host")
	}

	if isPrivateHost(hostname) {
		return errors.New("access to private networks not allowed")
	}

	return nil
}

func isPrivateHost(hostname string) bool {
	ip := net.ParseIP(hostname)
	if ip != nil {
		return isPrivateIPAddress(ip)
	}

	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasPrefix(hostname, "127.") {
		return true
	}

	if hostname == "169.254.169.254" || hostname == "metadata.google.internal" {
		return true
	}

	internalSuffixes := []string{".local", ".internal", ".corp", ".lan"}
	for _, suffix := range internalSuffixes {
		if strings.HasSuffix(hostname, suffix) {
			return true
		}
	}

	return false
}

func isPrivateIPAddress(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 10:
			return true
		case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
			return true
		case ip4[0] == 192 && ip4[1] == 168:
			return true
		case ip4[0] == 127:
			return true
		}
	}

	if ip6 := ip.To16(); ip6 != nil && ip.To4() == nil {
		if ip6[0] == 0xfe && ip6[1]&0xc0 == 0x80 {
			return true
		}
		if ip6[0]&0xfe == 0xfc {
			return true
		}
	}

	return false
}
