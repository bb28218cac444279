package tools

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Hostnames always rejected, regardless of what they resolve to.
var blockedHostnames = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
}

// Suffixes that name internal or link-local resources.
var blockedSuffixes = []string{
	".localhost",
	".local",
	".internal",
}

// checkSSRF rejects URLs whose host is loopback, private, link-local,
// carrier-grade NAT, a unique-local IPv6 address, or a cloud metadata
// endpoint. Hostnames are resolved and every resulting address checked.
func checkSSRF(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	hostname := normalizeHostname(parsed.Hostname())
	if hostname == "" {
		return fmt.Errorf("missing hostname in URL")
	}

	if blockedHostnames[hostname] {
		return fmt.Errorf("blocked hostname %s", hostname)
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(hostname, suffix) {
			return fmt.Errorf("blocked hostname %s", hostname)
		}
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if err := checkHostIP(ip); err != nil {
			return err
		}
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("unable to resolve host %s", hostname)
	}
	for _, ip := range ips {
		if err := checkHostIP(ip); err != nil {
			return fmt.Errorf("%s resolves to a blocked address", hostname)
		}
	}
	return nil
}

// checkHostIP rejects addresses a coding agent has no business fetching.
func checkHostIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback address not allowed")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified address not allowed")
	case ip.IsPrivate(): // RFC 1918 and IPv6 ULA
		return fmt.Errorf("private address not allowed")
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local address not allowed")
	}
	if ip4 := ip.To4(); ip4 != nil {
		// 0.0.0.0/8 current network
		if ip4[0] == 0 {
			return fmt.Errorf("reserved address not allowed")
		}
		// 100.64.0.0/10 carrier-grade NAT
		if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
			return fmt.Errorf("carrier-grade NAT address not allowed")
		}
	}
	return nil
}

// normalizeHostname lowercases, trims the root-label dot, and unwraps IPv6
// brackets.
func normalizeHostname(hostname string) string {
	h := strings.ToLower(strings.TrimSpace(hostname))
	h = strings.TrimSuffix(h, ".")
	if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		h = h[1 : len(h)-1]
	}
	return h
}
