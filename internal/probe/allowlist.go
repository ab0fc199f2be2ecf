package probe

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// blockedCIDRs is the fixed SSRF denylist from spec §4.2: loopback,
// link-local, private, carrier-grade NAT, documentation, benchmarking, and
// multicast/reserved ranges, for both IPv4 and IPv6.
var blockedCIDRs = mustParseCIDRs([]string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"192.0.2.0/24",
	"198.18.0.0/15",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
})

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("probe: invalid built-in CIDR %q: %v", c, err))
		}
		out = append(out, n)
	}
	return out
}

// IsBlockedHost reports whether host is disallowed as a probe target:
// "localhost" by name, the unspecified address "::", or an address that
// parses into one of the blocked CIDR ranges.
func IsBlockedHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// Not a literal IP; DNS resolution is left to the transport. We
		// only block what we can see statically here — resolving and
		// re-checking every redirect hop is the caller's job if it wants
		// stronger guarantees.
		return false
	}
	if ip.IsUnspecified() {
		return true
	}
	for _, n := range blockedCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IsAllowedPort reports whether port is in the spec's allow-list: 80, 443,
// or the [1024, 65535] range.
func IsAllowedPort(portStr string) bool {
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return false
	}
	if port == 80 || port == 443 {
		return true
	}
	return port >= 1024 && port <= 65535
}
