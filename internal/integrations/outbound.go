package integrations

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// ErrLocalRequest is returned when a test call would reach the local network.
var ErrLocalRequest = errors.New("requests to the local network are not allowed")

// Endpointer is implemented by providers whose test call goes to a URL taken from props.
type Endpointer interface {
	Endpoint(props map[string]string) string
}

// Allowlist returns the hosts, addresses and CIDR ranges test calls may reach on the local network.
type Allowlist func(ctx context.Context) ([]string, error)

// Resolver looks up the addresses of a host name.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Option configures a Service.
type Option func(*Service)

// WithAllowlist sets the source of the local network allowlist. Without it every
// local address is refused.
func WithAllowlist(allow Allowlist) Option {
	return func(s *Service) { s.allowlist = allow }
}

// WithResolver replaces the DNS resolver used to check endpoints.
func WithResolver(r Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// checkEndpoint refuses endpoints on loopback, private, link local or unspecified
// addresses unless the host or one of its addresses is allowlisted.
func (s *Service) checkEndpoint(ctx context.Context, p Provider, props map[string]string) error {
	e, ok := p.(Endpointer)
	if !ok {
		return nil
	}

	raw := e.Endpoint(props)
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("%w: invalid endpoint %q", ErrTestFailed, raw)
	}

	host := strings.ToLower(u.Hostname())

	var allowed []string
	if s.allowlist != nil {
		if allowed, err = s.allowlist(ctx); err != nil {
			return fmt.Errorf("failed to load outbound allowlist: %w", err)
		}
	}

	if hostAllowed(host, allowed) {
		return nil
	}

	addrs, err := s.lookup(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTestFailed, err)
	}

	for _, addr := range addrs {
		if isLocal(addr) && !addrAllowed(addr, allowed) {
			return fmt.Errorf("%w: %w (%s)", ErrTestFailed, ErrLocalRequest, host)
		}
	}

	return nil
}

func (s *Service) lookup(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}

	return s.resolver.LookupNetIP(ctx, "ip", host)
}

func isLocal(addr netip.Addr) bool {
	addr = addr.Unmap()

	return addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast()
}

// hostAllowed matches host names case insensitively; a leading "*." matches subdomains.
func hostAllowed(host string, allowed []string) bool {
	for _, entry := range allowed {
		entry = strings.ToLower(strings.TrimSpace(entry))

		if h, _, err := net.SplitHostPort(entry); err == nil {
			entry = h
		}

		switch {
		case entry == host:
			return true
		case strings.HasPrefix(entry, "*.") && strings.HasSuffix(host, entry[1:]):
			return true
		}
	}

	return false
}

func addrAllowed(addr netip.Addr, allowed []string) bool {
	addr = addr.Unmap()

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)

		if prefix, err := netip.ParsePrefix(entry); err == nil && prefix.Contains(addr) {
			return true
		}

		if a, err := netip.ParseAddr(entry); err == nil && a.Unmap() == addr {
			return true
		}
	}

	return false
}
