package api

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	// BackendPort is the port the API listens on when only a host is known.
	BackendPort = "8000"
	// BasePath is the path prefix of every API route.
	BasePath = "/api"
)

// BaseOptions are the inputs of base address resolution.
type BaseOptions struct {
	// BackendHost overrides everything else when set ("10.0.0.5" or "10.0.0.5:9000").
	BackendHost string
	// Development enables deriving the API host from the page host.
	Development bool
	// PageHost is the host the browser used to reach the portal.
	PageHost string
	// Upstream is the origin same-origin API paths resolve against.
	Upstream string
}

// ResolveBaseURL picks the API base address. Options are evaluated in order:
// explicit backend host, page host in development when not loopback, then
// the same-origin /api path resolved against the upstream.
func ResolveBaseURL(opts BaseOptions) (*url.URL, error) {
	if host := strings.TrimSpace(opts.BackendHost); host != "" {
		return hostURL(host)
	}

	if opts.Development {
		if host := stripPort(opts.PageHost); host != "" && !isLoopback(host) {
			return hostURL(host)
		}
	}

	upstream, err := url.Parse(opts.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", opts.Upstream, err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q: scheme and host required", opts.Upstream)
	}
	return upstream.JoinPath(BasePath), nil
}

func hostURL(host string) (*url.URL, error) {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(strings.Trim(host, "[]"), BackendPort)
	}
	u, err := url.Parse("http://" + host + BasePath)
	if err != nil {
		return nil, fmt.Errorf("invalid backend host %q: %w", host, err)
	}
	return u, nil
}

func stripPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return strings.Trim(hostport, "[]")
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
