// Package qr builds the public product URLs encoded in QR codes and renders them.
package qr

import (
	"net/http"
	"net/url"
	"strings"
)

// ProductPath is the public product page route.
const ProductPath = "/product/"

// BuildProductURL returns "<origin>/product/<productID>" with no trailing
// slash or query string.
func BuildProductURL(origin, productID string) string {
	return strings.TrimRight(origin, "/") + ProductPath + url.PathEscape(productID)
}

// ResolveOrigin returns the origin of the browsing context that issued r.
// Proxy headers win over the Host header, and an explicit Origin header wins
// over both. Without a browsing context (nil request, or a request with no
// host such as one built for offline rendering) the fallback is returned.
func ResolveOrigin(r *http.Request, fallback string) string {
	if r == nil {
		return strings.TrimRight(fallback, "/")
	}

	if o := r.Header.Get("Origin"); o != "" && o != "null" {
		if u, err := url.Parse(o); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}

	host := firstValue(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return strings.TrimRight(fallback, "/")
	}

	scheme := firstValue(r.Header.Get("X-Forwarded-Proto"))
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + host
}

// firstValue returns the first entry of a comma separated proxy header.
func firstValue(h string) string {
	if i := strings.IndexByte(h, ','); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}
