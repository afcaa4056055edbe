// Package search knows the regional marketplaces and how to build their
// keyword search URLs.
package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Marketplace is one regional storefront, identified by its hostname.
type Marketplace struct {
	Host string `json:"host" mapstructure:"host"`
}

var defaultHosts = []string{
	"amazon.com",
	"amazon.ca",
	"amazon.co.uk",
	"amazon.de",
	"amazon.es",
	"amazon.fr",
	"amazon.it",
	"amazon.nl",
	"amazon.sa",
	"amazon.ae",
	"amazon.com.au",
	"amazon.com.br",
	"amazon.sg",
	"amazon.com.tr",
	"amazon.co.jp",
	"amazon.in",
}

// DefaultMarketplaces returns the built-in marketplace table in query order.
func DefaultMarketplaces() []Marketplace {
	out := make([]Marketplace, len(defaultHosts))
	for i, h := range defaultHosts {
		out[i] = Marketplace{Host: h}
	}
	return out
}

// ErrInvalidHost is returned by ParseMarketplaces for entries that are not bare hosts.
var ErrInvalidHost = errors.New("invalid marketplace host")

// ParseMarketplaces turns configured hostnames into marketplaces, keeping order.
// Entries must be bare hosts (an optional port is allowed), without scheme or path.
func ParseMarketplaces(hosts []string) ([]Marketplace, error) {
	out := make([]Marketplace, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h == "" || strings.Contains(h, "://") || strings.ContainsAny(h, "/?# ") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHost, h)
		}
		out = append(out, Marketplace{Host: strings.ToLower(h)})
	}
	return out, nil
}

// SearchURL builds the keyword search URL <scheme>://<host>/s?k=<term>.
// An empty scheme means https.
func (m Marketplace) SearchURL(scheme, term string) string {
	if scheme == "" {
		scheme = "https"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     m.Host,
		Path:     "/s",
		RawQuery: url.Values{"k": {term}}.Encode(),
	}
	return u.String()
}

func (m Marketplace) String() string {
	return m.Host
}
