package bridge

import (
	"fmt"
	"strings"
)

// Endpoint addresses one end of a link: a scheme selecting the
// transport and a transport-specific path.
//
// KNX group addresses contain slashes ("knx://1/0/7"), so endpoints
// are split on the scheme separator rather than parsed as URLs.
type Endpoint struct {
	Scheme string
	Path   string
}

// ParseEndpoint parses "scheme://path" into an Endpoint.
func ParseEndpoint(s string) (Endpoint, error) {
	scheme, path, found := strings.Cut(s, "://")
	if !found {
		return Endpoint{}, fmt.Errorf("%w: %q missing scheme separator", ErrInvalidEndpoint, s)
	}
	if scheme == "" {
		return Endpoint{}, fmt.Errorf("%w: %q has empty scheme", ErrInvalidEndpoint, s)
	}
	if path == "" {
		return Endpoint{}, fmt.Errorf("%w: %q has empty path", ErrInvalidEndpoint, s)
	}
	return Endpoint{Scheme: scheme, Path: path}, nil
}

// String returns the endpoint in "scheme://path" form.
func (e Endpoint) String() string {
	return e.Scheme + "://" + e.Path
}
