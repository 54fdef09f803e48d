package domain

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultEndpointName = "Unknown Endpoint"
	DefaultMethod       = "GET"
)

// Endpoint is one probe target as loaded from the endpoints file.
// It is never mutated after Normalize.
type Endpoint struct {
	Name    string            `json:"name" yaml:"name"`
	URL     string            `json:"url" yaml:"url"`
	Method  string            `json:"method" yaml:"method"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers"`
	Body    any               `json:"body,omitempty" yaml:"body"`
}

// Normalize returns a copy with defaults applied: name, upper-cased method
// and a non-nil header map.
func (e Endpoint) Normalize() Endpoint {
	out := e
	out.Name = strings.TrimSpace(out.Name)
	if out.Name == "" {
		out.Name = DefaultEndpointName
	}
	out.URL = strings.TrimSpace(out.URL)
	out.Method = strings.ToUpper(strings.TrimSpace(out.Method))
	if out.Method == "" {
		out.Method = DefaultMethod
	}
	headers := make(map[string]string, len(e.Headers))
	for k, v := range e.Headers {
		headers[k] = v
	}
	out.Headers = headers
	return out
}

// Domain is the host component of the endpoint URL (port included).
func (e Endpoint) Domain() (string, error) {
	return HostOf(e.URL)
}

// HostOf extracts the lower-cased host of an absolute http(s) URL.
func HostOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url %q: scheme must be http or https", raw)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q: missing host", raw)
	}
	return strings.ToLower(u.Host), nil
}
