package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Environment holds the storefront endpoints used by one scenario run.
//
// It is passed by value through the run context. Nothing in the harness
// reads or writes process environment variables after Load returns.
type Environment struct {
	FrontendURL string `json:"frontend_url"`
	BackendURL  string `json:"backend_url"`
}

// WithScheme returns a copy of the environment with both base URLs
// rewritten to the given scheme ("http" or "https").
func (e Environment) WithScheme(scheme string) (Environment, error) {
	frontend, err := RewriteScheme(e.FrontendURL, scheme)
	if err != nil {
		return e, fmt.Errorf("frontend url: %w", err)
	}
	backend, err := RewriteScheme(e.BackendURL, scheme)
	if err != nil {
		return e, fmt.Errorf("backend url: %w", err)
	}
	return Environment{FrontendURL: frontend, BackendURL: backend}, nil
}

// Validate checks that both base URLs are absolute http(s) URLs.
func (e Environment) Validate() error {
	if _, err := parseBaseURL(e.FrontendURL); err != nil {
		return fmt.Errorf("frontend url: %w", err)
	}
	if _, err := parseBaseURL(e.BackendURL); err != nil {
		return fmt.Errorf("backend url: %w", err)
	}
	return nil
}

// RewriteScheme replaces the scheme of an http or https URL.
// Empty input is returned unchanged.
func RewriteScheme(raw, scheme string) (string, error) {
	if raw == "" {
		return raw, nil
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", scheme)
	}
	u, err := parseBaseURL(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = scheme
	return u.String(), nil
}

// Scheme returns the scheme of a base URL, or "" if it cannot be parsed.
func Scheme(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// JoinPath appends a relative path to a base URL, keeping exactly one slash
// between them.
func JoinPath(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	return u, nil
}
