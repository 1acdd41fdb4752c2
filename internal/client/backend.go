package client

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	DefaultBaseURL = "http://localhost:3001" // -ldflags -X mediavault/internal/client.DefaultBaseURL=<default URL>
)

const (
	configDir   = ".mediavault" // This should be in the user's home directory
	baseURLFile = "base_url"    // This should be in the config directory
	envBaseURL  = "MEDIAVAULT_URL"
)

// ResolveBaseURL picks the server URL: the explicit flag value, then
// $MEDIAVAULT_URL, then ~/.mediavault/base_url, then DefaultBaseURL.
func ResolveBaseURL(flag string) (string, error) {
	candidates := []string{flag, os.Getenv(envBaseURL)}
	if home, err := os.UserHomeDir(); err == nil {
		if b, err := os.ReadFile(filepath.Join(home, configDir, baseURLFile)); err == nil {
			candidates = append(candidates, string(b))
		}
	}
	candidates = append(candidates, DefaultBaseURL)

	for _, c := range candidates {
		// remove all \r or \n
		c = strings.ReplaceAll(c, "\r", "")
		c = strings.ReplaceAll(c, "\n", "")
		c = strings.TrimSuffix(strings.TrimSpace(c), "/")
		if c == "" {
			continue
		}
		if _, err := url.ParseRequestURI(c); err != nil {
			return "", err
		}
		return c, nil
	}
	return "", errors.New("no server URL configured")
}

// GetHTTPClient returns an HTTP client that respects proxy environment variables
// (HTTP_PROXY, HTTPS_PROXY, NO_PROXY)
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}
