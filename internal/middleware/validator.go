package middleware

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation for the report API.

var (
	toolNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	runIDPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)
	scpLikePattern  = regexp.MustCompile(`^[A-Za-z0-9_.-]+@([A-Za-z0-9.-]+):[A-Za-z0-9_./~-]+$`)
)

// ValidateToolNames checks the shape of requested names. Whether a tool is
// enabled is decided by the registry, not here.
func ValidateToolNames(names []string) error {
	for _, n := range names {
		if !toolNamePattern.MatchString(n) {
			return fmt.Errorf("invalid tool name: %q", n)
		}
	}
	return nil
}

// ValidateRepoURL accepts https and ssh git remotes, including scp-like
// "git@host:org/repo.git", and rejects local and private hosts.
func ValidateRepoURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if strings.ContainsAny(rawURL, " \t\n\r`$;|&") {
		return fmt.Errorf("invalid characters in URL")
	}
	if strings.HasPrefix(rawURL, "-") {
		return fmt.Errorf("URL must not start with '-'")
	}

	var host string
	if m := scpLikePattern.FindStringSubmatch(rawURL); m != nil {
		host = m[1]
	} else {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if u.Scheme != "https" && u.Scheme != "ssh" {
			return fmt.Errorf("invalid URL scheme: %s (allowed: https, ssh)", u.Scheme)
		}
		host = u.Hostname()
	}
	return validateHost(host)
}

// validateHost is the SSRF guard: loopback, private, link-local and
// unspecified addresses are refused. Names are not resolved.
func validateHost(host string) error {
	host = strings.ToLower(strings.Trim(host, "[]"))
	if host == "" {
		return fmt.Errorf("URL has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("localhost/internal hosts are not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return fmt.Errorf("private IP ranges are not allowed")
		}
	}
	return nil
}

// ValidateLocalPath validates server-side paths named in requests.
func ValidateLocalPath(path string) error {
	if path == "" {
		return nil // Optional field
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute")
	}

	// Block path traversal attempts
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return fmt.Errorf("path traversal detected")
		}
	}

	cleaned := filepath.Clean(path)
	blocked := []string{"/etc", "/proc", "/sys", "/dev", "/root", "/boot"}
	for _, b := range blocked {
		if cleaned == b || strings.HasPrefix(cleaned, b+"/") {
			return fmt.Errorf("access to %s is not allowed", b)
		}
	}

	dangerous := []string{"$(", "`", "&", "|", ";", "\n", "\r", "\x00"}
	for _, d := range dangerous {
		if strings.Contains(path, d) {
			return fmt.Errorf("invalid characters in path")
		}
	}

	return nil
}

// ValidateRunID validates run ID format
func ValidateRunID(id string) error {
	if !runIDPattern.MatchString(id) {
		return fmt.Errorf("invalid run ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
