package prompt

import "regexp"

// detectors match credential material that must not leave the host inside a
// prompt. Tool output quotes source lines verbatim, so keys committed to a
// contract repo would otherwise be sent along.
var detectors = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), "private key"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "aws access key"},
	{regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{20,}`), "github token"},
	{regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`), "github token"},
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "google api key"},
	{regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`), "slack token"},
	{regexp.MustCompile(`(?i)sk-[a-z0-9\-_]{20,}`), "openai key"},
	// Hex private keys as used by wallets and deploy scripts.
	{regexp.MustCompile(`\b0x[0-9a-fA-F]{64}\b`), "hex key"},
	{regexp.MustCompile(`(?i)(mnemonic|seed phrase)\s*[:=]\s*["']?([a-z]+ ){11,23}[a-z]+`), "mnemonic"},
	{regexp.MustCompile(`://[^\s/:@]+:[^\s/@]+@`), "url credentials"},
}

// Redact replaces credential-looking substrings with a fixed marker.
func Redact(s string) string {
	for _, d := range detectors {
		s = d.re.ReplaceAllString(s, "[redacted "+d.label+"]")
	}
	return s
}
