package sanitizer

import (
	"regexp"
	"strings"
)

var disallowedChars = regexp.MustCompile(`[^A-Za-z0-9]`)
var leadingDigit = regexp.MustCompile(`^[0-9]`)

// SanitizeName creates a string that can be used as a name for HCL resources
func SanitizeName(name string) string {
	sanitized := disallowedChars.ReplaceAllString(strings.ToLower(name), "_")

	// Terraform labels can not start with a digit
	if leadingDigit.MatchString(sanitized) {
		return "_" + sanitized
	}

	return sanitized
}
