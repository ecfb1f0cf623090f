// Package utils provides validation helpers shared by the HelloWorld client, topic
// manager and CLI: overlay URL checks, BRC-87 topic and service names, and PushDrop
// signature linkage.
package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// Compiled regex patterns for validation
var (
	// topicServiceNameRegex validates topic or service names based on BRC-87 guidelines.
	// Pattern: must start with tm_ or ls_, contain only lowercase letters and underscores
	topicServiceNameRegex = regexp.MustCompile(`^(?:tm_|ls_)[a-z]+(?:_[a-z]+)*$`)
)

// IsValidOverlayURL reports whether rawURL can be used as an overlay base URL: an
// absolute http or https URL with a host and no query or fragment.
//
// Examples:
//   - Valid: "https://overlay.example", "http://localhost:8080", "https://host/base/"
//   - Invalid: "overlay.example", "ftp://host", "https://", "https://host?x=1"
func IsValidOverlayURL(rawURL string) bool {
	if strings.TrimSpace(rawURL) != rawURL || rawURL == "" {
		return false
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch strings.ToLower(parsedURL.Scheme) {
	case "http", "https":
	default:
		return false
	}

	if parsedURL.Hostname() == "" || parsedURL.User != nil {
		return false
	}

	return parsedURL.RawQuery == "" && parsedURL.Fragment == "" && !parsedURL.ForceQuery
}

// IsValidTopicOrServiceName checks if the provided service name is valid based on BRC-87 guidelines.
//
// Rules:
//   - Must be between 1-50 characters total
//   - Must start with "tm_" (topic) or "ls_" (lookup service) prefix
//   - After prefix, must contain only lowercase letters and underscores
//   - Underscores can only separate groups of lowercase letters (no consecutive underscores)
//
// Examples:
//   - Valid: "tm_helloworld", "ls_helloworld", "tm_chat_messages"
//   - Invalid: "helloworld", "TM_helloworld", "tm_", "tm__double", "tm_helloworld_"
func IsValidTopicOrServiceName(name string) bool {
	if len(name) < 1 || len(name) > 50 {
		return false
	}

	return topicServiceNameRegex.MatchString(name)
}
