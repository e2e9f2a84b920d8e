package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength defines the maximum allowed length for feed and item URLs.
const maxURLLength = 2048

// ValidateURL checks that rawURL is an absolute http or https URL with a host.
// Returns a ValidationError describing the first problem found.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("malformed URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateLanguage checks that lang is a two-letter lowercase tag such as "en" or "fi".
func ValidateLanguage(lang string) error {
	if len(lang) != 2 {
		return &ValidationError{Field: "lang", Message: "must be a two-letter tag"}
	}
	for _, r := range lang {
		if r < 'a' || r > 'z' {
			return &ValidationError{Field: "lang", Message: "must contain lowercase letters only"}
		}
	}
	return nil
}
