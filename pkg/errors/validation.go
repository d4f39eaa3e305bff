package errors

import (
	"strings"
	"unicode"
)

// ValidatePersonID validates a person identifier from an untrusted dataset.
// IDs end up in cache keys, file names, and API routes, so the rules are
// intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidatePersonID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDataset, "person id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidDataset, "person id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDataset, "person id contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates a local dataset file path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a dataset URL for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateOrientation validates a layout orientation flag value.
// An empty value is allowed; callers substitute their default.
func ValidateOrientation(s string) error {
	switch s {
	case "", "vertical", "horizontal":
		return nil
	default:
		return New(ErrCodeInvalidOrientation, "invalid orientation %q (must be vertical or horizontal)", s)
	}
}
