package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a tile or wire base name for safety and
// correctness. It rejects names that could be used for path traversal when
// the name becomes part of a file name in the tile store.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// tileNameRegex matches valid tile names: an identifier, optionally with
// dot- or dash-separated segments.
var tileNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*([.-][A-Za-z0-9_]+)*$`)

// ValidateTileName validates a tile name. Tile names become file names in
// the tile store, so they are restricted to a conservative identifier
// grammar.
func ValidateTileName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if !tileNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid tile name: %q", name)
	}

	return nil
}

// wireBaseNameRegex matches valid wire base names (the part before any
// <...> bus suffix).
var wireBaseNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateWireBaseName validates the base name of a wire or bus.
func ValidateWireBaseName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if !wireBaseNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid wire base name: %q", name)
	}

	return nil
}

// ValidatePath validates a file path within the tile store for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}
