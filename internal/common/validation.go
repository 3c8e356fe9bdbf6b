package common

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateOutputFormat checks format against the configured formats. An
// empty list allows anything the formatter registry knows.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}
	if slices.ContainsFunc(supportedFormats, func(f string) bool { return strings.EqualFold(f, format) }) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %s",
		format, strings.Join(supportedFormats, ", "))
}

// GetSupportedFormats returns the formats offered for shell completion.
func GetSupportedFormats(supportedFormats []string) []string {
	if len(supportedFormats) == 0 {
		return []string{"json", "text", "markdown"}
	}
	return supportedFormats
}
