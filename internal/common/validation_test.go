package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOutputFormat(t *testing.T) {
	all := []string{"json", "text", "markdown"}

	tests := []struct {
		name      string
		format    string
		supported []string
		wantErr   string
	}{
		{name: "json", format: "json", supported: all},
		{name: "markdown", format: "markdown", supported: all},
		{name: "case insensitive", format: "JSON", supported: all},
		{name: "no restriction", format: "yaml"},
		{name: "restricted", format: "markdown", supported: []string{"json"}, wantErr: "Supported formats: json"},
		{name: "unknown", format: "xml", supported: all, wantErr: "unsupported output format 'xml'"},
		{name: "empty", format: "", supported: all, wantErr: "unsupported output format ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json"}, GetSupportedFormats([]string{"json"}))
	assert.Equal(t, []string{"json", "text", "markdown"}, GetSupportedFormats(nil))
}
