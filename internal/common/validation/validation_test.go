// internal/common/validation/validation_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentValidator(t *testing.T) {
	v, err := NewDocumentValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid document",
			doc: map[string]interface{}{
				"id":       "refund-policy",
				"title":    "Refund Policy",
				"content":  "Refunds are processed within 5 business days.",
				"category": "billing",
				"tags":     []interface{}{"refund", "billing"},
			},
			wantErr: false,
		},
		{
			name: "missing content",
			doc: map[string]interface{}{
				"id":    "refund-policy",
				"title": "Refund Policy",
			},
			wantErr: true,
		},
		{
			name: "empty id",
			doc: map[string]interface{}{
				"id":      "",
				"title":   "Refund Policy",
				"content": "Some content.",
			},
			wantErr: true,
		},
		{
			name: "wrong tag type",
			doc: map[string]interface{}{
				"id":      "doc",
				"title":   "Doc",
				"content": "Body",
				"tags":    []interface{}{1, 2},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
