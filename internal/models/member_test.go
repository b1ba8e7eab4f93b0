package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@example.com", true},
		{"  ana@example.com  ", true},
		{"", false},
		{"   ", false},
		{"ana", false},
		{"ana@", false},
		{"@example.com", false},
		{"ana@example", false},
		{"ana@ex@ample.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}
