package session

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "main", false},
		{"digits", "demo2", false},
		{"hyphen", "my-profile", false},
		{"underscore", "my_profile", false},
		{"single char", "a", false},
		{"max length", strings.Repeat("a", 64), false},
		{"empty", "", true},
		{"leading hyphen", "-x", true},
		{"uppercase", "Main", true},
		{"space", "my profile", true},
		{"dot", "..", true},
		{"too long", strings.Repeat("a", 65), true},
		{"slash", "a/b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
