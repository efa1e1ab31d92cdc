package utils

import (
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in, want string
	}{
		{"~", home},
		{"~/.config/unfilled/unfilled.db", filepath.Join(home, ".config/unfilled/unfilled.db")},
		{"/var/lib/unfilled.db", "/var/lib/unfilled.db"},
		{"relative/x.db", "relative/x.db"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := MustExpandPath("~"); got != home {
		t.Errorf("MustExpandPath(~) = %q, want %q", got, home)
	}
}
