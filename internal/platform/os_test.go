package platform

import (
	"errors"
	"testing"
)

func TestParseOS(t *testing.T) {
	tests := []struct {
		input   string
		want    OS
		wantErr bool
	}{
		{"windows", Windows, false},
		{"Windows", Windows, false},
		{"win64", Windows, false},
		{"linux", Linux, false},
		{" LINUX ", Linux, false},
		{"macos", MacOS, false},
		{"darwin", MacOS, false},
		{"OSX", MacOS, false},
		{"freebsd", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOS(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownOS) {
					t.Fatalf("ParseOS(%q) error = %v, want ErrUnknownOS", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOS(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseOS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromGOOS(t *testing.T) {
	tests := map[string]OS{
		"windows": Windows,
		"darwin":  MacOS,
		"linux":   Linux,
		"freebsd": Linux,
	}
	for goos, want := range tests {
		if got := fromGOOS(goos); got != want {
			t.Errorf("fromGOOS(%q) = %q, want %q", goos, got, want)
		}
	}
}

func TestCurrentIsValid(t *testing.T) {
	if os := Current(); !os.Valid() {
		t.Errorf("Current() = %q, not a valid OS", os)
	}
}

func TestOSValid(t *testing.T) {
	for _, o := range ValidOSes {
		if !o.Valid() {
			t.Errorf("%q.Valid() = false", o)
		}
	}
	if OS("beos").Valid() {
		t.Error(`OS("beos").Valid() = true`)
	}
}
