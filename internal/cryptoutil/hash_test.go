package cryptoutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestSHA256Hex_KnownVector(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := SHA256Hex(nil); got != want {
		t.Fatalf("SHA256Hex(empty) = %q, want %q", got, want)
	}
}

func TestHashEqual(t *testing.T) {
	h := SHA256Hex([]byte("test"))
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same", h, SHA256Hex([]byte("test")), true},
		{"different", h, SHA256Hex([]byte("other")), false},
		{"both empty", "", "", true},
		{"one empty", h, "", false},
		{"prefix", h, h[:32], false},
		{"case differs", strings.ToUpper(h), h, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashEqual(tt.a, tt.b); got != tt.want {
				t.Fatalf("HashEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSHA256(t *testing.T) {
	h := SHA256Hex([]byte("bundle"))
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", h, h, false},
		{"prefixed", "sha256:" + h, h, false},
		{"upper with space", "  " + strings.ToUpper(h) + "\n", h, false},
		{"short", h[:10], "", true},
		{"not hex", strings.Repeat("z", 64), "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSHA256(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func FuzzSHA256Hex(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("hello"))
	f.Add([]byte{0xff, 0xfe})

	f.Fuzz(func(t *testing.T, data []byte) {
		got := SHA256Hex(data)
		sum := sha256.Sum256(data)
		if got != hex.EncodeToString(sum[:]) {
			t.Fatalf("SHA256Hex mismatch for %x", data)
		}
		if p, err := ParseSHA256(got); err != nil || p != got {
			t.Fatalf("ParseSHA256(%q) = %q, %v", got, p, err)
		}
	})
}
