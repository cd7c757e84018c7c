package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/udisondev/scale/pkg/protocol"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.conf")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadWellFormed(t *testing.T) {
	path := writeFile(t, "user1:pass1\nuser2:pass2\nuser3:pass3\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("len: got %d, want 3", s.Len())
	}
	if secret, ok := s.Lookup("user2"); !ok || secret != "pass2" {
		t.Errorf("user2: got %q, %v", secret, ok)
	}
}

func TestLoadEmpty(t *testing.T) {
	s, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("len: got %d, want 0", s.Len())
	}
}

func TestLoadMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nonexistent.conf"))
	if !errors.Is(err, protocol.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if s == nil {
		t.Fatal("store should be usable after ErrConfig")
	}
	if s.Len() != 0 {
		t.Errorf("len: got %d, want 0", s.Len())
	}
	if _, ok := s.Lookup("anyone"); ok {
		t.Error("empty store should not identify anyone")
	}
}

func TestLoadMixed(t *testing.T) {
	path := writeFile(t, "user1pass1\nuser2:pass2\n:pass3\nuser4:\nuser5:pass5\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len: got %d, want 2", s.Len())
	}
	for _, login := range []string{"user2", "user5"} {
		if _, ok := s.Lookup(login); !ok {
			t.Errorf("%s should be loaded", login)
		}
	}
	for _, login := range []string{"user1pass1", "user1", "", "user4"} {
		if _, ok := s.Lookup(login); ok {
			t.Errorf("%q should be skipped", login)
		}
	}
}

func TestParseEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		login  string
		secret string
		ok     bool
	}{
		{"last wins", "dup:first\ndup:second\n", "dup", "second", true},
		{"colon in secret", "user:pa:ss\n", "user", "pa:ss", true},
		{"no trailing newline", "user:pass", "user", "pass", true},
		{"crlf", "user:pass\r\n", "user", "pass", true},
		{"only separator", ":\n", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			secret, ok := s.Lookup(tt.login)
			if ok != tt.ok || secret != tt.secret {
				t.Errorf("lookup %q: got (%q, %v), want (%q, %v)", tt.login, secret, ok, tt.secret, tt.ok)
			}
		})
	}
}

func TestParseSkipsLongLines(t *testing.T) {
	long := "big:" + strings.Repeat("x", MaxLineSize*3)
	s, err := Parse(strings.NewReader("a:1\n" + long + "\nb:2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("len: got %d, want 2", s.Len())
	}
	if _, ok := s.Lookup("big"); ok {
		t.Error("over-long line should be skipped")
	}
	if _, ok := s.Lookup("b"); !ok {
		t.Error("line after over-long one should be loaded")
	}
}

func TestParseLineSizeBoundary(t *testing.T) {
	line := func(n int) string {
		return "u:" + strings.Repeat("s", n-2)
	}

	tests := []struct {
		name string
		data string
		want int
	}{
		{"max", line(MaxLineSize) + "\n", 1},
		{"max crlf", line(MaxLineSize) + "\r\n", 1},
		{"max without newline", line(MaxLineSize), 1},
		{"one over", line(MaxLineSize+1) + "\n", 0},
		{"one over crlf", line(MaxLineSize+1) + "\r\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(strings.NewReader(tt.data))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if s.Len() != tt.want {
				t.Errorf("len: got %d, want %d", s.Len(), tt.want)
			}
		})
	}
}
