package object

import (
	"errors"
	"testing"
)

func TestKeys(t *testing.T) {
	if got := TranscriptKey("abc"); got != "transcripts/abc.json" {
		t.Fatalf("TranscriptKey = %q", got)
	}
	got, err := UploadKey("abc", "a", " essay/draft.pdf ")
	if err != nil {
		t.Fatalf("UploadKey: %v", err)
	}
	if got != "uploads/abc/a_essay_draft.pdf" {
		t.Fatalf("UploadKey = %q", got)
	}
	if _, err := UploadKey("abc", "b", "../../etc/passwd"); !errors.Is(err, ErrInvalidFileName) {
		t.Fatalf("expected ErrInvalidFileName, got %v", err)
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "transcripts/x.json", want: "transcripts/x.json"},
		{key: "uploads//x/./a.pdf", want: "uploads/x/a.pdf"},
		{key: "../secret", wantErr: true},
		{key: "/abs/path", wantErr: true},
		{key: "a/../../b", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.key)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("CleanKey(%q) expected ErrInvalidKey, got %q %v", tt.key, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", tt.key, got, err, tt.want)
		}
	}
}
