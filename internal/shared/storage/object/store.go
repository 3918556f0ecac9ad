// Package object stores evaluation artifacts: uploaded source files and provider transcripts.
package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// Store saves and retrieves binary objects by key.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

var (
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrInvalidFileName = errors.New("invalid file name")
)

const (
	uploadsPrefix     = "uploads"
	transcriptsPrefix = "transcripts"
)

// TranscriptKey is where the provider conversation of an evaluation is archived.
func TranscriptKey(evaluationID string) string {
	return path.Join(transcriptsPrefix, evaluationID+".json")
}

// UploadKey is where an uploaded source file for an evaluation is kept. side is "a" or "b".
func UploadKey(evaluationID, side, fileName string) (string, error) {
	name, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join(uploadsPrefix, evaluationID, side+"_"+name), nil
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// CleanKey normalizes a key and rejects absolute or escaping paths.
func CleanKey(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(key), "\\", "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
