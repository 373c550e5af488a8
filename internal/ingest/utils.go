// Package ingest discovers input documents on disk and fingerprints them.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/medparams/constants"
)

// AllowedExt checks ext against exts, or constants.AllowedExtensions when exts is nil.
func AllowedExt(ext string, exts map[string]struct{}) bool {
	if exts == nil {
		exts = constants.AllowedExtensions
	}
	_, ok := exts[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// HashFile returns the sha256 of the file contents.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// HashHex is HashFile hex-encoded.
func HashHex(path string) (string, error) {
	sum, err := HashFile(path)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

func extSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = constants.NormalizeExt(e); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}
