package download

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/pulsar-engine/installer/internal/errdefs"
)

// ChecksumFile computes the hex-encoded SHA-256 digest of the file at path,
// streaming it through the hasher rather than loading it into memory.
func ChecksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", &errdefs.IoError{Path: path, Err: err}
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", &errdefs.IoError{Path: path, Err: err}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyChecksum compares the file's SHA-256 digest against expected,
// case-insensitively. On mismatch the file is deliberately left on disk:
// whether to discard a partially-trusted download is the caller's decision.
func VerifyChecksum(path, expected string) error {
	actual, err := ChecksumFile(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return &errdefs.ChecksumMismatch{
			File:     path,
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}
