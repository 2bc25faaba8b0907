package library

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// sampleLen is how many leading bytes the pre-filter compares before paying
// for a full digest.
const sampleLen = 4096

// idLen is how much of the digest becomes the record id.
const idLen = 16

// Digest returns the hex SHA-256 of a file's contents.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DeriveID turns a content digest into a record id.
func DeriveID(digest string) string {
	if len(digest) < idLen {
		return digest
	}
	return digest[:idLen]
}

// FindDuplicate decides whether the file at path is a book the store
// already knows. Candidates are narrowed by byte size, then by a leading
// byte sample; a full digest comparison confirms before anything is called
// a duplicate. Rows from before digests existed fall back to
// filename-without-extension equality.
func (s *MetadataStore) FindDuplicate(path string, size int64) (*BookMetadataRecord, error) {
	candidates, err := s.BySize(size)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sample, err := leadingSample(path)
	if err != nil {
		return nil, err
	}

	var digest string // computed at most once
	for i := range candidates {
		cand := &candidates[i]

		known, err := leadingSample(cand.FilePath)
		if err != nil {
			// The stored file may have moved; fall back to the name check.
			if sameStem(path, cand.FilePath) {
				return cand, nil
			}
			continue
		}
		if !bytes.Equal(sample, known) {
			continue
		}

		if cand.Digest == "" {
			// Pre-digest row: the sample match plus a name match is the
			// best evidence available.
			if sameStem(path, cand.FilePath) {
				return cand, nil
			}
			continue
		}

		if digest == "" {
			if digest, err = Digest(path); err != nil {
				return nil, err
			}
		}
		if digest == cand.Digest {
			return cand, nil
		}
		s.log.Debug("byte-sample collision without digest match",
			zap.String("candidate", cand.ID), zap.String("path", path))
	}
	return nil, nil
}

func leadingSample(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sampleLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func sameStem(a, b string) bool {
	stem := func(p string) string {
		base := filepath.Base(p)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return stem(a) != "" && stem(a) == stem(b)
}
