// Package fingerprint produces fixed-length hex digests of byte streams.
// Digests are used both as manifest comparison keys and to checksum the
// deletion-ledger artifact.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Service computes a content digest for a byte stream.
type Service interface {
	// Sum reads the stream to EOF and returns its hex digest.
	Sum(r io.Reader) (string, error)

	// Algorithm returns the name of the digest algorithm.
	Algorithm() string
}

// ErrUnknownAlgorithm is returned when an algorithm name is not recognized.
var ErrUnknownAlgorithm = errors.New("unknown fingerprint algorithm")

// New returns a Service for the named algorithm: "sha256" or "xxhash64".
func New(algorithm string) (Service, error) {
	switch strings.ToLower(algorithm) {
	case "", "sha256":
		return sha256Service{}, nil
	case "xxhash64", "xxhash":
		return xxhashService{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// SumFile opens the file at path and returns its digest under svc.
func SumFile(svc Service, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return svc.Sum(f)
}

// sha256Service is the default cryptographic digest.
type sha256Service struct{}

func (sha256Service) Sum(r io.Reader) (string, error) {
	return sumWith(sha256.New(), r)
}

func (sha256Service) Algorithm() string { return "sha256" }

// xxhashService is a fast non-cryptographic digest for trusted trees.
type xxhashService struct{}

func (xxhashService) Sum(r io.Reader) (string, error) {
	return sumWith(xxhash.New(), r)
}

func (xxhashService) Algorithm() string { return "xxhash64" }

func sumWith(h hash.Hash, r io.Reader) (string, error) {
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
