package ed25519

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

const (
	PrivateKeySize = ed25519.PrivateKeySize
	PublicKeySize  = ed25519.PublicKeySize
	SignatureSize  = ed25519.SignatureSize
	SeedSize       = ed25519.SeedSize
)

type (
	PublicKey  = ed25519.PublicKey
	PrivateKey = ed25519.PrivateKey
)

var ErrInvalidAuthorization = errors.New("invalid authorization")

func Generate() (PublicKey, PrivateKey, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}

	return publicKey, privateKey, nil
}

func PublicKeyFromBase64(encoded string) (PublicKey, error) {
	bytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(bytes) != PublicKeySize {
		return nil, errors.New("invalid public key size")
	}
	return PublicKey(bytes), nil
}

// Authorization builds the header value sent with a request body:
// base64(public key || signature).
func Authorization(privateKey PrivateKey, body []byte) string {
	publicKey := privateKey.Public().(PublicKey)
	signature := ed25519.Sign(privateKey, body)

	payload := make([]byte, 0, PublicKeySize+SignatureSize)
	payload = append(payload, publicKey...)
	payload = append(payload, signature...)

	return base64.StdEncoding.EncodeToString(payload)
}

// VerifyAuthorization checks header against body and returns the signing key.
func VerifyAuthorization(header string, body []byte) (PublicKey, error) {
	decoded, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAuthorization, err)
	}

	if len(decoded) != PublicKeySize+SignatureSize {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidAuthorization, len(decoded))
	}

	publicKey := PublicKey(decoded[:PublicKeySize])
	signature := decoded[PublicKeySize:]

	if !ed25519.Verify(publicKey, body, signature) {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidAuthorization)
	}

	return publicKey, nil
}

// LoadOrCreateKey reads a seed from path, writing a fresh one if the file
// does not exist.
func LoadOrCreateKey(path string) (PrivateKey, error) {
	seed, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		_, privateKey, err := Generate()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, privateKey.Seed(), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write key file: %w", err)
		}
		return privateKey, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if len(seed) != SeedSize {
		return nil, errors.New("invalid key file size")
	}

	return ed25519.NewKeyFromSeed(seed), nil
}
