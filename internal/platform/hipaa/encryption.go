// Package hipaa protects patient data at rest.
package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// DocumentCipher seals whole documents with AES-256-GCM. Sealed output is
// base64 text of nonce followed by ciphertext, so it can live in a text
// file or a TEXT column.
type DocumentCipher struct {
	aead cipher.AEAD
}

// NewDocumentCipher creates a cipher from a 32-byte AES-256 key.
func NewDocumentCipher(key []byte) (*DocumentCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("document cipher: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("document cipher: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("document cipher: create GCM: %w", err)
	}

	return &DocumentCipher{aead: aead}, nil
}

// NewDocumentCipherFromHex decodes a 64-character hex key.
func NewDocumentCipherFromHex(hexKey string) (*DocumentCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("document cipher: key is not valid hex: %w", err)
	}
	return NewDocumentCipher(key)
}

// Seal encrypts plaintext under a fresh random nonce.
func (c *DocumentCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("document seal: generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

// Open reverses Seal.
func (c *DocumentCipher) Open(sealed []byte) ([]byte, error) {
	data := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)))
	n, err := base64.StdEncoding.Decode(data, sealed)
	if err != nil {
		return nil, fmt.Errorf("document open: base64 decode: %w", err)
	}
	data = data[:n]

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("document open: ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("document open: %w", err)
	}
	return plaintext, nil
}
