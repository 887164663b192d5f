// Package secretbox implementa el cifrado simétrico (AES-256-GCM) usado para
// los blobs opacos del broker: el "state" que viaja por el identity provider.
// La clave se inyecta en la construcción; nunca se lee del entorno en runtime.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	nonceSizeGCM      = 12 // AES-GCM nonce recomendado (96 bits)
	requiredKeyLength = 32 // 32 bytes => AES-256
)

// ErrOpen se devuelve cuando el token está malformado, la clave no coincide
// o el ciphertext fue alterado. El caller lo trata como BadRequest.
var ErrOpen = errors.New("secretbox: cannot open token")

// Box cifra y descifra payloads con una clave fija de proceso.
// Inmutable después de New; seguro para uso concurrente.
type Box struct {
	aead cipher.AEAD
}

// New construye un Box a partir de una clave cruda de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, fmt.Errorf("secretbox: key must be %d bytes, got %d", requiredKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// NewFromSecret deriva la clave AES con HKDF-SHA256 a partir de un secreto
// de configuración de largo arbitrario. info separa usos del mismo secreto
// (ej: "flow-state") para que dos Box nunca compartan keystream.
func NewFromSecret(secret, info string) (*Box, error) {
	if secret == "" {
		return nil, errors.New("secretbox: empty secret")
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, requiredKeyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return New(key)
}

// Seal cifra plaintext y devuelve base64url(nonce||ciphertext), sin padding.
// El resultado es seguro para query strings (alfabeto URL-safe).
func (b *Box) Seal(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(ct))
	out = append(out, nonce...)
	out = append(out, ct...)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open descifra un token producido por Seal. Cualquier alteración del token
// (un byte, la clave, el encoding) devuelve ErrOpen; nunca un plaintext parcial.
func (b *Box) Open(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrOpen
	}
	if len(raw) <= nonceSizeGCM {
		return nil, ErrOpen
	}
	nonce, ct := raw[:nonceSizeGCM], raw[nonceSizeGCM:]
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		// gcm auth/decrypt: no distinguimos causas para no filtrar información
		return nil, ErrOpen
	}
	return pt, nil
}
