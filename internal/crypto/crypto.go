// Package crypto seals submission payloads at rest. A root key seals one
// random data key per tenant; data keys seal queued job payloads, which may
// carry hidden test cases.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const keySize = 32

var (
	ErrInvalidRootKey  = errors.New("root encryption key must be 32 bytes, hex encoded")
	ErrShortCiphertext = errors.New("ciphertext too short")
)

// Keyring holds the root key. It is safe for concurrent use.
type Keyring struct {
	root []byte
}

func NewKeyring(rootKeyHex string) (*Keyring, error) {
	key, err := hex.DecodeString(rootKeyHex)
	if err != nil || len(key) != keySize {
		return nil, ErrInvalidRootKey
	}
	return &Keyring{root: key}, nil
}

// NewDataKey returns a fresh data key and its root-sealed form for storage.
func (k *Keyring) NewDataKey() (plain, sealed []byte, err error) {
	plain = make([]byte, keySize)
	if _, err = io.ReadFull(rand.Reader, plain); err != nil {
		return nil, nil, fmt.Errorf("generate data key: %w", err)
	}
	sealed, err = Seal(k.root, plain, nil)
	if err != nil {
		return nil, nil, err
	}
	return plain, sealed, nil
}

// OpenDataKey unseals a stored data key.
func (k *Keyring) OpenDataKey(sealed []byte) ([]byte, error) {
	plain, err := Open(k.root, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("open data key: %w", err)
	}
	return plain, nil
}

// Seal encrypts plaintext with AES-256-GCM. Output is nonce || ciphertext || tag.
// aad is authenticated but not stored; Open must be given the same value.
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plaintext)+gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func Open(key, data, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(data) < n+gcm.Overhead() {
		return nil, ErrShortCiphertext
	}
	return gcm.Open(nil, data[:n], data[n:], aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
