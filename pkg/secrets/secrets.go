package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/scanlyhq/scanly-backend/pkg/config"
)

// additionalData binds ciphertexts to their purpose; changing it
// invalidates everything already stored.
var additionalData = []byte("qr-data")

const nonceSize = 12

// Cipher encrypts and decrypts QR payloads at rest with AES-256-GCM.
// The stored form is a JSON envelope of hex fields so legacy rows written
// by earlier stacks remain readable.
type Cipher struct {
	key []byte
}

type envelope struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
}

// NewCipher validates the configured key (32 bytes, hex encoded).
func NewCipher(cfg config.SecretsConfig) (*Cipher, error) {
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key must be hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (64 hex characters), got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext under a fresh 96-bit nonce and returns the JSON
// envelope string destined for the content/target_url columns.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), additionalData)
	tagStart := len(sealed) - gcm.Overhead()

	out, err := json.Marshal(envelope{
		Encrypted: hex.EncodeToString(sealed[:tagStart]),
		IV:        hex.EncodeToString(iv),
		AuthTag:   hex.EncodeToString(sealed[tagStart:]),
	})
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return string(out), nil
}

// Decrypt opens a stored envelope and returns the original plaintext.
// Any tampering with ciphertext, nonce, or tag fails authentication.
func (c *Cipher) Decrypt(stored string) (string, error) {
	var env envelope
	if err := json.Unmarshal([]byte(stored), &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}

	ciphertext, err := hex.DecodeString(env.Encrypted)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil {
		return "", fmt.Errorf("decode auth tag: %w", err)
	}
	if len(iv) != nonceSize {
		return "", fmt.Errorf("unexpected nonce length %d", len(iv))
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), additionalData)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", err)
	}
	return string(plaintext), nil
}

func (c *Cipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}
