package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// sealedV1 prefixes every value sealed with AES-256-GCM. Values without it
// were written before a key was configured and are returned as stored.
const sealedV1 byte = 0x01

var (
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrKeyRequired        = errors.New("sealed value needs DATA_ENCRYPTION_KEY")
)

// Service seals sensitive columns. Without a key it stores plain values so
// local development works without setup.
type Service struct {
	aead cipher.AEAD
}

func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	raw := decodeKey(key)
	if len(raw) != 32 {
		return nil, errors.Errorf("DATA_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(raw))
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, errors.Wrap(err, "aes cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "gcm")
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

// Encrypt returns version | nonce | ciphertext.
func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return plain, nil
	}
	ns := s.aead.NonceSize()
	out := make([]byte, 1+ns, 1+ns+len(plain)+s.aead.Overhead())
	out[0] = sealedV1
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	return s.aead.Seal(out, out[1:], plain, nil), nil
}

func (s *Service) Decrypt(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, nil
	}
	if stored[0] != sealedV1 {
		return stored, nil
	}
	if !s.Configured() {
		return nil, ErrKeyRequired
	}
	ns := s.aead.NonceSize()
	if len(stored) < 1+ns+s.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plain, err := s.aead.Open(nil, stored[1:1+ns], stored[1+ns:], nil)
	return plain, errors.Wrap(err, "open sealed value")
}

func (s *Service) EncryptString(value string) ([]byte, error) {
	return s.Encrypt([]byte(value))
}

func (s *Service) DecryptString(value []byte) (string, error) {
	plain, err := s.Decrypt(value)
	return string(plain), err
}

// decodeKey accepts 64 hex characters, base64, or 32 raw bytes.
func decodeKey(key string) []byte {
	if len(key) == 64 {
		if raw, err := hex.DecodeString(key); err == nil {
			return raw
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if raw, err := enc.DecodeString(key); err == nil && len(raw) == 32 {
			return raw
		}
	}
	return []byte(key)
}
