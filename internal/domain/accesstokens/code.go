package accesstokens

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	CodeLength = 8

	// Sin 0/O ni 1/I para que el código se pueda dictar.
	// 32 símbolos: un byte & 31 es uniforme.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateCode devuelve CodeLength símbolos de codeAlphabet con crypto/rand.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, CodeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)&(len(codeAlphabet)-1)]
	}
	return string(out), nil
}

// NormalizeCode tolera espacios, guiones y minúsculas al tipear el código.
func NormalizeCode(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, "-", "")
	return strings.ReplaceAll(raw, " ", "")
}

func validCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(codeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// Hasher deriva el valor persistido de un código.
type Hasher interface {
	Hash(code string) string
}

type keyedHasher struct {
	key []byte
}

// NewHasher crea un hash BLAKE2b-256 con clave (pepper). La clave va de 1 a 64 bytes.
func NewHasher(pepper string) (Hasher, error) {
	key := []byte(pepper)
	if len(key) == 0 {
		return nil, errors.New("code pepper required")
	}
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("code pepper too long (max %d bytes)", blake2b.Size)
	}
	// valida la clave una vez; Hash no puede fallar después
	if _, err := blake2b.New256(key); err != nil {
		return nil, err
	}
	return &keyedHasher{key: key}, nil
}

func (h *keyedHasher) Hash(code string) string {
	d, _ := blake2b.New256(h.key)
	d.Write([]byte(code))
	return hex.EncodeToString(d.Sum(nil))
}
