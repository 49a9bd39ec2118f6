// Implements: §4.6 / §6 encryption: AES-256-CBC, key = raw bytes of the
// user-provided password, IV = first 16 bytes of the password bytes,
// PKCS#7 padding. Passwords must be exactly 32 bytes, the AES-256 key
// size, not merely >= 16 (see DESIGN.md).
//
// Uses the standard library crypto/aes and crypto/cipher packages
// (see DESIGN.md for why).
package importexport

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// PasswordSize is the required password length in bytes: exactly 32, the
// AES-256 key size.
const PasswordSize = 32

// ErrInvalidPasswordSize is returned by EncryptArchive/DecryptArchive when
// the password is not exactly PasswordSize bytes.
var ErrInvalidPasswordSize = fmt.Errorf("password must be exactly %d bytes", PasswordSize)

// GeneratePassword returns a new random PasswordSize-byte alphanumeric
// password suitable as an AES-256 key: 32 bytes from crypto/rand, since the
// password is the AES key material itself and not merely a shared secret.
func GeneratePassword() (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, PasswordSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	out := make([]byte, PasswordSize)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// EncryptArchive encrypts plaintext with AES-256-CBC. The key is the full
// password; the IV is the password's first 16 bytes (§6). plaintext is
// PKCS#7-padded to the cipher's block size before encryption.
func EncryptArchive(plaintext []byte, password string) ([]byte, error) {
	block, iv, err := newCipherAndIV(password)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// DecryptArchive reverses EncryptArchive: AES-256-CBC decrypt then strip
// PKCS#7 padding (§4.6 "decrypt with AES-256 CBC ... strip PKCS#7
// padding").
func DecryptArchive(ciphertext []byte, password string) ([]byte, error) {
	block, iv, err := newCipherAndIV(password)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, errors.New("ciphertext is not a multiple of the block size")
	}

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return pkcs7Unpad(out, block.BlockSize())
}

func newCipherAndIV(password string) (cipher.Block, []byte, error) {
	key := []byte(password)
	if len(key) != PasswordSize {
		return nil, nil, ErrInvalidPasswordSize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create AES cipher: %w", err)
	}
	return block, key[:aes.BlockSize], nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte(nil), data...), padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("cannot unpad empty data")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("invalid PKCS#7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("invalid PKCS#7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}
