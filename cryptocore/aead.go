package cryptocore

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

const (
	gcmIVLen  = 12
	gcmTagLen = 16
)

// AESGCMEncrypt implements CryptoCore.
func (c *defaultCore) AESGCMEncrypt(key, iv, plaintext, aad []byte) ([]byte, []byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != gcmIVLen {
		return nil, nil, fmt.Errorf("%w: iv must be %d bytes", ErrInvalidInput, gcmIVLen)
	}

	sealed := aead.Seal(nil, iv, plaintext, aad)
	ciphertext := sealed[:len(sealed)-gcmTagLen]
	tag := sealed[len(sealed)-gcmTagLen:]
	return ciphertext, tag, nil
}

// AESGCMDecrypt implements CryptoCore.
func (c *defaultCore) AESGCMDecrypt(key, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcmIVLen {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrInvalidInput, gcmIVLen)
	}
	if len(tag) != gcmTagLen {
		return nil, fmt.Errorf("%w: tag must be %d bytes", ErrInvalidInput, gcmTagLen)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be 32 bytes", ErrInvalidInput)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize block cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, gcmTagLen)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize AEAD: %w", err)
	}
	return aead, nil
}
