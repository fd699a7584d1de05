// Package secretbox 加密保存在 Cookie 中的用户 API Key。
//
// 密文格式为 base64(salt | iv | tag | ciphertext)：每次加密使用随机 salt 与 IV，
// 密钥由服务端密钥经 PBKDF2-SHA256 派生，AES-256-GCM 提供认证加密。
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

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 64
	ivLength   = 16
	tagLength  = 16
	keyLength  = 32
	iterations = 100000
)

// ErrEmptySecret 表示未配置服务端密钥。
var ErrEmptySecret = errors.New("secretbox: secret is empty")

// Encrypt 加密明文。空明文返回空串。
func Encrypt(plain, secret string) (string, error) {
	if plain == "" {
		return "", nil
	}
	if secret == "" {
		return "", ErrEmptySecret
	}
	buf := make([]byte, saltLength+ivLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("secretbox: read random: %w", err)
	}
	salt, iv := buf[:saltLength], buf[saltLength:]

	aead, err := newAEAD(secret, salt)
	if err != nil {
		return "", err
	}
	sealed := aead.Seal(nil, iv, []byte(plain), nil)
	ct, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, saltLength+ivLength+tagLength+len(ct))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ct...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt 解密 Encrypt 的输出。任何失败（格式错误、密钥不符、密文被篡改）都返回空串。
func Decrypt(encoded, secret string) string {
	if encoded == "" || secret == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < saltLength+ivLength+tagLength {
		return ""
	}
	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : saltLength+ivLength+tagLength]
	ct := raw[saltLength+ivLength+tagLength:]

	aead, err := newAEAD(secret, salt)
	if err != nil {
		return ""
	}
	sealed := make([]byte, 0, len(ct)+tagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	plain, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return ""
	}
	return string(plain)
}

func newAEAD(secret string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(secret), salt, iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("secretbox: new gcm: %w", err)
	}
	return aead, nil
}
