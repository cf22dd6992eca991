package solana

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
)

// VerifySignature 校验钱包对消息的分离签名
//
// address 为 base58 公钥，signature 为 base64 编码的 ed25519 签名。
// 任何非法输入（地址、编码、长度）都返回 false 而非报错：
// 输入不合法本身就是"证明失败"，不是系统异常。
func VerifySignature(address, message, signatureB64 string) bool {
	if address == "" || message == "" || signatureB64 == "" {
		return false
	}

	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pubkey[:]), []byte(message), sig)
}
