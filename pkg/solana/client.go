// Package solana 封装链上交互：支付交易构造、确认等待、余额查询与钱包签名校验。
//
// RPC 客户端无状态，可在并发请求间安全复用。
package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/barkprotocol/blinkshare/config"
)

var (
	// ErrInvalidAddress 地址格式非法（base58 解析失败）
	ErrInvalidAddress = errors.New("钱包地址无效")
	// ErrInsufficientFunds SOL 余额不足以支付
	ErrInsufficientFunds = errors.New("SOL 余额不足")
)

// USDC 主网 mint 地址（6 位小数）
var usdcMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

// Memo 程序地址，用于附加追踪指令
var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

const (
	lamportsPerSol  = 1_000_000_000 // SOL 9 位小数
	usdcBaseUnits   = 1_000_000     // USDC 6 位小数
	confirmInterval = 2 * time.Second
)

// Client 链上客户端
type Client struct {
	rpc            *rpc.Client
	treasury       solana.PublicKey
	confirmTimeout time.Duration
	logger         *zap.Logger
}

// NewClient 创建链上客户端
// 金库地址在启动时解析，非法则直接失败
func NewClient(cfg *config.SolanaConfig, logger *zap.Logger) (*Client, error) {
	treasury, err := solana.PublicKeyFromBase58(cfg.TreasuryAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: 金库地址 %q", ErrInvalidAddress, cfg.TreasuryAddress)
	}

	timeout := cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		rpc:            rpc.New(cfg.RPCURL),
		treasury:       treasury,
		confirmTimeout: timeout,
		logger:         logger,
	}, nil
}

// GetBalance 查询钱包 lamports 余额
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetBalance(ctx, address, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("查询余额失败: %w", err)
	}
	return out.Value, nil
}

