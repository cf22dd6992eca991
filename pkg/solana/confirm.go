package solana

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// AwaitConfirmation 等待交易达到 confirmed 承诺级别
//
// 只返回布尔值，永不返回错误：超时、RPC 异常、链上执行失败一律视为未确认，
// 调用方对"未确认"做统一处理，不关心具体原因。
//
// 实现：先取一次最新 checkpoint（blockhash + 有效高度），随后在确认超时
// （默认 30s）内轮询签名状态；链上高度越过有效高度说明交易已过期，提前结束。
func (c *Client) AwaitConfirmation(ctx context.Context, signature string) bool {
	if signature == "" {
		return false
	}

	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		c.logger.Warn("交易签名格式无效", zap.String("signature", signature))
		return false
	}

	c.logger.Info("等待交易确认", zap.String("signature", signature))

	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
	if err != nil {
		c.logger.Warn("获取 checkpoint 失败", zap.Error(err))
		return false
	}
	lastValidHeight := recent.Value.LastValidBlockHeight

	ticker := time.NewTicker(confirmInterval)
	defer ticker.Stop()

	for {
		confirmed, settled := c.checkSignatureStatus(ctx, sig, lastValidHeight)
		if settled {
			return confirmed
		}

		select {
		case <-ctx.Done():
			// 超时即未确认，不是系统错误
			c.logger.Info("交易确认超时", zap.String("signature", signature))
			return false
		case <-ticker.C:
		}
	}
}

// checkSignatureStatus 查询一次签名状态
// settled=true 表示结果已定（确认成功 / 链上失败 / 交易过期）
func (c *Client) checkSignatureStatus(ctx context.Context, sig solana.Signature, lastValidHeight uint64) (confirmed, settled bool) {
	out, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		c.logger.Warn("查询签名状态失败", zap.Error(err))
		return false, false
	}

	if len(out.Value) > 0 && out.Value[0] != nil {
		status := out.Value[0]
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return status.Err == nil, true
		}
		return false, false
	}

	// 签名尚未出现：检查交易是否已过有效高度
	height, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentProcessed)
	if err != nil {
		return false, false
	}
	if height > lastValidHeight {
		return false, true
	}
	return false, false
}

