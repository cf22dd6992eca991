package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/barkprotocol/blinkshare/internal/model"
)

func TestExportPurchases(t *testing.T) {
	repo, _, _, purchases := newMockRepository()
	svc := NewExportService(repo, testLogger)

	_ = purchases.Create(context.Background(), &model.RolePurchase{
		DiscordUserID: "1001",
		GuildID:       testGuildID,
		RoleID:        testRoleID,
		Signature:     "sig123",
		Role:          &model.Role{ID: testRoleID, Name: "VIP", Amount: 1.5},
	})

	buf, filename, err := svc.ExportPurchases(context.Background(), testGuildID)
	if err != nil {
		t.Fatalf("ExportPurchases 失败: %v", err)
	}
	if !strings.HasPrefix(filename, "purchases_"+testGuildID+"_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("filename = %q", filename)
	}

	// 回读校验表头与数据行
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Purchases")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("行数 = %d, 期望表头 + 1 数据行", len(rows))
	}
	if rows[0][0] != "Discord User ID" || rows[0][1] != "Role" {
		t.Errorf("表头 = %v", rows[0])
	}
	if rows[1][0] != "1001" || rows[1][1] != "VIP" || rows[1][3] != "sig123" {
		t.Errorf("数据行 = %v", rows[1])
	}
}

func TestExportPurchasesEmpty(t *testing.T) {
	repo, _, _, _ := newMockRepository()
	svc := NewExportService(repo, testLogger)

	_, _, err := svc.ExportPurchases(context.Background(), testGuildID)
	if !errors.Is(err, ErrExportNoPurchases) {
		t.Fatalf("err = %v, 期望 ErrExportNoPurchases", err)
	}
}

