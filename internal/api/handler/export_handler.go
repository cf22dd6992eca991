package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/barkprotocol/blinkshare/internal/service"
	"github.com/barkprotocol/blinkshare/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 销售报表导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPurchases 导出服务器购买记录为 Excel
// GET /discord/guilds/:guildId/purchases/export
func (h *ExportHandler) ExportPurchases(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportPurchases(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		if errors.Is(err, service.ErrExportNoPurchases) {
			response.NotFound(c, "No purchases found for this server")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

