package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Solana Action 协议版本与链标识，钱包客户端据此判断兼容性
const (
	actionVersion = "2.1.3"
	// mainnet-beta
	blockchainIDs = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
)

// ActionCORS Blink 跨域中间件
//
// Action 端点必须对任意来源开放：载荷由各家钱包与 Blink 渲染客户端
// 从任意域发起请求，无凭据语义，不能走白名单 CORS
func ActionCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers",
			"Content-Type, Authorization, Content-Encoding, Accept-Encoding, X-Accept-Action-Version, X-Accept-Blockchain-Ids")
		c.Header("Access-Control-Expose-Headers", "X-Action-Version, X-Blockchain-Ids")
		c.Header("X-Action-Version", actionVersion)
		c.Header("X-Blockchain-Ids", blockchainIDs)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

