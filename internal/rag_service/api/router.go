package api

import "github.com/gin-gonic/gin"

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()
	r.Use(TraceIDMiddleware())

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	{
		rag := apiV1.Group("/rag")
		{
			rag.POST("/ingest", h.Ingest)
			rag.POST("/chat", h.Chat)
			rag.DELETE("/documents/:documentId", h.DeleteDocument)
			// 管理端操作：清空整个集合
			rag.POST("/vectors/reset", h.ResetVectors)
		}
	}

	return r
}
