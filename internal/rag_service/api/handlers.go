package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentora/internal/rag/schema"
	"mentora/internal/rag_service/service"
	"mentora/pkg/logger"
)

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// IngestRequest 定义了文档写入请求的 JSON 结构。
type IngestRequest struct {
	DocumentID  string `json:"documentId" binding:"required"`
	HTMLContent string `json:"htmlContent"`
}

// Ingest 处理文档写入请求：切分、向量化并存入向量库。
func (h *Handler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.IngestDocument(c.Request.Context(), req.DocumentID, req.HTMLContent)
	if err != nil {
		h.logger(c).WithError(err).Error("Ingest failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Document ingested successfully",
		"documentId": result.DocumentID,
		"chunkCount": result.ChunkCount,
	})
}

// ChatRequest 定义了对话请求的 JSON 结构。
type ChatRequest struct {
	Query   string           `json:"query" binding:"required"`
	History []schema.Message `json:"history"`
}

// ChatSource 是返回给前端的单条召回依据。
type ChatSource struct {
	Text  string  `json:"text"`
	Tag   string  `json:"tag"`
	Score float32 `json:"score"`
}

// Chat 处理对话请求：召回上下文并生成回答。
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Chat(c.Request.Context(), req.Query, req.History)
	if err != nil {
		h.logger(c).WithError(err).Error("Chat failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	sources := make([]ChatSource, len(result.Sources))
	for i, match := range result.Sources {
		sources[i] = ChatSource{
			Text:  match.Payload.Text,
			Tag:   match.Payload.Tag,
			Score: match.Score,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"answer":  result.Answer,
		"intent":  result.Intent,
		"sources": sources,
	})
}

// DeleteDocument 删除指定文档写入的全部向量。
func (h *Handler) DeleteDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	if err := h.service.DeleteDocument(c.Request.Context(), documentID); err != nil {
		h.logger(c).WithError(err).Error("Delete document failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document vectors deleted", "documentId": documentID})
}

// ResetVectors 清空整个向量集合。这是管理端操作，与按文档删除分开暴露。
func (h *Handler) ResetVectors(c *gin.Context) {
	if err := h.service.DeleteAllVectors(c.Request.Context()); err != nil {
		h.logger(c).WithError(err).Error("Reset vectors failed")
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All vectors deleted successfully"})
}

// logger 返回绑定了本次请求 trace ID 的日志实例。
func (h *Handler) logger(c *gin.Context) *logger.Logger {
	return h.log.WithTraceID(c.GetString(TraceIDKey))
}

// statusForError 将业务错误映射为 HTTP 状态码：
// 输入问题（空文档、HTML 解析失败）返回 400，其余视为服务端故障。
func statusForError(err error) int {
	var parseErr *schema.ParseError
	if errors.Is(err, schema.ErrNoContent) || errors.As(err, &parseErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
