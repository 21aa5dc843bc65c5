package embedding

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"mentora/internal/rag/schema"
)

// OpenAIModel 是一个用于 OpenAI 兼容 Embedding API 的客户端。
// OpenAI 的 embedding 模型是对称的，文档侧和查询侧使用同一个模型，
// 但 Role 参数仍然保留在签名中，以便与非对称提供商互换。
type OpenAIModel struct {
	client *openai.Client // OpenAI 客户端实例。
	model  string         // 要使用的模型名称。
}

// NewOpenAIModel 创建一个新的 OpenAIModel 客户端。
//
// 参数:
//
//	apiKey: OpenAI 的 API 密钥。
//	baseURL: API 基准 URL (可选，用于兼容端点)。
//	modelName: 要使用的模型名称。
//
// 返回值:
//
//	*OpenAIModel: 新创建的 OpenAIModel 客户端实例。
//	error: 如果创建客户端失败，则返回错误。
func NewOpenAIModel(apiKey, baseURL, modelName string) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	// 使用 API 密钥创建默认配置。
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	// 使用配置创建新的 OpenAI 客户端。
	client := openai.NewClientWithConfig(config)
	return &OpenAIModel{client: client, model: modelName}, nil
}

// Embed 使用 OpenAI API 为单个文本生成嵌入向量。
func (m *OpenAIModel) Embed(ctx context.Context, text string, role Role) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text}, role)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch 使用 OpenAI API 为一批文本生成嵌入向量。
// 输入按 MaxBatchSize 拆分为多个请求，结果按输入顺序拼接。
func (m *OpenAIModel) EmbedBatch(ctx context.Context, texts []string, _ Role) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		// 构建 OpenAI Embedding 请求。
		req := openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(m.model),
		}

		// 调用 OpenAI API 创建嵌入向量。
		resp, err := m.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, &schema.EmbeddingError{Provider: "openai", Err: err}
		}

		// 检查是否返回了嵌入向量。
		if len(resp.Data) != end-start {
			return nil, &schema.EmbeddingError{
				Provider: "openai",
				Err:      fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data)),
			}
		}

		for _, d := range resp.Data {
			embeddings = append(embeddings, d.Embedding)
		}
	}

	return embeddings, nil
}

var _ Embedding = (*OpenAIModel)(nil)
