package embedding

import (
	"fmt"

	"mentora/internal/config"
)

// NewEmdModel 根据配置创建并返回一个新的 Embedding 模型实例。
//
// 参数:
//
//	cfg: Embedding 提供商配置 (提供商名称、密钥、模型)。
//
// 返回值:
//
//	Embedding: 新创建的 Embedding 模型实例。
//	error: 如果提供商不支持或模型初始化失败，则返回错误。
func NewEmdModel(cfg config.EmbeddingConfig) (Embedding, error) {
	// 根据提供商类型创建相应的 Embedding 模型实例。
	switch cfg.Provider {
	case "upstage":
		return NewUpstageModel(cfg.Upstage.APIKey, cfg.Upstage.BaseURL, cfg.Upstage.PassageModel, cfg.Upstage.QueryModel)
	case "openai":
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider) // 如果提供商不支持，返回错误。
	}
}
