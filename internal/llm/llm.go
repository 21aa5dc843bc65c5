package llm

import (
	"fmt"

	"mentora/internal/config"
	"mentora/internal/rag/interfaces"
)

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了
// interfaces.LLM 接口的客户端。温度和最大 token 数属于部署配置，
// 在这里注入，不属于管道逻辑。
func NewClient(cfg config.LLMConfig) (interfaces.LLM, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("no LLM model configured")
	}
	return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Temperature, cfg.MaxTokens)
}
