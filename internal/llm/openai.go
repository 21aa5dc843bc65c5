package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"mentora/internal/rag/schema"
)

// OpenAI 是一个用于 OpenAI Chat Completion API 的 LLM 客户端。
type OpenAI struct {
	client      *openai.Client // OpenAI 客户端实例。
	model       string         // 要使用的模型名称。
	temperature float32        // 采样温度。
	maxTokens   int            // 最大生成 token 数。
}

// NewOpenAI 创建一个新的 OpenAI 客户端。
func NewOpenAI(model, apiKey, baseURL string, temperature float32, maxTokens int) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAI{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate 使用 OpenAI API 生成回答。
// 对话历史在组装好的 prompt 之外单独下发，让模型同时看到结构化的
// 多轮上下文和提示词内嵌的上下文块。返回内容为空时视为生成失败。
func (o *OpenAI) Generate(ctx context.Context, systemPrompt string, history []schema.Message, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: &o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", &schema.GenerationError{Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &schema.GenerationError{Err: fmt.Errorf("completion returned no content")}
	}

	return resp.Choices[0].Message.Content, nil
}
