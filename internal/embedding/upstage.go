package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"golang.org/x/sync/errgroup"

	"mentora/internal/rag/schema"
)

// defaultUpstageBaseURL 是 Upstage Embedding API 的官方地址。
const defaultUpstageBaseURL = "https://api.upstage.ai/v1"

// UpstageModel 是一个用于 Upstage Embedding API 的客户端。
// Upstage 对文档侧和查询侧使用不同的模型 (非对称检索)，
// 因此 Role 在这里直接决定请求中的模型名称。
type UpstageModel struct {
	client       *http.Client // HTTP 客户端实例。
	apiKey       string       // Upstage API 密钥。
	baseURL      string       // API 基准 URL。
	passageModel string       // 文档侧模型名称。
	queryModel   string       // 查询侧模型名称。
}

// NewUpstageModel 创建一个新的 UpstageModel 客户端。
//
// 参数:
//
//	apiKey: Upstage 的 API 密钥。
//	baseURL: API 基准 URL。如果为空，则默认为官方地址。
//	passageModel: 文档侧模型名称 (例如: "embedding-passage")。
//	queryModel: 查询侧模型名称 (例如: "embedding-query")。
//
// 返回值:
//
//	*UpstageModel: 新创建的客户端实例。
//	error: 如果参数缺失，则返回错误。
func NewUpstageModel(apiKey, baseURL, passageModel, queryModel string) (*UpstageModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("upstage api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultUpstageBaseURL
	}
	if passageModel == "" {
		passageModel = "embedding-passage"
	}
	if queryModel == "" {
		queryModel = "embedding-query"
	}
	return &UpstageModel{
		client:       &http.Client{},
		apiKey:       apiKey,
		baseURL:      baseURL,
		passageModel: passageModel,
		queryModel:   queryModel,
	}, nil
}

// Embed 为单个文本生成嵌入向量。
func (m *UpstageModel) Embed(ctx context.Context, text string, role Role) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text}, role)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch 为一批文本生成嵌入向量。
// 输入被拆分为最多 MaxBatchSize 条的批次并发发送；各批次相互独立，
// 按批次序号重组结果以保证输出顺序与输入一致。
func (m *UpstageModel) EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	model := m.passageModel
	if role == RoleQuery {
		model = m.queryModel
	}

	// 按批次序号预留结果槽位，errgroup 保证任一批次失败时整体失败。
	batchCount := (len(texts) + MaxBatchSize - 1) / MaxBatchSize
	results := make([][][]float32, batchCount)

	eg, gCtx := errgroup.WithContext(ctx)
	for b := 0; b < batchCount; b++ {
		start := b * MaxBatchSize
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		slot := b
		eg.Go(func() error {
			vectors, err := m.embedOnce(gCtx, batch, model)
			if err != nil {
				return err
			}
			results[slot] = vectors
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(texts))
	for _, batch := range results {
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// embedOnce 发送单个批次的 embedding 请求。
func (m *UpstageModel) embedOnce(ctx context.Context, texts []string, model string) ([][]float32, error) {
	payload := map[string]interface{}{
		"input": texts,
		"model": model,
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", m.baseURL+"/embeddings", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &schema.EmbeddingError{Provider: "upstage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 透传提供商自己的错误描述，便于排查。
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Message string `json:"message"`
		}
		message := string(body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		return nil, &schema.EmbeddingError{
			Provider: "upstage",
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, message),
		}
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &schema.EmbeddingError{Provider: "upstage", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(result.Data) != len(texts) {
		return nil, &schema.EmbeddingError{
			Provider: "upstage",
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Data)),
		}
	}

	// 按 index 字段排序，不依赖提供商返回的顺序。
	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	embeddings := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

var _ Embedding = (*UpstageModel)(nil)
