package embedding

import "context"

// Role 区分非对称检索中的两种 embedding 用途。
// 部分提供商 (例如 Upstage) 对文档侧和查询侧使用不同的模型变体，
// 即使两者最终调用同一个接口，也必须保留该区分。
type Role string

const (
	RolePassage Role = "passage" // 文档块入库时使用。
	RoleQuery   Role = "query"   // 实时查询时使用。
)

// MaxBatchSize 是单次远程调用允许的最大文本数 (提供商的载荷限制)。
// 超过该数量的输入会被拆分为多个批次，输出按输入顺序重组。
const MaxBatchSize = 100

// Embedding 定义了所有 embedding 模型需要实现的接口。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	//
	// 参数:
	//   ctx: 上下文，用于控制操作的生命周期。
	//   text: 要生成嵌入向量的文本。
	//   role: embedding 的用途 (passage 或 query)。
	//
	// 返回值:
	//   []float32: 生成的嵌入向量。
	//   error: 如果生成嵌入向量失败，则返回错误。
	Embed(ctx context.Context, text string, role Role) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量，输出与输入一一对应且顺序一致。
	// 任何一个批次失败都会使整个调用失败，不接受部分结果。
	//
	// 参数:
	//   ctx: 上下文，用于控制操作的生命周期。
	//   texts: 要生成嵌入向量的文本切片。
	//   role: embedding 的用途 (passage 或 query)。
	//
	// 返回值:
	//   [][]float32: 生成的嵌入向量切片。
	//   error: 如果生成嵌入向量失败，则返回错误。
	EmbedBatch(ctx context.Context, texts []string, role Role) ([][]float32, error)
}
