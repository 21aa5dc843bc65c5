package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	HTTPPort string `yaml:"httpPort"` // HTTP 监听地址 (例如: ":8080")
}

// UpstageConfig 定义了 Upstage Embedding API 的连接配置。
type UpstageConfig struct {
	APIKey       string `yaml:"apiKey"`       // Upstage API 密钥 (为空时回退到 UPSTAGE_API_KEY 环境变量)
	BaseURL      string `yaml:"baseURL"`      // API 基准 URL (为空时使用官方地址)
	PassageModel string `yaml:"passageModel"` // 文档侧 embedding 模型 (默认: "embedding-passage")
	QueryModel   string `yaml:"queryModel"`   // 查询侧 embedding 模型 (默认: "embedding-query")
}

// OpenAIEmbeddingConfig 定义了 OpenAI 兼容 Embedding API 的连接配置。
type OpenAIEmbeddingConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥 (为空时回退到 OPENAI_API_KEY 环境变量)
	BaseURL string `yaml:"baseURL"` // API 基准 URL (可选)
	Model   string `yaml:"model"`   // 要使用的模型名称
}

// EmbeddingConfig 定义了 Embedding 提供商的选择和配置。
type EmbeddingConfig struct {
	Provider   string                `yaml:"provider"`   // 提供商名称 ("upstage" 或 "openai")
	Dimensions int                   `yaml:"dimensions"` // 向量维度 (必须与向量库集合的维度一致)
	Upstage    UpstageConfig         `yaml:"upstage"`    // Upstage 配置
	OpenAI     OpenAIEmbeddingConfig `yaml:"openai"`     // OpenAI 配置
}

// LLMConfig 定义了回答生成模型的配置。
type LLMConfig struct {
	APIKey      string  `yaml:"apiKey"`      // API 密钥 (为空时回退到 OPENAI_API_KEY 环境变量)
	BaseURL     string  `yaml:"baseURL"`     // API 基准 URL (可选)
	Model       string  `yaml:"model"`       // 模型名称 (例如: "gpt-4o-mini")
	Temperature float32 `yaml:"temperature"` // 采样温度
	MaxTokens   int     `yaml:"maxTokens"`   // 最大生成 token 数
}

// QdrantConfig 定义了 Qdrant 向量库的连接配置。
type QdrantConfig struct {
	URL    string `yaml:"url"`    // Qdrant 服务地址 (例如: "http://localhost:6333")
	APIKey string `yaml:"apiKey"` // Qdrant API 密钥 (可选, 为空时回退到 QDRANT_API_KEY 环境变量)
}

// PineconeConfig 定义了 Pinecone 向量库的连接配置。
type PineconeConfig struct {
	APIKey     string `yaml:"apiKey"`     // Pinecone API 密钥 (为空时回退到 PINECONE_API_KEY 环境变量)
	IndexHost  string `yaml:"indexHost"`  // 数据面地址 (例如: "https://my-index-xxxx.svc.pinecone.io")
	ControlURL string `yaml:"controlURL"` // 控制面地址 (默认: "https://api.pinecone.io")
	Cloud      string `yaml:"cloud"`      // serverless 云厂商 (例如: "aws")
	Region     string `yaml:"region"`     // serverless 区域 (例如: "us-east-1")
}

// MilvusVSConfig 定义了 Milvus 向量库的连接配置。
type MilvusVSConfig struct {
	Address string `yaml:"address"` // Milvus 服务地址 (例如: "localhost:19530")
}

// VectorStoreConfig 定义了向量库后端的选择和公共参数。
type VectorStoreConfig struct {
	Provider        string         `yaml:"provider"`        // 后端名称 ("qdrant", "pinecone" 或 "milvus")
	Collection      string         `yaml:"collection"`      // 集合/索引名称
	Dimension       int            `yaml:"dimension"`       // 向量维度 (集合创建后不可更改)
	ConsistencyWait string         `yaml:"consistencyWait"` // 写入后的一致性等待时间 (例如: "1s", 测试中置空)
	Qdrant          QdrantConfig   `yaml:"qdrant"`          // Qdrant 配置
	Pinecone        PineconeConfig `yaml:"pinecone"`        // Pinecone 配置
	Milvus          MilvusVSConfig `yaml:"milvus"`          // Milvus 配置
}

// ConsistencyWaitDuration 解析 ConsistencyWait 字符串，非法或为空时返回 0。
func (v VectorStoreConfig) ConsistencyWaitDuration() time.Duration {
	if v.ConsistencyWait == "" {
		return 0
	}
	d, err := time.ParseDuration(v.ConsistencyWait)
	if err != nil {
		return 0
	}
	return d
}

// RetrievalConfig 定义了召回阶段的质量控制参数。
// 阈值和关键词列表是经验调参的结果，因此作为配置暴露而不是写死在代码里。
type RetrievalConfig struct {
	TopK              int      `yaml:"topK"`              // 向量检索候选数 (默认: 15)
	GenericThreshold  float32  `yaml:"genericThreshold"`  // 一般问题的相似度阈值 (默认: 0.5)
	PersonalThreshold float32  `yaml:"personalThreshold"` // 个人回忆类问题的相似度阈值 (默认: 0.3)
	PersonalMarkers   []string `yaml:"personalMarkers"`   // 判定个人回忆类问题的关键词 (为空时使用内置默认值)
}

// AppConfig 是应用程序的根配置结构体。
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`      // HTTP 服务配置
	Embedding   EmbeddingConfig   `yaml:"embedding"`   // Embedding 提供商配置
	LLM         LLMConfig         `yaml:"llm"`         // 回答生成模型配置
	VectorStore VectorStoreConfig `yaml:"vectorStore"` // 向量库配置
	Retrieval   RetrievalConfig   `yaml:"retrieval"`   // 召回参数配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil // 返回解析后的配置和nil错误。
}

// applyDefaults 为缺省的配置项填充默认值，API 密钥回退到环境变量。
func (c *AppConfig) applyDefaults() {
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = ":8080"
	}
	if c.Embedding.Upstage.APIKey == "" {
		c.Embedding.Upstage.APIKey = os.Getenv("UPSTAGE_API_KEY")
	}
	if c.Embedding.Upstage.PassageModel == "" {
		c.Embedding.Upstage.PassageModel = "embedding-passage"
	}
	if c.Embedding.Upstage.QueryModel == "" {
		c.Embedding.Upstage.QueryModel = "embedding-query"
	}
	if c.Embedding.OpenAI.APIKey == "" {
		c.Embedding.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.4
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.VectorStore.Qdrant.APIKey == "" {
		c.VectorStore.Qdrant.APIKey = os.Getenv("QDRANT_API_KEY")
	}
	if c.VectorStore.Pinecone.APIKey == "" {
		c.VectorStore.Pinecone.APIKey = os.Getenv("PINECONE_API_KEY")
	}
	if c.VectorStore.Pinecone.ControlURL == "" {
		c.VectorStore.Pinecone.ControlURL = "https://api.pinecone.io"
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 15
	}
	if c.Retrieval.GenericThreshold == 0 {
		c.Retrieval.GenericThreshold = 0.5
	}
	if c.Retrieval.PersonalThreshold == 0 {
		c.Retrieval.PersonalThreshold = 0.3
	}
}
