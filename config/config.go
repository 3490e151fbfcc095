package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

// Cfg 全局配置，启动时加载一次
var Cfg *Config

type Config struct {
	Server ServerConfig `yaml:"server"`
	Org    OrgConfig    `yaml:"org"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	JWT    JWTConfig    `yaml:"jwt"`
	Model  ModelConfig  `yaml:"model"`
	OpenAI OpenAIConfig `yaml:"openai"`
	MQ     MQConfig     `yaml:"mq"`
	OSS    OSSConfig    `yaml:"oss"`
	Milvus MilvusConfig `yaml:"milvus"`
	MCP    MCPConfig    `yaml:"mcp"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// OrgConfig 租户标识，所有查询显式携带，禁止在业务代码里写死
type OrgConfig struct {
	ID string `yaml:"id"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type JWTConfig struct {
	SecretKey string `yaml:"secret_key"`

	// 令牌有效期（小时），缺省 24
	TTLHours int `yaml:"ttl_hours"`
}

// ModelConfig Emmie 模式使用的模型分层配置
type ModelConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// 按成本/能力分层的模型名
	TierFast       string `yaml:"tier_fast"`
	TierMax        string `yaml:"tier_max"`
	TierMultimodal string `yaml:"tier_multimodal"`

	// 会话标题等低成本任务使用的模型
	TierUtility string `yaml:"tier_utility"`

	Embedding string `yaml:"embedding"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
}

type MQConfig struct {
	NameServer []string `yaml:"name_server"`
}

type OSSConfig struct {
	Region          string `yaml:"region"`
	BucketName      string `yaml:"bucket_name"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	UploadDir       string `yaml:"upload_dir"`
}

type MilvusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

type MCPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

func init() {
	path := os.Getenv("EMMIE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := load(path)
	if err != nil {
		if os.IsNotExist(err) {
			// 测试环境允许无配置文件启动
			Cfg = &Config{}
			return
		}
		panic(fmt.Sprintf("Failed to load config %s: %v", path, err))
	}

	Cfg = cfg
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}

	return &cfg, nil
}
