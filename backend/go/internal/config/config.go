package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

// MessengerConfig 定义了 Messenger 平台（Graph API）的接入配置。
type MessengerConfig struct {
	PageAccessToken string `yaml:"pageAccessToken"` // 页面级访问令牌，所有出站调用都使用它
	VerifyToken     string `yaml:"verifyToken"`     // Webhook 验证握手使用的共享密钥
	GraphBaseURL    string `yaml:"graphBaseURL"`    // Graph API 基础地址 (例如: "https://graph.facebook.com/v2.6")
	RequestTimeout  int    `yaml:"requestTimeout"`  // 出站请求超时 (秒)
}

// DialogueConfig 定义了对话状态机相关的策略参数。
type DialogueConfig struct {
	CacheTTL        int     `yaml:"cacheTTL"`        // 会话状态在缓存中的存活时间 (秒)，默认 300
	IntentThreshold float64 `yaml:"intentThreshold"` // NLP 实体置信度阈值，默认 0.7
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // Kafka 主题列表
}

// AdminConfig 定义了管理接口的认证配置。
type AdminConfig struct {
	JwtSecret    string `yaml:"jwtSecret"`    // JWT 密钥
	PasswordHash string `yaml:"passwordHash"` // 管理员密码的 bcrypt 哈希
	TokenTTL     int    `yaml:"tokenTTL"`     // JWT 令牌的有效期（秒）
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Redis RedisConfig `yaml:"redis"` // Redis 数据库配置
	MySQL MySQLConfig `yaml:"mysql"` // MySQL 数据库配置
	Kafka KafkaConfig `yaml:"kafka"` // Kafka 消息队列配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
	Address     string `yaml:"address"`     // HTTP 服务监听地址 (例如: ":8080")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Messenger  MessengerConfig  `yaml:"messenger"`  // Messenger 平台接入配置
	Dialogue   DialogueConfig   `yaml:"dialogue"`   // 对话策略配置
	Admin      AdminConfig      `yaml:"admin"`      // 管理接口认证配置
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据库配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "fixedWindow", "slidingCounter"
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	Sliding     SlidingConfig     `yaml:"slidingCounter"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// SlidingConfig 定义了滑动窗口计数器算法的配置。
type SlidingConfig struct {
	Limit      int    `yaml:"limit"`
	Window     string `yaml:"window"`
	NumBuckets int    `yaml:"numBuckets"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"` // 连续失败多少次后熔断
	SuccessThreshold uint32 `yaml:"successThreshold"` // 半开状态下连续成功多少次后恢复
	Timeout          string `yaml:"timeout"`          // 熔断后多久进入半开状态 (例如: "10s")
}

// LoadConfig 从指定路径读取 YAML 文件并解析为 AppConfig。
// 环境变量 STUDYBOT_PAGE_TOKEN / STUDYBOT_VERIFY_TOKEN 优先于文件中的值，
// 以便在容器环境中注入密钥而不落盘。
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取配置文件 %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if v := os.Getenv("STUDYBOT_PAGE_TOKEN"); v != "" {
		cfg.Messenger.PageAccessToken = v
	}
	if v := os.Getenv("STUDYBOT_VERIFY_TOKEN"); v != "" {
		cfg.Messenger.VerifyToken = v
	}

	// 填充策略参数的默认值。
	if cfg.Dialogue.CacheTTL <= 0 {
		cfg.Dialogue.CacheTTL = 300
	}
	if cfg.Dialogue.IntentThreshold <= 0 {
		cfg.Dialogue.IntentThreshold = 0.7
	}
	if cfg.Messenger.RequestTimeout <= 0 {
		cfg.Messenger.RequestTimeout = 30
	}

	return &cfg, nil
}
