package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServerConfig struct {
	Address string `json:"address"`
}

type SecurityConfig struct {
	MaxBodySize    int64    `json:"maxBodySize"` // 单位：字节
	AllowedHosts   []string `json:"allowedHosts"`
	AllowedMethods []string `json:"allowedMethods"`
}

type TimeoutConfig struct {
	RequestTimeout int `json:"requestTimeout"` // 单位：秒
}

type CORSConfig struct {
	AllowOrigins     []string      `json:"allowOrigins"`
	AllowMethods     []string      `json:"allowMethods"`
	AllowHeaders     []string      `json:"allowHeaders"`
	ExposeHeaders    []string      `json:"exposeHeaders"`
	AllowCredentials bool          `json:"allowCredentials"`
	MaxAge           time.Duration `json:"maxAge"`
	TrustedDomains   []string      `json:"trustedDomains"`
}

type JWTAuthConfig struct {
	Secret         string        `json:"secret"`
	ExpireDuration time.Duration `json:"expireDuration"`
	Issuer         string        `json:"issuer"`
	SigningMethod  string        `json:"signingMethod"`
	Realm          string        `json:"realm"` // JWT领域标识
}

type RateLimitConfig struct {
	Rate     int           `json:"rate"`
	Interval time.Duration `json:"interval"`
}

type MiddlewareConfig struct {
	Security  SecurityConfig  `json:"security"`
	JWT       JWTAuthConfig   `json:"jwt"`
	Timeout   TimeoutConfig   `json:"timeout"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rateLimit"`
}

type DatabaseConfig struct {
	Host        string `json:"host"`        // 数据库主机地址
	Port        int    `json:"port"`        // 数据库端口
	Username    string `json:"username"`    // 数据库用户名
	Password    string `json:"password"`    // 数据库密码
	DBName      string `json:"dbname"`      // 数据库名称
	UseUnixSock bool   `json:"useUnixSock"` // 是否使用Unix套接字连接
	MinPoolSize int    `json:"minPoolSize"` // 连接池最小连接数
	MaxPoolSize int    `json:"maxPoolSize"` // 连接池最大连接数
	LogLevel    string `json:"logLevel"`    // GORM日志级别
}

// StorageConfig 文件存储（KYC 证件上传）
type StorageConfig struct {
	Root           string `json:"root"`           // 本地存储根目录
	BaseURL        string `json:"baseURL"`        // 对外访问的URL前缀
	MaxUploadBytes int64  `json:"maxUploadBytes"` // 全局上传上限，步骤级限制另行校验
}

// VerificationConfig 账户升级/认证流程
type VerificationConfig struct {
	StepsFile  string        `json:"stepsFile"`  // 为空时使用内置步骤表
	StaleAfter time.Duration `json:"staleAfter"` // 超过该时长未更新的草稿标记为 incomplete
}

type SocialConfig struct {
	SuggestionLimit int `json:"suggestionLimit"`
}

type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Middleware   MiddlewareConfig   `json:"middleware"`
	Storage      StorageConfig      `json:"storage"`
	Verification VerificationConfig `json:"verification"`
	Social       SocialConfig       `json:"social"`
	Env          string             `json:"env"` // 环境标识
}

// Default 返回一份默认配置的拷贝
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        3306,
			Username:    "root",
			Password:    "root",
			DBName:      "sanchari",
			UseUnixSock: false,
			MinPoolSize: 5,
			MaxPoolSize: 50,
			LogLevel:    "warn",
		},
		Middleware: MiddlewareConfig{
			Security: SecurityConfig{
				MaxBodySize:    10 << 20, // 10MB
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			},
			JWT: JWTAuthConfig{
				Secret:         "dev-secret-change-me-in-production", // 开发环境默认密钥
				ExpireDuration: 24 * time.Hour,
				Issuer:         "sanchari",
				SigningMethod:  "HS256",
				Realm:          "sanchari",
			},
			Timeout: TimeoutConfig{
				RequestTimeout: 15,
			},
			CORS: CORSConfig{
				AllowOrigins:     []string{"http://localhost:8081"},
				AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"},
				ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
				TrustedDomains:   []string{".sanchari.app"},
			},
			RateLimit: RateLimitConfig{
				Rate:     50,
				Interval: time.Second,
			},
		},
		Storage: StorageConfig{
			Root:           "./data/blobs",
			BaseURL:        "http://localhost:8080/files",
			MaxUploadBytes: 10 << 20,
		},
		Verification: VerificationConfig{
			StaleAfter: 30 * 24 * time.Hour,
		},
		Social: SocialConfig{
			SuggestionLimit: 30,
		},
		Env: "development",
	}
}

// IsProd 判断当前是否生产环境
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）
func Load() *Config {
	config := Default()

	// 1. 尝试从配置文件加载
	if configPath := getConfigPath(); configPath != "" {
		if err := loadFromFile(&config, configPath); err != nil {
			hlog.Warnf("Failed to load config file: %v", err)
		}
	}

	// 2. 从环境变量覆盖
	loadFromEnv(&config)

	return &config
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}

	searchPaths := []string{
		"./config.json",
		"../config.json",
		"/etc/sanchari/config.json",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadFromFile 从文件加载配置
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, config)
}

// loadFromEnv 从环境变量加载配置
func loadFromEnv(config *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.Server.Address = v
	}

	if v := os.Getenv("APP_ENV"); v != "" {
		config.Env = v
	}

	// 中间件配置
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Middleware.Security.MaxBodySize = size
		}
	}

	if v := os.Getenv("ALLOWED_METHODS"); v != "" {
		config.Middleware.Security.AllowedMethods = splitEnvList(strings.ToUpper(v))
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			config.Middleware.Timeout.RequestTimeout = timeout
		}
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			config.Middleware.RateLimit.Rate = rate
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		config.Middleware.CORS.AllowOrigins = splitEnvList(v)
	}

	/****** JWT 配置 ******/
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.Middleware.JWT.Secret = v
	}

	if v := os.Getenv("JWT_EXPIRATION"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Middleware.JWT.ExpireDuration = duration
		} else {
			hlog.Warnf("Invalid JWT_EXPIRATION format: %v", err)
		}
	}

	if v := os.Getenv("JWT_ISSUER"); v != "" {
		config.Middleware.JWT.Issuer = v
	}

	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		// 清理输入算法字符串中的空格
		algorithm := strings.ToLower(strings.ReplaceAll(v, " ", ""))

		validAlgorithms := map[string]bool{
			"hs256": true,
			"hs384": true,
			"hs512": true,
		}

		if validAlgorithms[algorithm] {
			config.Middleware.JWT.SigningMethod = strings.ToUpper(algorithm)
		} else {
			hlog.Warnf("Unsupported JWT algorithm: %s", v)
		}
	}

	// 数据库配置
	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Database.Port = port
		}
	}

	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.Username = v
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}

	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.DBName = v
	}

	if v := os.Getenv("DB_SOCKET"); v != "" {
		config.Database.UseUnixSock = parseBool(v)
	}

	if v := os.Getenv("DB_MIN_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MinPoolSize = size
		}
	}

	if v := os.Getenv("DB_MAX_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MaxPoolSize = size
		}
	}

	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		config.Database.LogLevel = strings.ToLower(v)
	}

	// 存储与认证流程
	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		config.Storage.Root = v
	}

	if v := os.Getenv("STORAGE_BASE_URL"); v != "" {
		config.Storage.BaseURL = strings.TrimRight(v, "/")
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Storage.MaxUploadBytes = size
		}
	}

	if v := os.Getenv("VERIFICATION_STEPS_FILE"); v != "" {
		config.Verification.StepsFile = v
	}

	if v := os.Getenv("VERIFICATION_STALE_AFTER"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Verification.StaleAfter = d
		} else {
			hlog.Warnf("Invalid VERIFICATION_STALE_AFTER format: %v", err)
		}
	}

	if v := os.Getenv("SUGGESTION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Social.SuggestionLimit = n
		}
	}
}

// 分割环境变量列表（支持逗号分隔的字符串）
func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// 转换字符串为布尔值
func parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

// DSN 生成 MySQL 连接串
func (c *Config) DSN() string {
	charsetParam := "charset=utf8mb4&parseTime=True&loc=Local"

	// 自动切换连接方式
	if c.Database.UseUnixSock {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host, // 这里host存储的是socket路径
			c.Database.DBName,
			charsetParam)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		charsetParam)
}

// GormConfig 按配置的日志级别构造 GORM 配置
func (c *Config) GormConfig() *gorm.Config {
	// TranslateError 让唯一键冲突统一成 gorm.ErrDuplicatedKey
	gormConfig := &gorm.Config{TranslateError: true}
	switch c.Database.LogLevel {
	case "silent":
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	case "error":
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	case "warn":
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	case "info":
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	return gormConfig
}

func (c *Config) InitDB() (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(c.DSN()), c.GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(c.Database.MinPoolSize)
	sqlDB.SetMaxOpenConns(c.Database.MaxPoolSize)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
