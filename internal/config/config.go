package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Pinecone  PineconeConfig
	Pipeline  PipelineConfig
	CacheTTLs CacheTTLConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LoggerConfig struct {
	Env   string
	Level string
}

// ProviderConfig selects one text-generation backend.
type ProviderConfig struct {
	Provider    string // openai, gemini or ollama
	Model       string
	Temperature float64
}

type LLMConfig struct {
	Primary      ProviderConfig
	Secondary    ProviderConfig
	OpenAIAPIKey string
	GeminiAPIKey string
	OllamaServer string
	Timeout      time.Duration
}

type EmbeddingConfig struct {
	Source       string // openai or ollama
	OpenAIModel  string
	OllamaModel  string
	OllamaServer string
}

type PineconeConfig struct {
	APIKey    string
	IndexHost string
	Namespace string
	TopK      int
}

type PipelineConfig struct {
	MaxChunkChars     int
	MaxChunks         int
	SupplementalChars int
	Timeout           time.Duration
	// TitleTimezone is an IANA zone name used for the quiz title timestamp.
	TitleTimezone string
}

// CacheTTLConfig holds TTL strings such as "168h" or "30m".
type CacheTTLConfig struct {
	Embedding  string
	QuizResult string
}

type AuthConfig struct {
	JWTSecretKey string
	Issuer       string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 150)
	v.SetDefault("db.port", 1521)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("logger.level", "info")
	v.SetDefault("llm.primary.provider", "openai")
	v.SetDefault("llm.primary.model", "gpt-4o")
	v.SetDefault("llm.primary.temperature", 0.7)
	v.SetDefault("llm.secondary.provider", "gemini")
	v.SetDefault("llm.secondary.model", "gemini-1.5-pro")
	v.SetDefault("llm.secondary.temperature", 0.2)
	v.SetDefault("llm.ollama_server", "http://localhost:11434")
	v.SetDefault("llm.timeout", 60)
	v.SetDefault("embedding.source", "openai")
	v.SetDefault("embedding.openai_model", "text-embedding-3-small")
	v.SetDefault("embedding.ollama_model", "nomic-embed-text")
	v.SetDefault("embedding.ollama_server", "http://localhost:11434")
	v.SetDefault("pinecone.namespace", "learnnest-corpus")
	v.SetDefault("pinecone.top_k", 5)
	v.SetDefault("pipeline.max_chunk_chars", 12000)
	v.SetDefault("pipeline.max_chunks", 4)
	v.SetDefault("pipeline.supplemental_chars", 48000)
	v.SetDefault("pipeline.timeout", 120)
	v.SetDefault("pipeline.title_timezone", "UTC")
	v.SetDefault("cache_ttls.embedding", "168h")
	v.SetDefault("cache_ttls.quiz_result", "24h")
	v.SetDefault("auth.issuer", "learnnest")
}

// LoadConfig reads config.yaml from the working directory (or ./config) and
// applies environment overrides. A missing file is not an error; defaults and
// the environment are enough to run.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)
	applyEnvOverrides(cfg)
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env: v.GetString("env"),
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
		},
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("env"),
			Level: v.GetString("logger.level"),
		},
		LLM: LLMConfig{
			Primary: ProviderConfig{
				Provider:    v.GetString("llm.primary.provider"),
				Model:       v.GetString("llm.primary.model"),
				Temperature: v.GetFloat64("llm.primary.temperature"),
			},
			Secondary: ProviderConfig{
				Provider:    v.GetString("llm.secondary.provider"),
				Model:       v.GetString("llm.secondary.model"),
				Temperature: v.GetFloat64("llm.secondary.temperature"),
			},
			OpenAIAPIKey: v.GetString("llm.openai_api_key"),
			GeminiAPIKey: v.GetString("llm.gemini_api_key"),
			OllamaServer: v.GetString("llm.ollama_server"),
			Timeout:      time.Duration(v.GetInt("llm.timeout")) * time.Second,
		},
		Embedding: EmbeddingConfig{
			Source:       v.GetString("embedding.source"),
			OpenAIModel:  v.GetString("embedding.openai_model"),
			OllamaModel:  v.GetString("embedding.ollama_model"),
			OllamaServer: v.GetString("embedding.ollama_server"),
		},
		Pinecone: PineconeConfig{
			APIKey:    v.GetString("pinecone.api_key"),
			IndexHost: v.GetString("pinecone.index_host"),
			Namespace: v.GetString("pinecone.namespace"),
			TopK:      v.GetInt("pinecone.top_k"),
		},
		Pipeline: PipelineConfig{
			MaxChunkChars:     v.GetInt("pipeline.max_chunk_chars"),
			MaxChunks:         v.GetInt("pipeline.max_chunks"),
			SupplementalChars: v.GetInt("pipeline.supplemental_chars"),
			Timeout:           time.Duration(v.GetInt("pipeline.timeout")) * time.Second,
			TitleTimezone:     v.GetString("pipeline.title_timezone"),
		},
		CacheTTLs: CacheTTLConfig{
			Embedding:  v.GetString("cache_ttls.embedding"),
			QuizResult: v.GetString("cache_ttls.quiz_result"),
		},
		Auth: AuthConfig{
			JWTSecretKey: v.GetString("auth.jwt_secret_key"),
			Issuer:       v.GetString("auth.issuer"),
		},
	}
}

// applyEnvOverrides maps the conventional unprefixed variable names onto the config.
func applyEnvOverrides(cfg *Config) {
	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
		cfg.Logger.Env = env
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIAPIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.GeminiAPIKey = key
	}
	if key := os.Getenv("PINECONE_API_KEY"); key != "" {
		cfg.Pinecone.APIKey = key
	}
	if host := os.Getenv("PINECONE_INDEX_HOST"); host != "" {
		cfg.Pinecone.IndexHost = host
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		cfg.Auth.JWTSecretKey = secret
	}
}

// GetDSN returns the go-ora connection URL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}

// ParseTTLStringOrDefault parses a duration string, falling back to defaultTTL
// when it is empty or malformed.
func (c *Config) ParseTTLStringOrDefault(ttlString string, defaultTTL time.Duration) time.Duration {
	if ttlString == "" {
		return defaultTTL
	}
	d, err := time.ParseDuration(ttlString)
	if err != nil || d <= 0 {
		return defaultTTL
	}
	return d
}

// TitleLocation resolves the pipeline title timezone, defaulting to UTC.
func (c *Config) TitleLocation() *time.Location {
	if c.Pipeline.TitleTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Pipeline.TitleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
