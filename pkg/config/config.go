package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Milvus    MilvusConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Neo4j     Neo4jConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
	Severity  SeverityConfig
	Generator GeneratorConfig
	KG        KGConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type DatasetConfig struct {
	// Source is "fixture" or "csv". CSV files are read from Dir using the
	// canonical names patients.csv, hospitals.csv, doctors.csv, appointments.csv.
	Source string
	Dir    string
}

type MilvusConfig struct {
	Endpoint         string
	CollectionPrefix string
	VectorDim        int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

type LLMConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	MaxTokens      int
}

type RetrievalConfig struct {
	PatientTopK  int
	HospitalTopK int
	DoctorTopK   int
}

type SeverityConfig struct {
	// Policy is "frequency" (constant severity 5 when no history matches) or
	// "bmi" (severity derived from patient BMI when no history matches).
	Policy string
}

type GeneratorConfig struct {
	// Mode is "rule" (template justification) or "llm" (model narrative).
	Mode string
}

type KGConfig struct {
	Enabled bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/healthnet")

	viper.SetEnvPrefix("HEALTHNET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Dataset.Source {
	case "fixture", "csv":
	default:
		return fmt.Errorf(`dataset.source must be "fixture" or "csv", got %q`, c.Dataset.Source)
	}
	if c.Dataset.Source == "csv" && c.Dataset.Dir == "" {
		return fmt.Errorf("dataset.dir is required when dataset.source is csv")
	}

	switch c.Severity.Policy {
	case "frequency", "bmi":
	default:
		return fmt.Errorf(`severity.policy must be "frequency" or "bmi", got %q`, c.Severity.Policy)
	}

	switch c.Generator.Mode {
	case "rule", "llm":
	default:
		return fmt.Errorf(`generator.mode must be "rule" or "llm", got %q`, c.Generator.Mode)
	}

	if c.Retrieval.PatientTopK <= 0 || c.Retrieval.HospitalTopK <= 0 || c.Retrieval.DoctorTopK <= 0 {
		return fmt.Errorf("retrieval top-k values must be positive")
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("dataset.source", "fixture")
	viper.SetDefault("dataset.dir", "./data")

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionPrefix", "healthnet")
	viper.SetDefault("milvus.vectorDim", 1536)

	viper.SetDefault("sqlite.path", "./data/healthnet.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 300)

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 1024)

	// The served variant casts a wide hospital net so the ranker has enough
	// candidates to filter; the notebook variant used hospitalTopK=1.
	viper.SetDefault("retrieval.patientTopK", 1)
	viper.SetDefault("retrieval.hospitalTopK", 50)
	viper.SetDefault("retrieval.doctorTopK", 2)

	viper.SetDefault("severity.policy", "frequency")
	viper.SetDefault("generator.mode", "rule")

	viper.SetDefault("kg.enabled", false)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
