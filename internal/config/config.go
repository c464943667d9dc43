package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	JWT       JWTConfig
	Log       LogConfig
	LLM       LLMConfig
	Verbosity VerbosityConfig
	Reference ReferenceConfig
	Archive   ArchiveConfig
	Email     EmailConfig
	Intake    IntakeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// StorageConfig holds on-disk locations for projects and the reference corpus.
type StorageConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	ProjectsDir  string `mapstructure:"projects_dir"`
	CorpusDir    string `mapstructure:"corpus_dir"`
	MaxUploadMB  int64  `mapstructure:"max_upload_mb"`
	PreviewRows  int    `mapstructure:"preview_rows"`
	PreviewParas int    `mapstructure:"preview_paragraphs"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (s *StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB * 1024 * 1024
}

// JWTConfig holds bearer token settings.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMProviderConfig holds settings for a single LLM provider.
type LLMProviderConfig struct {
	Provider          string  `mapstructure:"provider"`
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Temperature       float64 `mapstructure:"temperature"`
	TimeoutSecs       int     `mapstructure:"timeout_secs"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

// LLMConfig holds text-generation settings with primary/secondary providers.
type LLMConfig struct {
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (l *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if l.Secondary.Provider != "" {
		return &l.Secondary
	}
	return nil
}

// VerbosityLevel describes one answer-length setting.
type VerbosityLevel struct {
	Label    string `mapstructure:"label" yaml:"label"`
	MaxWords int    `mapstructure:"max_words" yaml:"max_words"`
}

// VerbosityConfig maps verbosity levels to their labels and word limits.
type VerbosityConfig struct {
	Levels map[int]VerbosityLevel
}

const defaultMaxWords = 100

// Directive renders the verbosity constraint sent with the answer request.
// Unknown levels keep the level number with an empty label and the default limit.
func (v VerbosityConfig) Directive(level int) string {
	lvl := v.Levels[level]
	maxWords := lvl.MaxWords
	if maxWords <= 0 {
		maxWords = defaultMaxWords
	}
	return fmt.Sprintf("Niveau %d — %s (%d mots max par réponse)", level, lvl.Label, maxWords)
}

// ReferenceConfig holds reference corpus selection settings.
type ReferenceConfig struct {
	MaxFiles int `mapstructure:"max_files"`
	MaxChars int `mapstructure:"max_chars"`
}

// ArchiveConfig holds object storage settings for completed artifacts.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// EmailConfig holds completion notification settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// IntakeConfig locates the intake questionnaire shown before generation.
type IntakeConfig struct {
	QuestionsFile string `mapstructure:"questions_file"`
}

var defaultVerbosity = map[string]any{
	"1": map[string]any{"label": "Concis", "max_words": 50},
	"2": map[string]any{"label": "Standard", "max_words": 100},
	"3": map[string]any{"label": "Détaillé", "max_words": 200},
	"4": map[string]any{"label": "Exhaustif", "max_words": 400},
}

// Load reads configuration from environment variables with the PAS_ prefix,
// optionally layered over the YAML file named by PAS_CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "")

	// Storage defaults
	v.SetDefault("storage.base_dir", "/opt/pas-assistant")
	v.SetDefault("storage.projects_dir", "")
	v.SetDefault("storage.corpus_dir", "")
	v.SetDefault("storage.max_upload_mb", 50)
	v.SetDefault("storage.preview_rows", 25)
	v.SetDefault("storage.preview_paragraphs", 50)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "pas-assistant")
	v.SetDefault("jwt.expiry", "8h")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// LLM defaults
	v.SetDefault("llm.primary.provider", "claude")
	v.SetDefault("llm.primary.api_key", "")
	v.SetDefault("llm.primary.base_url", "")
	v.SetDefault("llm.primary.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.primary.max_tokens", 16000)
	v.SetDefault("llm.primary.temperature", 0.3)
	v.SetDefault("llm.primary.timeout_secs", 0)
	v.SetDefault("llm.primary.requests_per_minute", 0)
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.base_url", "")
	v.SetDefault("llm.secondary.model", "")
	v.SetDefault("llm.secondary.max_tokens", 16000)
	v.SetDefault("llm.secondary.temperature", 0.3)
	v.SetDefault("llm.secondary.timeout_secs", 0)
	v.SetDefault("llm.secondary.requests_per_minute", 0)

	v.SetDefault("verbosity.levels", defaultVerbosity)

	// Reference defaults
	v.SetDefault("reference.max_files", 3)
	v.SetDefault("reference.max_chars", 30000)

	// Archive defaults
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.region", "eu-west-3")
	v.SetDefault("archive.bucket", "pas-assistant-artifacts")
	v.SetDefault("archive.endpoint", "")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-west-3")
	v.SetDefault("email.from_address", "noreply@pas-assistant.local")
	v.SetDefault("email.from_name", "PAS Assistant")
	v.SetDefault("email.frontend_url", "http://localhost:8080")

	// Intake defaults
	v.SetDefault("intake.questions_file", "")

	if file := os.Getenv("PAS_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: read %s", file)
		}
	}

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "PAS_SERVER_PORT",
		"server.read_timeout":               "PAS_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "PAS_SERVER_WRITE_TIMEOUT",
		"server.environment":                "PAS_SERVER_ENVIRONMENT",
		"server.cors_origins":               "PAS_SERVER_CORS_ORIGINS",
		"storage.base_dir":                  "PAS_BASE_DIR",
		"storage.projects_dir":              "PAS_STORAGE_PROJECTS_DIR",
		"storage.corpus_dir":                "PAS_STORAGE_CORPUS_DIR",
		"storage.max_upload_mb":             "PAS_STORAGE_MAX_UPLOAD_MB",
		"storage.preview_rows":              "PAS_STORAGE_PREVIEW_ROWS",
		"storage.preview_paragraphs":        "PAS_STORAGE_PREVIEW_PARAGRAPHS",
		"jwt.secret":                        "PAS_JWT_SECRET",
		"jwt.issuer":                        "PAS_JWT_ISSUER",
		"jwt.expiry":                        "PAS_JWT_EXPIRY",
		"log.level":                         "PAS_LOG_LEVEL",
		"log.format":                        "PAS_LOG_FORMAT",
		"llm.primary.provider":              "PAS_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":               "PAS_LLM_PRIMARY_API_KEY",
		"llm.primary.base_url":              "PAS_LLM_PRIMARY_BASE_URL",
		"llm.primary.model":                 "PAS_LLM_PRIMARY_MODEL",
		"llm.primary.max_tokens":            "PAS_LLM_PRIMARY_MAX_TOKENS",
		"llm.primary.temperature":           "PAS_LLM_PRIMARY_TEMPERATURE",
		"llm.primary.timeout_secs":          "PAS_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.primary.requests_per_minute":   "PAS_LLM_PRIMARY_REQUESTS_PER_MINUTE",
		"llm.secondary.provider":            "PAS_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":             "PAS_LLM_SECONDARY_API_KEY",
		"llm.secondary.base_url":            "PAS_LLM_SECONDARY_BASE_URL",
		"llm.secondary.model":               "PAS_LLM_SECONDARY_MODEL",
		"llm.secondary.max_tokens":          "PAS_LLM_SECONDARY_MAX_TOKENS",
		"llm.secondary.temperature":         "PAS_LLM_SECONDARY_TEMPERATURE",
		"llm.secondary.timeout_secs":        "PAS_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.secondary.requests_per_minute": "PAS_LLM_SECONDARY_REQUESTS_PER_MINUTE",
		"reference.max_files":               "PAS_REFERENCE_MAX_FILES",
		"reference.max_chars":               "PAS_REFERENCE_MAX_CHARS",
		"archive.provider":                  "PAS_ARCHIVE_PROVIDER",
		"archive.region":                    "PAS_ARCHIVE_REGION",
		"archive.bucket":                    "PAS_ARCHIVE_BUCKET",
		"archive.endpoint":                  "PAS_ARCHIVE_ENDPOINT",
		"archive.access_key":                "PAS_ARCHIVE_ACCESS_KEY",
		"archive.secret_key":                "PAS_ARCHIVE_SECRET_KEY",
		"email.provider":                    "PAS_EMAIL_PROVIDER",
		"email.region":                      "PAS_EMAIL_REGION",
		"email.from_address":                "PAS_EMAIL_FROM_ADDRESS",
		"email.from_name":                   "PAS_EMAIL_FROM_NAME",
		"email.frontend_url":                "PAS_EMAIL_FRONTEND_URL",
		"intake.questions_file":             "PAS_INTAKE_QUESTIONS_FILE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// Fall back to the conventional ANTHROPIC_API_KEY when no primary key is configured.
	primaryKey := v.GetString("llm.primary.api_key")
	if primaryKey == "" && v.GetString("llm.primary.provider") == "claude" {
		primaryKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	cfg := &Config{}

	cfg.Server = ServerConfig{
		Port:         v.GetString("server.port"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}

	baseDir := v.GetString("storage.base_dir")
	cfg.Storage = StorageConfig{
		BaseDir:      baseDir,
		ProjectsDir:  orDefault(v.GetString("storage.projects_dir"), filepath.Join(baseDir, "data", "projects")),
		CorpusDir:    orDefault(v.GetString("storage.corpus_dir"), filepath.Join(baseDir, "data", "corpus", "files")),
		MaxUploadMB:  v.GetInt64("storage.max_upload_mb"),
		PreviewRows:  v.GetInt("storage.preview_rows"),
		PreviewParas: v.GetInt("storage.preview_paragraphs"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
		Expiry: v.GetDuration("jwt.expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.LLM = LLMConfig{
		Primary:   providerConfig(v, "llm.primary"),
		Secondary: providerConfig(v, "llm.secondary"),
	}
	cfg.LLM.Primary.APIKey = primaryKey

	levels, err := verbosityLevels(v.GetStringMap("verbosity.levels"))
	if err != nil {
		return nil, err
	}
	cfg.Verbosity = VerbosityConfig{Levels: levels}

	cfg.Reference = ReferenceConfig{
		MaxFiles: v.GetInt("reference.max_files"),
		MaxChars: v.GetInt("reference.max_chars"),
	}
	cfg.Archive = ArchiveConfig{
		Provider:  v.GetString("archive.provider"),
		Region:    v.GetString("archive.region"),
		Bucket:    v.GetString("archive.bucket"),
		Endpoint:  v.GetString("archive.endpoint"),
		AccessKey: v.GetString("archive.access_key"),
		SecretKey: v.GetString("archive.secret_key"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Intake = IntakeConfig{
		QuestionsFile: orDefault(v.GetString("intake.questions_file"), filepath.Join(baseDir, "config", "questions.txt")),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) LLMProviderConfig {
	return LLMProviderConfig{
		Provider:          v.GetString(prefix + ".provider"),
		APIKey:            v.GetString(prefix + ".api_key"),
		BaseURL:           v.GetString(prefix + ".base_url"),
		Model:             v.GetString(prefix + ".model"),
		MaxTokens:         v.GetInt(prefix + ".max_tokens"),
		Temperature:       v.GetFloat64(prefix + ".temperature"),
		TimeoutSecs:       v.GetInt(prefix + ".timeout_secs"),
		RequestsPerMinute: v.GetInt(prefix + ".requests_per_minute"),
	}
}

// verbosityLevels converts the raw "level -> {label, max_words}" map. YAML
// files may key levels by string or integer; both end up as strings here.
func verbosityLevels(raw map[string]any) (map[int]VerbosityLevel, error) {
	levels := make(map[int]VerbosityLevel, len(raw))
	for key, val := range raw {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, eris.Wrapf(err, "config: verbosity level %q is not an integer", key)
		}
		entry, ok := val.(map[string]any)
		if !ok {
			return nil, eris.Errorf("config: verbosity level %d must be a mapping", n)
		}
		lvl := VerbosityLevel{}
		if label, ok := entry["label"].(string); ok {
			lvl.Label = label
		}
		switch mw := entry["max_words"].(type) {
		case int:
			lvl.MaxWords = mw
		case int64:
			lvl.MaxWords = int(mw)
		case float64:
			lvl.MaxWords = int(mw)
		case string:
			lvl.MaxWords, _ = strconv.Atoi(mw)
		}
		levels[n] = lvl
	}
	return levels, nil
}

func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}

// splitList parses a comma separated setting, dropping blank items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// InitLogger builds the global zap logger from the log settings.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
