package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAS_BASE_DIR", "/srv/pas")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "/srv/pas", cfg.Storage.BaseDir)
	assert.Equal(t, filepath.Join("/srv/pas", "data", "projects"), cfg.Storage.ProjectsDir)
	assert.Equal(t, filepath.Join("/srv/pas", "data", "corpus", "files"), cfg.Storage.CorpusDir)
	assert.Equal(t, int64(50*1024*1024), cfg.Storage.MaxUploadBytes())
	assert.Equal(t, "claude", cfg.LLM.Primary.Provider)
	assert.Nil(t, cfg.LLM.SecondaryConfig())
	assert.Equal(t, 3, cfg.Reference.MaxFiles)
	assert.Equal(t, 30000, cfg.Reference.MaxChars)
	assert.Equal(t, "noop", cfg.Archive.Provider)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Len(t, cfg.Verbosity.Levels, 4)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join("/srv/pas", "config", "questions.txt"), cfg.Intake.QuestionsFile)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAS_LLM_SECONDARY_PROVIDER", "openai")
	t.Setenv("PAS_LLM_SECONDARY_MODEL", "gpt-4o")
	t.Setenv("PAS_REFERENCE_MAX_FILES", "5")
	t.Setenv("PAS_SERVER_CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("PAS_INTAKE_QUESTIONS_FILE", "/etc/pas/questions.txt")

	cfg, err := config.Load()
	require.NoError(t, err)

	secondary := cfg.LLM.SecondaryConfig()
	require.NotNil(t, secondary)
	assert.Equal(t, "openai", secondary.Provider)
	assert.Equal(t, "gpt-4o", secondary.Model)
	assert.Equal(t, 5, cfg.Reference.MaxFiles)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/etc/pas/questions.txt", cfg.Intake.QuestionsFile)
}

func TestLoad_ConfigFileVerbosity(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.yaml")
	content := `verbosity:
  levels:
    "1":
      label: Bref
      max_words: 30
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	t.Setenv("PAS_CONFIG_FILE", file)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Niveau 1 — Bref (30 mots max par réponse)", cfg.Verbosity.Directive(1))
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("PAS_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestVerbosityDirective(t *testing.T) {
	v := config.VerbosityConfig{Levels: map[int]config.VerbosityLevel{
		2: {Label: "Standard", MaxWords: 120},
	}}

	assert.Equal(t, "Niveau 2 — Standard (120 mots max par réponse)", v.Directive(2))
	assert.Equal(t, "Niveau 7 —  (100 mots max par réponse)", v.Directive(7))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, config.InitLogger(config.LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, config.InitLogger(config.LogConfig{Level: "loud", Format: "console"}))
}
