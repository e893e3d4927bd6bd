package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://result.tuexam.edu.np/", cfg.Portal.URL)
	assert.Equal(t, "BSC", cfg.Portal.ExamCategory)
	assert.Equal(t, []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}, cfg.Portal.Durations)
	assert.Equal(t, 5*time.Second, cfg.Portal.RenderDelay)
	assert.True(t, cfg.Portal.Headless)
	assert.Equal(t, "ocrspace", cfg.OCR.Engine)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, "2", cfg.OCR.SpaceEngine)
	assert.True(t, cfg.OCR.TableMode)
	assert.Equal(t, "ocr_results.txt", cfg.Output.ResultsFile)
	assert.Equal(t, "result", cfg.Output.ScreenshotPrefix)
	assert.Equal(t, 100, cfg.DB.BatchSize)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"EXAM_CATEGORY":     "BBS",
		"PROGRAM_DURATIONS": " 2nd Year , 3rd Year ,",
		"RENDER_DELAY":      "750ms",
		"HEADLESS":          "false",
		"OCR_ENGINE":        "Gemini",
		"GEMINI_API_KEY":    "k0",
		"GEMINI_API_KEY_2":  "k2",
		"DB_DRIVER":         "sqlite3",
		"SQLITE_PATH":       "/tmp/results.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "BBS", cfg.Portal.ExamCategory)
	assert.Equal(t, []string{"2nd Year", "3rd Year"}, cfg.Portal.Durations)
	assert.Equal(t, 750*time.Millisecond, cfg.Portal.RenderDelay)
	assert.False(t, cfg.Portal.Headless)
	assert.Equal(t, "gemini", cfg.OCR.Engine)
	assert.Equal(t, []string{"k0", "k2"}, cfg.OCR.GeminiKeys)
	assert.Equal(t, "/tmp/results.db", cfg.DB.DSN())
}

func TestFromEnvReportsBadValuesAndKeepsDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"RENDER_DELAY":      "soon",
		"HEADLESS":          "maybe",
		"IMPORT_BATCH_SIZE": "-3",
		"OCR_ENGINE":        "abbyy",
	}))
	require.Error(t, err)

	assert.Contains(t, err.Error(), "RENDER_DELAY")
	assert.Contains(t, err.Error(), "HEADLESS")
	assert.Contains(t, err.Error(), "IMPORT_BATCH_SIZE")
	assert.Contains(t, err.Error(), "OCR_ENGINE")
	assert.Equal(t, 5*time.Second, cfg.Portal.RenderDelay)
	assert.True(t, cfg.Portal.Headless)
	assert.Equal(t, 100, cfg.DB.BatchSize)
}

func TestPostgresDSN(t *testing.T) {
	db := DBConfig{Driver: "postgres", Host: "db", Port: "5433", User: "tu", Password: "secret", Name: "results", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=tu password=secret dbname=results sslmode=disable", db.DSN())
}
