// Package config loads settings from the environment and an optional .env
// file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the CLI reads from the environment.
type Config struct {
	Portal    PortalConfig
	OCR       OCRConfig
	Output    OutputConfig
	DB        DBConfig
	LogLevel  string
	LogFormat string
}

// PortalConfig describes the result lookup site and how to drive it.
type PortalConfig struct {
	URL            string
	ExamCategory   string
	ProgramName    string
	Durations      []string
	RenderDelay    time.Duration
	PageTimeout    time.Duration
	ElementTimeout time.Duration
	Headless       bool
}

// OCRConfig selects and configures the OCR engine.
type OCRConfig struct {
	Engine         string
	SpaceURL       string
	SpaceAPIKey    string
	Language       string
	SpaceEngine    string
	TableMode      bool
	Timeout        time.Duration
	GeminiKeys     []string
	GeminiModel    string
	TesseractLangs []string
}

// OutputConfig names the files a capture run writes.
type OutputConfig struct {
	ResultsFile      string
	ScreenshotDir    string
	ScreenshotPrefix string
}

// DBConfig holds the importer database settings.
type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
	BatchSize  int
}

// DSN returns the connection string for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == "sqlite3" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Load reads .env (when present) and the environment. Malformed values fall
// back to their defaults; the returned error lists every one of them and
// the Config is still usable.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		Portal: PortalConfig{
			URL:            r.str("RESULT_PORTAL_URL", "https://result.tuexam.edu.np/"),
			ExamCategory:   r.str("EXAM_CATEGORY", "BSC"),
			ProgramName:    r.str("PROGRAM_NAME", "Bachelor Degree in Science (B.Sc.)"),
			Durations:      r.list("PROGRAM_DURATIONS", []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}),
			RenderDelay:    r.duration("RENDER_DELAY", 5*time.Second),
			PageTimeout:    r.duration("PAGE_TIMEOUT", 20*time.Second),
			ElementTimeout: r.duration("ELEMENT_TIMEOUT", 15*time.Second),
			Headless:       r.boolean("HEADLESS", true),
		},
		OCR: OCRConfig{
			Engine:         strings.ToLower(r.str("OCR_ENGINE", "ocrspace")),
			SpaceURL:       r.str("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
			SpaceAPIKey:    r.str("OCR_SPACE_API_KEY", ""),
			Language:       r.str("OCR_LANGUAGE", "eng"),
			SpaceEngine:    r.str("OCR_SPACE_ENGINE", "2"),
			TableMode:      r.boolean("OCR_TABLE_MODE", true),
			Timeout:        r.duration("OCR_TIMEOUT", 60*time.Second),
			GeminiKeys:     geminiKeys(getenv),
			GeminiModel:    r.str("GEMINI_MODEL", "gemini-1.5-flash"),
			TesseractLangs: r.list("TESSERACT_LANGUAGES", []string{"eng"}),
		},
		Output: OutputConfig{
			ResultsFile:      r.str("OUTPUT_FILE", "ocr_results.txt"),
			ScreenshotDir:    r.str("SCREENSHOT_DIR", "."),
			ScreenshotPrefix: r.str("SCREENSHOT_PREFIX", "result"),
		},
		DB: DBConfig{
			Driver:     r.str("DB_DRIVER", "postgres"),
			Host:       r.str("DB_HOST", "localhost"),
			Port:       r.str("DB_PORT", "5432"),
			User:       r.str("DB_USER", ""),
			Password:   r.str("DB_PASSWORD", ""),
			Name:       r.str("DB_NAME", ""),
			SSLMode:    r.str("DB_SSLMODE", "disable"),
			SQLitePath: r.str("SQLITE_PATH", "tu_results.db"),
			BatchSize:  r.positiveInt("IMPORT_BATCH_SIZE", 100),
		},
		LogLevel:  r.str("LOG_LEVEL", "info"),
		LogFormat: r.str("LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		r.errs = append(r.errs, err)
	}
	return cfg, errors.Join(r.errs...)
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	var errs []error
	switch c.OCR.Engine {
	case "ocrspace", "gemini", "tesseract":
	default:
		errs = append(errs, fmt.Errorf("OCR_ENGINE: unknown engine %q", c.OCR.Engine))
	}
	switch c.DB.Driver {
	case "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DB.Driver))
	}
	return errors.Join(errs...)
}

// geminiKeys collects GEMINI_API_KEY followed by GEMINI_API_KEY_1..4.
func geminiKeys(getenv func(string) string) []string {
	var keys []string
	if k := getenv("GEMINI_API_KEY"); k != "" {
		keys = append(keys, k)
	}
	for i := 1; i <= 4; i++ {
		if k := getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) list(key string, def []string) []string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (r *reader) positiveInt(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid positive integer %q", key, v))
		return def
	}
	return n
}
