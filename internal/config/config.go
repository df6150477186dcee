// Package config loads the environment-driven settings for the ingest
// daemon. Load validates every field and fails with a precise message, so
// that a misconfigured container exits immediately instead of limping along.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// Validation bounds. Mirrored in the error messages below.
const (
	MaxTopK            = 50
	MinContextChars    = 500
	MaxContextChars    = 100000
	MaxWorkers         = 64
	MaxRPS             = 1000
	MaxBurst           = 10000
	MaxProgressFiles   = 10000
	MaxProgressSeconds = 3600
	MaxGraceSeconds    = 600
)

// Storage backend names accepted for STORAGE_BACKEND.
const BackendGoogleDrive = "google_drive"

// PDF extraction engine names accepted for PDF_EXTRACTION_ENGINE.
const (
	PDFEngineNative    = "native"
	PDFEnginePdftotext = "pdftotext"
)

// Settings is the validated configuration snapshot. It is loaded once at
// startup and treated as read-only afterwards.
type Settings struct {
	// Storage provider
	StorageBackend     string
	ServiceAccountJSON string
	FolderIDs          []string
	AllAccessible      bool

	// Google API limits
	MaxRowsPerSheet  int
	BackoffRetries   int
	BackoffBaseDelay time.Duration
	BackoffMaxDelay  time.Duration
	APIRPS           float64
	APIBurst         int

	// Per-format feature flags (FILE_TYPE_*_ENABLED)
	GDocsEnabled   bool
	GSheetsEnabled bool
	GSlidesEnabled bool
	TextEnabled    bool
	PDFEnabled     bool
	DocxEnabled    bool
	DocEnabled     bool
	XlsxEnabled    bool
	XlsEnabled     bool
	PptxEnabled    bool
	PptEnabled     bool

	// Extractor caps
	TextMaxFileSizeMB   float64
	PDFMaxFileSizeMB    float64
	OfficeMaxFileSizeMB float64
	PDFMaxPages         int
	ExcelMaxSheets      int
	PDFEngine           string

	// Vector store
	QdrantURL        string
	QdrantCollection string
	EmbedURL         string
	EmbedModel       string
	ChunkChars       int
	ChunkOverlap     int

	// Read path
	TopK            int
	MaxContextChars int

	// Orchestrator
	IngestMode      string // once|loop
	PollSeconds     int
	Workers         int
	ProgressFiles   int
	ProgressSeconds int
	GraceSeconds    int

	// Health
	HealthHost       string
	BotHealthPort    int
	IngestHealthPort int

	// Logging
	LogLevel     string
	LogPlainText bool

	// Container orchestration smoke test
	SmokeTestSeconds float64
}

// Load reads and validates the settings from the environment. All returned
// errors are fatal.
func Load() (*Settings, error) {
	s := &Settings{
		StorageBackend:     envString("STORAGE_BACKEND", BackendGoogleDrive),
		ServiceAccountJSON: envString("STORAGE_GOOGLE_DRIVE_SERVICE_ACCOUNT_JSON", "/run/secrets/google_sa"),

		QdrantURL:        envString("QDRANT_URL", "http://qdrant:6333"),
		QdrantCollection: envString("QDRANT_COLLECTION", "docs"),
		EmbedURL:         envString("EMBED_URL", "http://embedder:8000"),
		EmbedModel:       envString("EMBED_MODEL", "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"),

		PDFEngine: strings.ToLower(strings.TrimSpace(envString("PDF_EXTRACTION_ENGINE", PDFEngineNative))),

		IngestMode: strings.ToLower(strings.TrimSpace(envString("INGEST_MODE", "loop"))),

		HealthHost: envString("HEALTH_HOST", "localhost"),

		LogLevel: envString("LOG_LEVEL", "info"),
	}

	var err error
	if s.FolderIDs, err = envStringList("STORAGE_GOOGLE_DRIVE_FOLDER_IDS"); err != nil {
		return nil, err
	}
	if s.AllAccessible, err = envBool("STORAGE_GOOGLE_DRIVE_ALL_ACCESSIBLE", false); err != nil {
		return nil, err
	}
	if s.MaxRowsPerSheet, err = envInt("STORAGE_GOOGLE_DRIVE_MAX_ROWS_PER_SHEET", 2000); err != nil {
		return nil, err
	}
	if s.BackoffRetries, err = envInt("STORAGE_GOOGLE_DRIVE_BACKOFF_RETRIES", 8); err != nil {
		return nil, err
	}
	if s.BackoffBaseDelay, err = envSeconds("STORAGE_GOOGLE_DRIVE_BACKOFF_BASE_DELAY_SECONDS", time.Second); err != nil {
		return nil, err
	}
	if s.BackoffMaxDelay, err = envSeconds("STORAGE_GOOGLE_DRIVE_BACKOFF_MAX_DELAY_SECONDS", 30*time.Second); err != nil {
		return nil, err
	}
	if s.APIRPS, err = envFloat("STORAGE_GOOGLE_DRIVE_API_RPS", 8); err != nil {
		return nil, err
	}
	if s.APIBurst, err = envInt("STORAGE_GOOGLE_DRIVE_API_BURST", 16); err != nil {
		return nil, err
	}

	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"FILE_TYPE_GDOCS_ENABLED", &s.GDocsEnabled},
		{"FILE_TYPE_GSHEETS_ENABLED", &s.GSheetsEnabled},
		{"FILE_TYPE_GSLIDES_ENABLED", &s.GSlidesEnabled},
		{"FILE_TYPE_TEXT_BASED_ENABLED", &s.TextEnabled},
		{"FILE_TYPE_PDF_ENABLED", &s.PDFEnabled},
		{"FILE_TYPE_DOCX_ENABLED", &s.DocxEnabled},
		{"FILE_TYPE_DOC_ENABLED", &s.DocEnabled},
		{"FILE_TYPE_XLSX_ENABLED", &s.XlsxEnabled},
		{"FILE_TYPE_XLS_ENABLED", &s.XlsEnabled},
		{"FILE_TYPE_PPTX_ENABLED", &s.PptxEnabled},
		{"FILE_TYPE_PPT_ENABLED", &s.PptEnabled},
	} {
		if *flag.dst, err = envBool(flag.name, true); err != nil {
			return nil, err
		}
	}

	if s.TextMaxFileSizeMB, err = envFloat("TEXT_MAX_FILE_SIZE_MB", 5); err != nil {
		return nil, err
	}
	if s.PDFMaxFileSizeMB, err = envFloat("PDF_MAX_FILE_SIZE_MB", 20); err != nil {
		return nil, err
	}
	if s.OfficeMaxFileSizeMB, err = envFloat("OFFICE_MAX_FILE_SIZE_MB", 20); err != nil {
		return nil, err
	}
	if s.PDFMaxPages, err = envInt("PDF_MAX_PAGES", 200); err != nil {
		return nil, err
	}
	if s.ExcelMaxSheets, err = envInt("EXCEL_MAX_SHEETS", 20); err != nil {
		return nil, err
	}

	if s.ChunkChars, err = envInt("QDRANT_CHUNK_CHARS", 900); err != nil {
		return nil, err
	}
	if s.ChunkOverlap, err = envInt("QDRANT_CHUNK_OVERLAP", 120); err != nil {
		return nil, err
	}

	if s.TopK, err = envInt("TOP_K", 6); err != nil {
		return nil, err
	}
	if s.MaxContextChars, err = envInt("MAX_CONTEXT_CHARS", 6000); err != nil {
		return nil, err
	}

	if s.PollSeconds, err = envInt("INGEST_POLL_SECONDS", 600); err != nil {
		return nil, err
	}
	if s.Workers, err = envInt("INGEST_WORKERS", 6); err != nil {
		return nil, err
	}
	if s.ProgressFiles, err = envInt("INGEST_PROGRESS_FILES", 25); err != nil {
		return nil, err
	}
	if s.ProgressSeconds, err = envInt("INGEST_PROGRESS_SECONDS", 30); err != nil {
		return nil, err
	}
	if s.GraceSeconds, err = envInt("INGEST_SHUTDOWN_GRACE_SECONDS", 20); err != nil {
		return nil, err
	}

	if s.BotHealthPort, err = envInt("BOT_HEALTH_PORT", 8080); err != nil {
		return nil, err
	}
	if s.IngestHealthPort, err = envInt("INGEST_HEALTH_PORT", 8081); err != nil {
		return nil, err
	}

	if s.LogPlainText, err = envBool("LOG_PLAIN_TEXT", false); err != nil {
		return nil, err
	}
	if s.SmokeTestSeconds, err = envFloat("SMOKE_TEST_SECONDS", 0); err != nil {
		return nil, err
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.StorageBackend != BackendGoogleDrive {
		return errors.Fatalf("STORAGE_BACKEND must be %q, got %q", BackendGoogleDrive, s.StorageBackend)
	}
	if s.StorageBackend == BackendGoogleDrive && !s.AllAccessible && len(s.FolderIDs) == 0 {
		return errors.Fatal("Set STORAGE_GOOGLE_DRIVE_FOLDER_IDS (JSON array or comma-separated) or set STORAGE_GOOGLE_DRIVE_ALL_ACCESSIBLE=true")
	}
	if s.IngestMode != "once" && s.IngestMode != "loop" {
		return errors.Fatalf("INGEST_MODE must be 'once' or 'loop', got %q", s.IngestMode)
	}
	if s.PDFEngine != PDFEngineNative && s.PDFEngine != PDFEnginePdftotext {
		return errors.Fatalf("PDF_EXTRACTION_ENGINE must be %q or %q, got %q", PDFEngineNative, PDFEnginePdftotext, s.PDFEngine)
	}
	if s.MaxRowsPerSheet < 1 {
		return errors.Fatal("STORAGE_GOOGLE_DRIVE_MAX_ROWS_PER_SHEET must be >= 1")
	}
	if s.BackoffRetries < 0 {
		return errors.Fatal("STORAGE_GOOGLE_DRIVE_BACKOFF_RETRIES must be >= 0")
	}
	if s.APIRPS <= 0 || s.APIRPS > MaxRPS {
		return errors.Fatalf("STORAGE_GOOGLE_DRIVE_API_RPS must be in range (0..%d]", MaxRPS)
	}
	if s.APIBurst < 1 || s.APIBurst > MaxBurst {
		return errors.Fatalf("STORAGE_GOOGLE_DRIVE_API_BURST must be in range [1..%d]", MaxBurst)
	}
	if s.TopK < 1 || s.TopK > MaxTopK {
		return errors.Fatalf("TOP_K must be in range [1..%d]", MaxTopK)
	}
	if s.MaxContextChars < MinContextChars || s.MaxContextChars > MaxContextChars {
		return errors.Fatalf("MAX_CONTEXT_CHARS must be in range [%d..%d]", MinContextChars, MaxContextChars)
	}
	if s.Workers < 1 || s.Workers > MaxWorkers {
		return errors.Fatalf("INGEST_WORKERS must be in range [1..%d]", MaxWorkers)
	}
	if s.ProgressFiles < 1 || s.ProgressFiles > MaxProgressFiles {
		return errors.Fatalf("INGEST_PROGRESS_FILES must be in range [1..%d]", MaxProgressFiles)
	}
	if s.ProgressSeconds < 1 || s.ProgressSeconds > MaxProgressSeconds {
		return errors.Fatalf("INGEST_PROGRESS_SECONDS must be in range [1..%d]", MaxProgressSeconds)
	}
	if s.GraceSeconds < 0 || s.GraceSeconds > MaxGraceSeconds {
		return errors.Fatalf("INGEST_SHUTDOWN_GRACE_SECONDS must be in range [0..%d]", MaxGraceSeconds)
	}
	if s.ChunkChars < 1 {
		return errors.Fatal("QDRANT_CHUNK_CHARS must be >= 1")
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkChars {
		return errors.Fatal("QDRANT_CHUNK_OVERLAP must be >= 0 and smaller than QDRANT_CHUNK_CHARS")
	}
	return nil
}

// SafeDump returns the settings as a loggable map. Secrets are reduced to
// their presence.
func (s *Settings) SafeDump() map[string]interface{} {
	return map[string]interface{}{
		"STORAGE_BACKEND":                     s.StorageBackend,
		"STORAGE_GOOGLE_DRIVE_FOLDER_IDS":     s.FolderIDs,
		"STORAGE_GOOGLE_DRIVE_ALL_ACCESSIBLE": s.AllAccessible,
		"STORAGE_GOOGLE_DRIVE_API_RPS":        s.APIRPS,
		"STORAGE_GOOGLE_DRIVE_API_BURST":      s.APIBurst,
		"QDRANT_URL":                          s.QdrantURL,
		"QDRANT_COLLECTION":                   s.QdrantCollection,
		"EMBED_URL":                           s.EmbedURL,
		"EMBED_MODEL":                         s.EmbedModel,
		"TOP_K":                               s.TopK,
		"MAX_CONTEXT_CHARS":                   s.MaxContextChars,
		"PDF_EXTRACTION_ENGINE":               s.PDFEngine,
		"INGEST_MODE":                         s.IngestMode,
		"INGEST_POLL_SECONDS":                 s.PollSeconds,
		"INGEST_WORKERS":                      s.Workers,
		"INGEST_PROGRESS_FILES":               s.ProgressFiles,
		"INGEST_PROGRESS_SECONDS":             s.ProgressSeconds,
		"INGEST_SHUTDOWN_GRACE_SECONDS":       s.GraceSeconds,
		"HEALTH_HOST":                         s.HealthHost,
		"INGEST_HEALTH_PORT":                  s.IngestHealthPort,
		"SERVICE_ACCOUNT_CONFIGURED":          s.ServiceAccountJSON != "",
	}
}

func envString(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// envStringList accepts either a JSON array or a comma-separated list.
func envStringList(name string) ([]string, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, errors.Fatalf("%s is not a valid JSON array: %v", name, err)
		}
		cleaned := out[:0]
		for _, v := range out {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		return cleaned, nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

func envBool(name string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, errors.Fatalf("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

func envInt(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Fatalf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func envFloat(name string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Fatalf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

func envSeconds(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, errors.Fatalf("%s must be a non-negative number of seconds, got %q", name, raw)
	}
	return time.Duration(v * float64(time.Second)), nil
}
