package config

import (
	"testing"
	"time"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
	"github.com/gdrive-assistant/gdrive-assistant/internal/test"
)

// setMinimalEnv sets the smallest environment a successful Load needs.
func setMinimalEnv(t *testing.T) {
	t.Setenv("STORAGE_GOOGLE_DRIVE_FOLDER_IDS", "folder-a")
}

func TestLoadDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	test.OK(t, err)

	test.Equals(t, BackendGoogleDrive, cfg.StorageBackend)
	test.Equals(t, []string{"folder-a"}, cfg.FolderIDs)
	test.Equals(t, false, cfg.AllAccessible)
	test.Equals(t, 8, cfg.BackoffRetries)
	test.Equals(t, time.Second, cfg.BackoffBaseDelay)
	test.Equals(t, 30*time.Second, cfg.BackoffMaxDelay)
	test.Equals(t, 8.0, cfg.APIRPS)
	test.Equals(t, 16, cfg.APIBurst)
	test.Equals(t, "loop", cfg.IngestMode)
	test.Equals(t, PDFEngineNative, cfg.PDFEngine)
	test.Equals(t, 900, cfg.ChunkChars)
	test.Equals(t, 120, cfg.ChunkOverlap)
	test.Equals(t, 6, cfg.Workers)
	test.Assert(t, cfg.GDocsEnabled && cfg.PptEnabled, "expected all format flags on by default")
}

func TestLoadFolderIDsJSONArray(t *testing.T) {
	t.Setenv("STORAGE_GOOGLE_DRIVE_FOLDER_IDS", `["a", " b ", ""]`)

	cfg, err := Load()
	test.OK(t, err)
	test.Equals(t, []string{"a", "b"}, cfg.FolderIDs)
}

func TestLoadFolderIDsCommaList(t *testing.T) {
	t.Setenv("STORAGE_GOOGLE_DRIVE_FOLDER_IDS", "a, b ,,c")

	cfg, err := Load()
	test.OK(t, err)
	test.Equals(t, []string{"a", "b", "c"}, cfg.FolderIDs)
}

func TestLoadRequiresScope(t *testing.T) {
	t.Setenv("STORAGE_GOOGLE_DRIVE_FOLDER_IDS", "")
	t.Setenv("STORAGE_GOOGLE_DRIVE_ALL_ACCESSIBLE", "false")

	_, err := Load()
	test.Assert(t, errors.IsFatal(err), "expected a fatal error, got %v", err)
}

func TestLoadAllAccessibleWithoutFolders(t *testing.T) {
	t.Setenv("STORAGE_GOOGLE_DRIVE_ALL_ACCESSIBLE", "true")

	cfg, err := Load()
	test.OK(t, err)
	test.Assert(t, cfg.AllAccessible, "expected all-accessible scope")
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"INGEST_MODE", "sometimes"},
		{"PDF_EXTRACTION_ENGINE", "ghostscript"},
		{"STORAGE_GOOGLE_DRIVE_API_RPS", "0"},
		{"STORAGE_GOOGLE_DRIVE_API_RPS", "1001"},
		{"STORAGE_GOOGLE_DRIVE_API_BURST", "0"},
		{"STORAGE_GOOGLE_DRIVE_BACKOFF_RETRIES", "-1"},
		{"TOP_K", "0"},
		{"TOP_K", "51"},
		{"MAX_CONTEXT_CHARS", "499"},
		{"MAX_CONTEXT_CHARS", "100001"},
		{"INGEST_WORKERS", "0"},
		{"INGEST_WORKERS", "65"},
		{"INGEST_PROGRESS_FILES", "0"},
		{"INGEST_PROGRESS_SECONDS", "0"},
		{"INGEST_SHUTDOWN_GRACE_SECONDS", "-1"},
		{"QDRANT_CHUNK_CHARS", "0"},
		{"QDRANT_CHUNK_OVERLAP", "900"},
	}
	for _, tc := range tests {
		t.Run(tc.name+"="+tc.value, func(t *testing.T) {
			setMinimalEnv(t)
			t.Setenv(tc.name, tc.value)

			_, err := Load()
			test.Assert(t, errors.IsFatal(err), "expected a fatal error for %s=%s, got %v",
				tc.name, tc.value, err)
		})
	}
}

func TestLoadParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"STORAGE_GOOGLE_DRIVE_ALL_ACCESSIBLE", "maybe"},
		{"INGEST_WORKERS", "many"},
		{"STORAGE_GOOGLE_DRIVE_API_RPS", "fast"},
		{"STORAGE_GOOGLE_DRIVE_BACKOFF_BASE_DELAY_SECONDS", "-2"},
		{"STORAGE_GOOGLE_DRIVE_FOLDER_IDS", `["unterminated`},
	}
	for _, tc := range tests {
		t.Run(tc.name+"="+tc.value, func(t *testing.T) {
			setMinimalEnv(t)
			t.Setenv(tc.name, tc.value)

			_, err := Load()
			test.Assert(t, errors.IsFatal(err), "expected a fatal error for %s=%s, got %v",
				tc.name, tc.value, err)
		})
	}
}

func TestEnvSeconds(t *testing.T) {
	t.Setenv("X_SECONDS", "1.5")
	d, err := envSeconds("X_SECONDS", 0)
	test.OK(t, err)
	test.Equals(t, 1500*time.Millisecond, d)
}

func TestSafeDumpHidesSecrets(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("STORAGE_GOOGLE_DRIVE_SERVICE_ACCOUNT_JSON", "/run/secrets/google_sa")

	cfg, err := Load()
	test.OK(t, err)

	dump := cfg.SafeDump()
	test.Equals(t, true, dump["SERVICE_ACCOUNT_CONFIGURED"])
	for key := range dump {
		test.Assert(t, key != "STORAGE_GOOGLE_DRIVE_SERVICE_ACCOUNT_JSON",
			"service account path must not be dumped")
	}
}
