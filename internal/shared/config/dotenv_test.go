package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadEnvFilesParsesValues(t *testing.T) {
	unsetForTest(t, "KYC_TEST_PLAIN", "KYC_TEST_EXPORTED", "KYC_TEST_COMMENTED", "KYC_TEST_SINGLE", "KYC_TEST_ESCAPED")
	path := writeEnvFile(t, `# workflow engine
KYC_TEST_PLAIN=9090
export KYC_TEST_EXPORTED="http://engine/webhook"
KYC_TEST_COMMENTED=val # trailing comment
KYC_TEST_SINGLE='it"s literal'
KYC_TEST_ESCAPED="line1\nline2"
`)

	loadEnvFiles(path)

	tests := map[string]string{
		"KYC_TEST_PLAIN":     "9090",
		"KYC_TEST_EXPORTED":  "http://engine/webhook",
		"KYC_TEST_COMMENTED": "val",
		"KYC_TEST_SINGLE":    `it"s literal`,
		"KYC_TEST_ESCAPED":   "line1\nline2",
	}
	for key, want := range tests {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	path := writeEnvFile(t, "KYC_TEST_SET=file\nKYC_TEST_UNSET=file\n")
	t.Setenv("KYC_TEST_SET", "process")
	unsetForTest(t, "KYC_TEST_UNSET")

	loadEnvFiles(path)

	if got := os.Getenv("KYC_TEST_SET"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
	if got := os.Getenv("KYC_TEST_UNSET"); got != "file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

func TestLoadEnvFilesSkipsMissingFiles(t *testing.T) {
	unsetForTest(t, "KYC_TEST_AFTER_MISSING")
	missing := filepath.Join(t.TempDir(), "absent.env")
	path := writeEnvFile(t, "KYC_TEST_AFTER_MISSING=loaded\n")

	loadEnvFiles(missing, path)

	if got := os.Getenv("KYC_TEST_AFTER_MISSING"); got != "loaded" {
		t.Fatalf("expected value from the existing file, got %q", got)
	}
}
