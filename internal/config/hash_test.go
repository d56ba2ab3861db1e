package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validTestConfig = "slack:\n  signing_secret: s\nadmin:\n  enabled: false\n"

func TestGenerateChecksumsDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(validTestConfig), 0600); err != nil {
		t.Fatal(err)
	}

	report, err := GenerateChecksums(configPath, true)
	if err != nil {
		t.Fatalf("GenerateChecksums() failed: %v", err)
	}

	if report.Written {
		t.Fatal("report.Written = true, want false in dry-run")
	}
	if report.Hash == "" {
		t.Fatal("report.Hash is empty, want computed hash")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".checksums")); !os.IsNotExist(err) {
		t.Fatal(".checksums should not be written in dry-run mode")
	}
}

func TestGenerateChecksumsWritesManifest(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(validTestConfig), 0600); err != nil {
		t.Fatal(err)
	}

	report, err := GenerateChecksums(configPath, false)
	if err != nil {
		t.Fatalf("GenerateChecksums() failed: %v", err)
	}
	if !report.Written {
		t.Fatal("report.Written = false, want true")
	}

	manifest, err := LoadChecksums(tmpDir)
	if err != nil {
		t.Fatalf("LoadChecksums() failed: %v", err)
	}
	if manifest.Version != 1 {
		t.Errorf("manifest.Version = %d, want 1", manifest.Version)
	}
	if manifest.Hashes["config.yaml"] != report.Hash {
		t.Errorf("manifest hash = %q, want %q", manifest.Hashes["config.yaml"], report.Hash)
	}

	info, err := os.Stat(report.ChecksumPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("checksums mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadVerifiesChecksums(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(validTestConfig), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := GenerateChecksums(configPath, false); err != nil {
		t.Fatalf("GenerateChecksums() failed: %v", err)
	}

	// Untampered file loads fine.
	if _, err := Load(configPath); err != nil {
		t.Fatalf("Load() after lock failed: %v", err)
	}

	// Tampering after lock is rejected.
	tampered := validTestConfig + "subject: Mallory\n"
	if err := os.WriteFile(configPath, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() of tampered config succeeded, want error")
	}
	if !strings.Contains(err.Error(), "tampering") {
		t.Errorf("error = %q, want tampering notice", err.Error())
	}
}

func TestLoadSkipsVerificationWithoutManifest(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(validTestConfig), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err != nil {
		t.Fatalf("Load() without .checksums failed: %v", err)
	}
}

func TestVerifyFileHashMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	err := VerifyFileHash(path, "0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("VerifyFileHash() = nil, want mismatch error")
	}
	if !strings.Contains(err.Error(), "hash mismatch") {
		t.Errorf("error = %q, want hash mismatch", err.Error())
	}
}
