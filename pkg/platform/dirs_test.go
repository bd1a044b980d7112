package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetAppDirs(t *testing.T) {
	dirs, err := GetAppDirs("smsbridge-test")
	if err != nil {
		t.Fatalf("GetAppDirs failed: %v", err)
	}

	if dirs.Config == "" {
		t.Error("Config dir should return a non-empty path")
	}

	if dirs.Data == "" {
		t.Error("Data dir should return a non-empty path")
	}

	// Should be absolute paths
	if !filepath.IsAbs(dirs.Config) {
		t.Error("Config dir should return an absolute path")
	}

	if !filepath.IsAbs(dirs.Data) {
		t.Error("Data dir should return an absolute path")
	}

	// Should contain the app name in the path
	if !contains(dirs.Config, "smsbridge-test") {
		t.Error("Config dir should contain 'smsbridge-test' in the path")
	}

	if !contains(dirs.Data, "smsbridge-test") {
		t.Error("Data dir should contain 'smsbridge-test' in the path")
	}
}

func TestDirectoryCreation(t *testing.T) {
	dirs, err := GetAppDirs("smsbridge-test2")
	if err != nil {
		t.Fatalf("GetAppDirs failed: %v", err)
	}

	// GetAppDirs should have already created the directories
	if _, err := os.Stat(dirs.Config); os.IsNotExist(err) {
		t.Errorf("Config directory was not created: %s", dirs.Config)
	}

	if _, err := os.Stat(dirs.Data); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dirs.Data)
	}
}

func TestGetDownloadsDir(t *testing.T) {
	dir, err := GetDownloadsDir()
	if err != nil {
		t.Fatalf("GetDownloadsDir failed: %v", err)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("Downloads dir should be absolute, got %q", dir)
	}
}

// Helper function
func contains(s, substr string) bool {
	return filepath.Base(s) == substr || filepath.Base(filepath.Dir(s)) == substr
}
