package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig_NoConfigReturnsEmptyPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(tmpDir, "home"))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupUserConfig_BacksUpExistingConfig(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "home")
	t.Setenv("SEEKR_HOME", home)
	require.NoError(t, os.MkdirAll(home, 0o755))

	content := "version: 1\nembedding:\n  provider: ollama\n"
	require.NoError(t, os.WriteFile(UserConfigPath(), []byte(content), 0o644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, backupPath)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestListUserConfigBackups_NoConfigDirReturnsEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(tmpDir, "nonexistent"))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestListUserConfigBackups_ReturnsNewestFirst(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "home")
	t.Setenv("SEEKR_HOME", home)
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.WriteFile(UserConfigPath(), []byte("version: 1\n"), 0o644))

	var backups []string
	for i := 0; i < 3; i++ {
		bp, err := BackupUserConfig()
		require.NoError(t, err)
		if bp != "" {
			backups = append(backups, bp)
		}
		// Ensure distinct timestamps across backups.
		time.Sleep(1100 * time.Millisecond)
	}

	listed, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.NotEmpty(t, listed)
	require.NotEmpty(t, backups)
	assert.Equal(t, backups[len(backups)-1], listed[0], "newest backup should be listed first")
}

func TestCleanupOldBackups_KeepsOnlyMaxBackups(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "home")
	t.Setenv("SEEKR_HOME", home)
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.WriteFile(UserConfigPath(), []byte("version: 1\n"), 0o644))

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreUserConfig_RestoresFromBackup(t *testing.T) {
	tmpDir := t.TempDir()
	home := filepath.Join(tmpDir, "home")
	t.Setenv("SEEKR_HOME", home)
	require.NoError(t, os.MkdirAll(home, 0o755))

	original := "version: 1\nembedding:\n  provider: ollama\n"
	require.NoError(t, os.WriteFile(UserConfigPath(), []byte(original), 0o644))

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	require.NoError(t, os.WriteFile(UserConfigPath(), []byte("version: 1\nembedding:\n  provider: static\n"), 0o644))

	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(UserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestRestoreUserConfig_MissingBackupReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(tmpDir, "home"))

	err := RestoreUserConfig(filepath.Join(tmpDir, "nonexistent.bak"))
	assert.Error(t, err)
}
