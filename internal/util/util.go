package util

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yumyai/locushunter/logger"
	"go.uber.org/zap"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListInputFiles returns the regular, non-hidden files directly under dir,
// sorted by name.
func ListInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// NewWorkDir creates a locus_hunter_* directory under parent (the system temp
// dir when empty). The cleanup func removes it unless keep is set.
func NewWorkDir(parent string, keep bool) (string, func(), error) {
	dir, err := os.MkdirTemp(parent, "locus_hunter_")
	if err != nil {
		return "", nil, fmt.Errorf("create work dir: %w", err)
	}
	cleanup := func() {
		if keep {
			logger.Info("Keeping work dir", zap.String("dir", dir))
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove work dir", zap.String("dir", dir), zap.Error(err))
		}
	}
	return dir, cleanup, nil
}

// RunCommand runs bin and folds its stderr into the returned error.
func RunCommand(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("exec", zap.String("bin", bin), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("failed to execute %s: %w", bin, err)
		}
		return fmt.Errorf("failed to execute %s: %w: %s", bin, err, msg)
	}
	return nil
}
