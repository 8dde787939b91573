package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	logFilePermission = 0o600
	logDirPermission  = 0o750
)

// InitFile initializes the global logger writing to path, appending. An
// empty path logs to stderr. The returned func closes the file.
func InitFile(path string, json bool, level string) (func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, logDirPermission); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = func() { _ = f.Close() }
	}

	if err := Init(WithWriter(w), WithJSON(json)); err != nil {
		closer()
		return nil, err
	}
	if err := SetLevelString(level); err != nil {
		closer()
		return nil, err
	}
	return closer, nil
}
