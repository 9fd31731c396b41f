package page

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

//go:embed index.html
var indexHTML []byte

// Write (re)creates the board page at path, replacing any existing file.
func Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll -> %w", err)
	}

	if err := os.WriteFile(path, indexHTML, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile -> %w", err)
	}

	zap.L().Info("page written", zap.String("path", path))

	return nil
}

func Content() []byte {
	return indexHTML
}
