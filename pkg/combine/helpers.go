package combine

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// writeCombinedFile writes text to outputPath, creating parent directories.
func writeCombinedFile(outputPath, text string, logger *zap.Logger) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", filepath.Dir(outputPath)), zap.Error(err))
		return err
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", outputPath), zap.Error(err))
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			logger.Error("Failed to close output file", zap.String("file", outputPath), zap.Error(err))
		}
	}()

	writer := bufio.NewWriter(outFile)
	if _, err := writer.WriteString(text); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	logger.Debug("Wrote combined file", zap.String("file", outputPath), zap.Int("bytes", len(text)))
	return nil
}
