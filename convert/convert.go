package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"certgen-server-go/logger"
)

// Converter turns a rendered document into a PDF
type Converter interface {
	// Convert writes the PDF into outDir and returns its path
	Convert(ctx context.Context, src, outDir string) (string, error)
}

// runFunc executes an external command and returns its combined output
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SofficeConverter converts documents with the LibreOffice command line
type SofficeConverter struct {
	Command string
	Timeout time.Duration
	// Isolated gives each conversion its own LibreOffice profile, which
	// parallel soffice processes need
	Isolated bool

	run runFunc
}

// NewSofficeConverter returns a converter running command. A zero timeout
// waits for the converter indefinitely.
func NewSofficeConverter(command string, timeout time.Duration) *SofficeConverter {
	return &SofficeConverter{Command: command, Timeout: timeout, run: execRun}
}

func (c *SofficeConverter) Convert(ctx context.Context, src, outDir string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, src}
	if c.Isolated {
		profile, err := os.MkdirTemp("", "certgen-lo-")
		if err != nil {
			return "", fmt.Errorf("failed to create converter profile: %w", err)
		}
		defer os.RemoveAll(profile)
		args = append([]string{"-env:UserInstallation=file://" + filepath.ToSlash(profile)}, args...)
	}

	run := c.run
	if run == nil {
		run = execRun
	}

	start := time.Now()
	out, err := run(ctx, c.Command, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("converting %s timed out after %s", filepath.Base(src), c.Timeout)
		}
		return "", fmt.Errorf("converting %s failed: %w: %s", filepath.Base(src), err, strings.TrimSpace(string(out)))
	}

	pdf := PDFPath(src, outDir)
	if _, err := os.Stat(pdf); err != nil {
		return "", fmt.Errorf("converter produced no output for %s: %s", filepath.Base(src), strings.TrimSpace(string(out)))
	}
	logger.Debug("Converted document", zap.String("src", src), zap.String("pdf", pdf), zap.Duration("took", time.Since(start)))
	return pdf, nil
}

// PDFPath is where a conversion of src into outDir lands
func PDFPath(src, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(outDir, base+".pdf")
}
