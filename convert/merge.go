package convert

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"certgen-server-go/logger"
)

// ErrNothingToMerge is returned when Merge gets no input files
var ErrNothingToMerge = errors.New("no PDF files to merge")

// Merger combines several PDFs into one file
type Merger interface {
	Merge(inFiles []string, outFile string) error
}

// PDFMerger merges with pdfcpu
type PDFMerger struct {
	conf *model.Configuration
}

func NewPDFMerger() *PDFMerger {
	return &PDFMerger{conf: model.NewDefaultConfiguration()}
}

func (m *PDFMerger) Merge(inFiles []string, outFile string) error {
	if len(inFiles) == 0 {
		return ErrNothingToMerge
	}
	if err := api.MergeCreateFile(inFiles, outFile, false, m.conf); err != nil {
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	if pages, err := api.PageCountFile(outFile); err == nil {
		logger.Info("Merged PDFs", zap.String("file", outFile), zap.Int("inputs", len(inFiles)), zap.Int("pages", pages))
	}
	return nil
}
