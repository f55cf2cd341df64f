package ingest

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// textFile loads plain text and markdown files.
type textFile struct {
	path string
}

// NewTextFile creates a loader for plain text files.
func NewTextFile(path string) Loader {
	return &textFile{path: path}
}

func (l *textFile) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return documentloaders.NewText(f).LoadAndSplit(ctx, splitter)
}

// csvFile loads CSV files, one document per row.
type csvFile struct {
	path string
}

// NewCSVFile creates a loader for CSV files.
func NewCSVFile(path string) Loader {
	return &csvFile{path: path}
}

func (l *csvFile) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return documentloaders.NewCSV(f).LoadAndSplit(ctx, splitter)
}

// htmlFile loads HTML files, extracting the visible text.
type htmlFile struct {
	path string
}

// NewHTMLFile creates a loader for HTML files.
func NewHTMLFile(path string) Loader {
	return &htmlFile{path: path}
}

func (l *htmlFile) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return documentloaders.NewHTML(f).LoadAndSplit(ctx, splitter)
}

// pdfFile loads PDF files, one document per page before splitting.
type pdfFile struct {
	path string
}

// NewPDFFile creates a loader for PDF files.
func NewPDFFile(path string) Loader {
	return &pdfFile{path: path}
}

func (l *pdfFile) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return documentloaders.NewPDF(f, info.Size()).LoadAndSplit(ctx, splitter)
}
