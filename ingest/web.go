package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const defaultRenderTimeout = 30 * time.Second

// fetchURL loads a single page over plain HTTP and extracts its text.
type fetchURL struct {
	url    string
	client *http.Client
}

// NewFetchURL creates a loader that fetches a URL with a plain HTTP GET.
func NewFetchURL(rawURL string) Loader {
	return &fetchURL{url: rawURL, client: http.DefaultClient}
}

func (l *fetchURL) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	body, err := fetchPage(ctx, l.client, l.url)
	if err != nil {
		return nil, err
	}

	return documentloaders.NewHTML(strings.NewReader(body)).LoadAndSplit(ctx, splitter)
}

// renderURL loads a page through a headless browser, so client-rendered
// content is present in the extracted text.
type renderURL struct {
	url     string
	timeout time.Duration
}

// NewRenderURL creates a loader that renders a URL in a headless browser
// before extracting its text.
func NewRenderURL(rawURL string) Loader {
	return &renderURL{url: rawURL, timeout: defaultRenderTimeout}
}

func (l *renderURL) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(ctx)
	defer browserCancel()

	var rendered string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(l.url),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		return nil, err
	}

	return documentloaders.NewHTML(strings.NewReader(rendered)).LoadAndSplit(ctx, splitter)
}

// fetchPage retrieves a URL and returns the response body as a string.
func fetchPage(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, resp.Body); err != nil {
		return "", err
	}
	return sb.String(), nil
}
