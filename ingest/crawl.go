package ingest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/net/html"
)

const defaultMaxCrawlPages = 10

// crawlURL walks same-host links breadth-first from a start page, loading
// each visited page's text. The walk is bounded by maxPages.
type crawlURL struct {
	url      string
	maxPages int
	client   *http.Client
}

// NewCrawlURL creates a loader that crawls same-host pages starting at rawURL.
func NewCrawlURL(rawURL string) Loader {
	return &crawlURL{
		url:      rawURL,
		maxPages: defaultMaxCrawlPages,
		client:   http.DefaultClient,
	}
}

func (l *crawlURL) Load(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	start, err := url.Parse(l.url)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{}
	queue := []*url.URL{start}
	var docs []schema.Document

	for len(queue) > 0 && len(visited) < l.maxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := queue[0]
		queue = queue[1:]

		key := page.String()
		if visited[key] {
			continue
		}
		visited[key] = true

		body, err := fetchPage(ctx, l.client, key)
		if err != nil {
			// The start page must load; later pages are best effort
			if len(visited) == 1 {
				return nil, err
			}
			continue
		}

		pageDocs, err := documentloaders.NewHTML(strings.NewReader(body)).LoadAndSplit(ctx, splitter)
		if err != nil {
			return nil, err
		}
		for i := range pageDocs {
			if pageDocs[i].Metadata == nil {
				pageDocs[i].Metadata = map[string]any{}
			}
			pageDocs[i].Metadata["url"] = key
		}
		docs = append(docs, pageDocs...)

		for _, link := range extractLinks(body, page) {
			if link.Host == start.Host && !visited[link.String()] {
				queue = append(queue, link)
			}
		}
	}

	return docs, nil
}

// extractLinks parses an HTML document and returns the absolute form of
// every anchor href, resolved against base. Fragments are dropped.
func extractLinks(body string, base *url.URL) []*url.URL {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var links []*url.URL
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				resolved.Fragment = ""
				if resolved.Scheme == "http" || resolved.Scheme == "https" {
					links = append(links, resolved)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return links
}
