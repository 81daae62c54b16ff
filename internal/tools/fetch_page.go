package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects   = 5
)

// FetchPageTool downloads a listing page the guest pasted and extracts its
// readable content so the agent can discuss it.
type FetchPageTool struct {
	maxChars   int
	httpClient *http.Client
}

// NewFetchPageTool creates a FetchPageTool. maxChars defaults to 20000.
func NewFetchPageTool(maxChars int) *FetchPageTool {
	if maxChars <= 0 {
		maxChars = 20000
	}
	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &FetchPageTool{maxChars: maxChars, httpClient: client}
}

func (t *FetchPageTool) Name() string { return string(ToolFetchPage) }
func (t *FetchPageTool) Description() string {
	return "Fetch a property listing URL the guest shared and return its readable text."
}
func (t *FetchPageTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {
				"type": "string",
				"description": "URL to fetch"
			}
		},
		"required": ["url"]
	}`)
}

func (t *FetchPageTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	rawURL, _ := params["url"].(string)
	if rawURL == "" {
		return "Error: url is required", nil
	}
	if err := validatePageURL(rawURL); err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error fetching %s: %v", rawURL, err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading %s: %v", rawURL, err), nil
	}

	text := string(body)
	if isHTML(resp.Header.Get("Content-Type"), body) {
		parsedURL, _ := url.Parse(rawURL)
		article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
		if err == nil {
			text = stripHTMLTags(article.Content)
			if article.Title != "" {
				text = article.Title + "\n\n" + text
			}
		} else {
			text = stripHTMLTags(text)
		}
	}

	truncated := false
	if len(text) > t.maxChars {
		text = text[:t.maxChars]
		truncated = true
	}

	out, _ := json.Marshal(map[string]any{
		"url":       rawURL,
		"status":    resp.StatusCode,
		"truncated": truncated,
		"text":      text,
	})
	return string(out), nil
}

// validatePageURL checks that url is http(s) with a valid domain.
func validatePageURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	n := len(body)
	if n > 256 {
		n = 256
	}
	prefix := strings.ToLower(strings.TrimSpace(string(body[:n])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

var (
	reScript   = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle    = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reTags     = regexp.MustCompile(`<[^>]+>`)
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripHTMLTags removes all HTML tags and normalizes whitespace.
func stripHTMLTags(text string) string {
	text = reScript.ReplaceAllString(text, "")
	text = reStyle.ReplaceAllString(text, "")
	text = reTags.ReplaceAllString(text, "")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
