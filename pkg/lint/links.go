package lint

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

var httpLinkRe = regexp.MustCompile("https?://[^\\s`]+")

const linkTrim = ".,()[]{}<>! "

// Links returns the http(s) links of msg that are not adjacent to a
// backtick, trimmed of surrounding punctuation.
func Links(msg string) []string {
	var out []string
	for _, loc := range httpLinkRe.FindAllStringIndex(msg, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && msg[start-1] == '`' {
			continue
		}
		if end < len(msg) && msg[end] == '`' {
			continue
		}
		if link := strings.Trim(msg[start:end], linkTrim); link != "" {
			out = append(out, link)
		}
	}
	return out
}

// LinkChecker probes links with GET requests. Results are remembered for the
// lifetime of the checker.
type LinkChecker struct {
	Client *http.Client

	mu      sync.Mutex
	results map[string]bool
}

// NewLinkChecker returns a checker whose requests time out after timeout.
func NewLinkChecker(timeout time.Duration) *LinkChecker {
	return &LinkChecker{Client: &http.Client{Timeout: timeout}}
}

// BrokenLinks returns the links of msg that do not answer 200 OK.
func (c *LinkChecker) BrokenLinks(ctx context.Context, msg string) []string {
	var broken []string
	for _, link := range Links(msg) {
		if !c.ok(ctx, link) {
			broken = append(broken, link)
		}
	}
	return broken
}

func (c *LinkChecker) ok(ctx context.Context, link string) bool {
	c.mu.Lock()
	if res, found := c.results[link]; found {
		c.mu.Unlock()
		return res
	}
	c.mu.Unlock()

	res := c.probe(ctx, link)

	c.mu.Lock()
	if c.results == nil {
		c.results = make(map[string]bool)
	}
	c.results[link] = res
	c.mu.Unlock()
	return res
}

func (c *LinkChecker) probe(ctx context.Context, link string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
