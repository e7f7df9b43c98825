package jenkins

import (
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const maxDetail = 200

// responseDetail summarises an error response body. Jenkins answers most failures with an HTML
// error page whose <title> is the useful part; other bodies are collapsed onto one line.
func responseDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return ""
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	text := string(body)
	if strings.Contains(ct, "html") || strings.HasPrefix(strings.TrimSpace(strings.ToLower(text)), "<!doctype html") {
		if title := htmlTitle(text); title != "" {
			return title
		}
	}
	return truncate(strings.Join(strings.Fields(text), " "), maxDetail)
}

func htmlTitle(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return truncate(strings.Join(strings.Fields(string(z.Text())), " "), maxDetail)
			}
			return ""
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
