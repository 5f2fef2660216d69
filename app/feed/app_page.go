package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const GooglePlayBaseURL = "https://play.google.com/store/apps/details"

// AppPageLookup reads the app name and icon from a Google Play listing.
type AppPageLookup struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
}

func NewAppPageLookup(baseURL string, timeout time.Duration, httpClient *http.Client, userAgent string) *AppPageLookup {
	return &AppPageLookup{
		baseURL:    baseURL,
		timeout:    timeout,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

func (l *AppPageLookup) Lookup(ctx context.Context, appID, region string) (*AppPage, error) {
	pageURL, err := l.pageURL(appID, region)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse app page: %w", err)
	}

	page := &AppPage{
		Name:    cleanAppName(metaContent(doc, "og:title")),
		IconURL: metaContent(doc, "og:image"),
		URL:     pageURL,
	}
	if page.Name == "" {
		page.Name = strings.TrimSpace(doc.Find("title").First().Text())
		page.Name = cleanAppName(page.Name)
	}

	return page, nil
}

func (l *AppPageLookup) pageURL(appID, region string) (string, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", l.baseURL, err)
	}

	q := u.Query()
	q.Set("id", appID)
	if region != "" {
		q.Set("gl", region)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
	return strings.TrimSpace(content)
}

func cleanAppName(title string) string {
	title, _, _ = strings.Cut(title, " - Apps on Google Play")
	return strings.TrimSpace(title)
}
