package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/glcc/command-center/internal/core/domain"
)

const (
	scrapeTimeout    = 25 * time.Second
	scraperUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// scrapeTarget describes how to read one carrier's public tracking page:
// where to go and which selectors carry the status and history rows. Page
// structure drifts over time, which is why a missing status node is surfaced
// as a backend error rather than swallowed.
type scrapeTarget struct {
	url         func(trackingNumber string) string
	statusSel   string
	notFoundSel string
	rowSel      string
	rowTimeSel  string
	rowLocSel   string
	rowDescSel  string
	timeLayout  string
}

// scrapeTargets keys public tracking pages by carrier id.
var scrapeTargets = map[string]scrapeTarget{
	"global.ups": {
		url: func(tn string) string {
			return "https://www.ups.com/track?tracknum=" + url.QueryEscape(tn)
		},
		statusSel:   "#stApp_txtPackageStatus, .ups-tracking-status",
		notFoundSel: "#stApp_error_alert, .ups-no-results",
		rowSel:      "table.ups-progress tbody tr",
		rowTimeSel:  "td:nth-child(1)",
		rowLocSel:   "td:nth-child(2)",
		rowDescSel:  "td:nth-child(3)",
		timeLayout:  "01/02/2006 3:04 PM",
	},
	"global.fedex": {
		url: func(tn string) string {
			return "https://www.fedex.com/fedextrack/?trknbr=" + url.QueryEscape(tn)
		},
		statusSel:   ".shipment-status-progress-step-label--active, .fdx-c-heading--status",
		notFoundSel: ".fdx-c-alert--error",
		rowSel:      ".travel-history-table tbody tr",
		rowTimeSel:  ".travel-history-table__time",
		rowLocSel:   ".travel-history-table__location",
		rowDescSel:  ".travel-history-table__status",
		timeLayout:  "1/2/2006 15:04",
	},
	"global.dhl": {
		url: func(tn string) string {
			return "https://www.dhl.com/en/express/tracking.html?AWB=" + url.QueryEscape(tn)
		},
		statusSel:   ".c-tracking-result--status-copy-message, .tracking-status",
		notFoundSel: ".c-tracking-result--not-found",
		rowSel:      ".c-tracking-result--checkpoint",
		rowTimeSel:  ".c-tracking-result--checkpoint-time",
		rowLocSel:   ".c-tracking-result--checkpoint-location",
		rowDescSel:  ".c-tracking-result--checkpoint-status",
		timeLayout:  "Monday, January 2, 2006 15:04",
	},
	"global.jppost": {
		url: func(tn string) string {
			return "https://trackings.post.japanpost.jp/services/srv/search/direct?searchKind=S002&locale=en&reqCodeNo1=" + url.QueryEscape(tn)
		},
		statusSel:   "table.tableType01 tr:last-child td.w_150",
		notFoundSel: ".txt_caution",
		rowSel:      "table.tableType01 tr",
		rowTimeSel:  "td:nth-child(1)",
		rowLocSel:   "td:nth-child(3)",
		rowDescSel:  "td:nth-child(2)",
		timeLayout:  "2006/01/02 15:04",
	},
	"global.sagawa": {
		url: func(tn string) string {
			return "https://k2k.sagawa-exp.co.jp/p/sagawa/web/okurijoinput.jsp?okurijoNo=" + url.QueryEscape(tn)
		},
		statusSel:   ".state_txt, .okurijo_status",
		notFoundSel: ".error_txt",
		rowSel:      "table.table_basic tbody tr",
		rowTimeSel:  "td:nth-child(1)",
		rowLocSel:   "td:nth-child(3)",
		rowDescSel:  "td:nth-child(2)",
		timeLayout:  "01/02 15:04",
	},
	"global.chinapost": {
		url: func(tn string) string {
			return "https://track.yw56.com.cn/en/querydel?nums=" + url.QueryEscape(tn)
		},
		statusSel:   ".track-status, .result-status",
		notFoundSel: ".no-result",
		rowSel:      ".track-list li",
		rowTimeSel:  ".track-time",
		rowLocSel:   ".track-location",
		rowDescSel:  ".track-info",
		timeLayout:  "2006-01-02 15:04",
	},
}

// GlobalScraper fetches carrier tracking pages and extracts status with CSS
// selectors. Materially slower and more failure-prone than the domestic
// backend; the orchestrator's concurrency cap exists largely for its sake.
type GlobalScraper struct {
	client  *http.Client
	targets map[string]scrapeTarget
}

func NewGlobalScraper(client *http.Client) *GlobalScraper {
	if client == nil {
		client = &http.Client{Timeout: scrapeTimeout}
	}
	return &GlobalScraper{client: client, targets: scrapeTargets}
}

func (s *GlobalScraper) Name() string { return "scraper" }

// Fetch loads the carrier's tracking page and extracts the current status and
// history rows.
func (s *GlobalScraper) Fetch(ctx context.Context, carrier, trackingNumber string) (*domain.TrackingResult, error) {
	target, ok := s.targets[carrier]
	if !ok {
		return nil, fmt.Errorf("%w: no scrape target for %s", domain.ErrUnsupportedCarrier, carrier)
	}

	doc, err := s.fetchDocument(ctx, target.url(trackingNumber))
	if err != nil {
		return nil, err
	}

	if target.notFoundSel != "" && doc.Find(target.notFoundSel).Length() > 0 {
		return nil, fmt.Errorf("%w: %s reports no results for %s", domain.ErrTrackingNotFound, carrier, trackingNumber)
	}

	statusText := strings.TrimSpace(doc.Find(target.statusSel).First().Text())
	if statusText == "" {
		// Selector found nothing: most likely page-structure drift.
		return nil, fmt.Errorf("%w: status not found on %s page", domain.ErrBackendError, carrier)
	}

	result := &domain.TrackingResult{
		Carrier:           carrier,
		TrackingNumber:    trackingNumber,
		StatusCode:        statusCode(statusText),
		StatusDescription: statusText,
		FetchedAt:         time.Now().UTC(),
	}

	doc.Find(target.rowSel).Each(func(_ int, row *goquery.Selection) {
		event := domain.TrackingEvent{
			Location:    strings.TrimSpace(row.Find(target.rowLocSel).First().Text()),
			Description: strings.TrimSpace(row.Find(target.rowDescSel).First().Text()),
		}
		if event.Description == "" {
			return
		}
		timeText := strings.TrimSpace(row.Find(target.rowTimeSel).First().Text())
		if ts, err := time.Parse(target.timeLayout, timeText); err == nil {
			event.Timestamp = ts
		}
		result.Events = append(result.Events, event)
	})

	return result, nil
}

func (s *GlobalScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrBackendError, err)
	}
	req.Header.Set("User-Agent", scraperUserAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: page returned %s", domain.ErrTrackingNotFound, resp.Status)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: page returned %s", domain.ErrBackendUnavailable, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: page returned %s", domain.ErrBackendError, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", domain.ErrBackendError, err)
	}
	return doc, nil
}

// statusCode collapses carrier status text into a stable lowercase code used
// as the change-detection key ("Out for Delivery" → "out_for_delivery").
func statusCode(text string) string {
	code := strings.ToLower(strings.TrimSpace(text))
	code = strings.Join(strings.Fields(code), "_")
	return strings.Trim(code, "._:")
}
