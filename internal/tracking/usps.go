package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"wrapcrm_backend/platform/logger"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	maxPageBytes = 4 << 20
	maxEvents    = 10
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// ErrNoStatus means the tracking page held no recognisable status.
var ErrNoStatus = errors.New("tracking page has no status")

// Status containers in the order they are tried. The generic "status"
// substring match runs after all of them.
var statusClasses = []string{
	"delivery_status",
	"tracking-summary-text",
	"status_category",
	"tb-status",
}

var (
	datePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	timePattern = regexp.MustCompile(`\d{1,2}:\d{2}(?:\s*[APap][Mm])?`)
	longDate    = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}`)
)

// USPSScraper reads the public USPS tracking page.
type USPSScraper struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
	now        func() time.Time
}

func NewUSPSScraper(baseURL string, log *logger.Logger) *USPSScraper {
	return &USPSScraper{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		log:        log,
		now:        time.Now,
	}
}

func (s *USPSScraper) Track(ctx context.Context, trackingNumber string) (Result, error) {
	reqURL := PublicURL(s.baseURL, trackingNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("usps request failed", "error", err)
		return Result{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("usps upstream error", "status", resp.StatusCode)
		return Result{}, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	res, err := ParseTrackingPage(io.LimitReader(resp.Body, maxPageBytes), trackingNumber)
	if err != nil {
		return Result{}, err
	}
	res.CheckedAt = s.now()
	return res, nil
}

// ParseTrackingPage extracts the status line and history from a USPS
// tracking page.
func ParseTrackingPage(r io.Reader, trackingNumber string) (Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse tracking page: %w", err)
	}

	desc := findStatusText(doc)
	if desc == "" {
		return Result{}, ErrNoStatus
	}

	res := Result{
		TrackingNumber: trackingNumber,
		Status:         MapDescription(desc),
		Description:    desc,
		Events:         findEvents(doc),
		Source:         SourceUSPS,
	}
	if res.Status == StatusDelivered {
		res.DeliveryDate = deliveryDate(doc, desc)
	}
	return res, nil
}

func findStatusText(doc *html.Node) string {
	for _, cls := range statusClasses {
		if n := findFirst(doc, func(n *html.Node) bool { return hasClass(n, cls) && textOf(n) != "" }); n != nil {
			return textOf(n)
		}
	}
	n := findFirst(doc, func(n *html.Node) bool {
		return strings.Contains(attr(n, "class"), "status") && textOf(n) != ""
	})
	if n != nil {
		return textOf(n)
	}
	return ""
}

func findEvents(doc *html.Node) []Event {
	out := make([]Event, 0)
	walk(doc, func(n *html.Node) bool {
		if len(out) >= maxEvents {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		if n.DataAtom != atom.Tr && !hasClass(n, "tb-row") && !hasClass(n, "tracking-event") {
			return true
		}
		cells := eventCells(n)
		if len(cells) < 2 {
			return true
		}
		when := textOf(cells[0])
		desc := textOf(cells[1])
		date := datePattern.FindString(when)
		if desc == "" || len(when) <= 5 || date == "" {
			return false
		}
		ev := Event{Date: date, Time: timePattern.FindString(when), Description: desc}
		if ev.Time == "" {
			ev.Time = "12:00 PM"
		}
		if len(cells) > 2 {
			ev.Location = textOf(cells[2])
		}
		out = append(out, ev)
		return false
	})
	return out
}

func eventCells(row *html.Node) []*html.Node {
	cells := make([]*html.Node, 0, 3)
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || hasClass(c, "tb-cell")) {
			cells = append(cells, c)
		}
	}
	return cells
}

func deliveryDate(doc *html.Node, desc string) string {
	if d := datePattern.FindString(desc); d != "" {
		return d
	}
	if d := longDate.FindString(desc); d != "" {
		return d
	}
	n := findFirst(doc, func(n *html.Node) bool {
		c := attr(n, "class")
		return strings.Contains(c, "delivery-date") || strings.Contains(c, "delivery_date") || strings.Contains(c, "delivered")
	})
	if n == nil {
		return ""
	}
	t := textOf(n)
	if d := datePattern.FindString(t); d != "" {
		return d
	}
	return longDate.FindString(t)
}

// walk visits n and its descendants depth first; visit returning false skips
// the children of that node.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, cls string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == cls {
			return true
		}
	}
	return false
}

// textOf returns the visible text under n with whitespace collapsed.
func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Script || c.DataAtom == atom.Style) {
			return false
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

var _ Carrier = (*USPSScraper)(nil)
