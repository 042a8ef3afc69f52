// Package syoboi provides a client for the Syoboi Calendar API,
// the Japanese TV programme database used for broadcast schedules.
package syoboi

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

const (
	// DefaultEndpoint is the Syoboi Calendar base URL.
	DefaultEndpoint = "https://cal.syoboi.jp"

	// timeLayout is the timestamp format used in cal_chk.php responses (JST).
	timeLayout = "2006-01-02 15:04:05"
)

// jst is the timezone all Syoboi timestamps are expressed in.
var jst = time.FixedZone("JST", 9*60*60)

// Program is a single broadcast entry from cal_chk.php.
type Program struct {
	TitleID   int
	ProgramID int
	Title     string
	SubTitle  string
	Count     int
	Channel   string
	StartsAt  time.Time
	EndsAt    time.Time
}

// Title is a programme title record from the db.php TitleLookup command.
type Title struct {
	TitleID      int    `xml:"TID"`
	Name         string `xml:"Title"`
	NameEnglish  string `xml:"TitleEN"`
	FirstChannel string `xml:"FirstCh"`
	FirstYear    int    `xml:"FirstYear"`
	FirstMonth   int    `xml:"FirstMonth"`
	Keywords     string `xml:"Keywords"`
}

// Client wraps the Syoboi Calendar HTTP API. Every request passes
// through the registry's syoboi gate before hitting the network.
type Client struct {
	endpoint   string
	httpClient *http.Client
	gate       *ratelimit.Limiter
}

// NewClient creates a Syoboi client gated by the registry's syoboi limiter.
func NewClient(registry *ratelimit.Registry) (*Client, error) {
	gate, err := registry.Get(domain.APISyoboi)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       gate,
	}, nil
}

// SetEndpoint overrides the API base URL. Used in tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = strings.TrimSuffix(endpoint, "/")
}

// CalChk fetches the broadcast schedule for the next days days.
// days is clamped to the 1..7 range the API accepts.
func (c *Client) CalChk(ctx context.Context, days int) ([]Program, error) {
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}

	body, err := c.get(ctx, "/cal_chk.php", url.Values{"days": {strconv.Itoa(days)}})
	if err != nil {
		return nil, err
	}

	var doc struct {
		ProgItems struct {
			Items []progItem `xml:"ProgItem"`
		} `xml:"ProgItems"`
	}
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("syoboi: parsing cal_chk response: %w", err)
	}

	programs := make([]Program, 0, len(doc.ProgItems.Items))
	for _, item := range doc.ProgItems.Items {
		program, err := item.toProgram()
		if err != nil {
			logger.Warn("Skipping malformed programme entry (PID=%s): %v", item.PID, err)
			continue
		}
		programs = append(programs, program)
	}
	return programs, nil
}

// TitleLookup fetches title records for the given title IDs.
func (c *Client) TitleLookup(ctx context.Context, titleIDs []int) ([]Title, error) {
	if len(titleIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(titleIDs))
	for i, id := range titleIDs {
		ids[i] = strconv.Itoa(id)
	}

	body, err := c.get(ctx, "/db.php", url.Values{
		"Command": {"TitleLookup"},
		"TID":     {strings.Join(ids, ",")},
	})
	if err != nil {
		return nil, err
	}

	var doc struct {
		Result struct {
			Code    int    `xml:"Code"`
			Message string `xml:"Message"`
		} `xml:"Result"`
		TitleItems struct {
			Items []Title `xml:"TitleItem"`
		} `xml:"TitleItems"`
	}
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("syoboi: parsing TitleLookup response: %w", err)
	}
	if doc.Result.Code != 200 {
		return nil, fmt.Errorf("syoboi: TitleLookup failed with code %d: %s", doc.Result.Code, doc.Result.Message)
	}
	return doc.TitleItems.Items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	c.gate.Gate()

	requestID := uuid.New().String()[:8]
	requestURL := c.endpoint + path + "?" + params.Encode()
	logger.Debug("[%s] Syoboi GET %s", requestID, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("syoboi: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("syoboi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("syoboi: unexpected status %d from %s", resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("syoboi: reading response: %w", err)
	}
	logger.Debug("[%s] Syoboi response: %d bytes", requestID, len(body))
	return body, nil
}

// progItem mirrors the attribute-encoded ProgItem element of cal_chk.php.
type progItem struct {
	TID      string `xml:"TID,attr"`
	PID      string `xml:"PID,attr"`
	StTime   string `xml:"StTime,attr"`
	EdTime   string `xml:"EdTime,attr"`
	ChName   string `xml:"ChName,attr"`
	Title    string `xml:"Title,attr"`
	SubTitle string `xml:"SubTitle,attr"`
	Count    string `xml:"Count,attr"`
}

func (p progItem) toProgram() (Program, error) {
	tid, err := strconv.Atoi(p.TID)
	if err != nil {
		return Program{}, fmt.Errorf("bad TID %q: %w", p.TID, err)
	}
	pid, err := strconv.Atoi(p.PID)
	if err != nil {
		return Program{}, fmt.Errorf("bad PID %q: %w", p.PID, err)
	}
	start, err := time.ParseInLocation(timeLayout, p.StTime, jst)
	if err != nil {
		return Program{}, fmt.Errorf("bad StTime %q: %w", p.StTime, err)
	}
	end, err := time.ParseInLocation(timeLayout, p.EdTime, jst)
	if err != nil {
		return Program{}, fmt.Errorf("bad EdTime %q: %w", p.EdTime, err)
	}

	// Count is absent for one-off programmes.
	count := 0
	if p.Count != "" {
		count, _ = strconv.Atoi(p.Count)
	}

	return Program{
		TitleID:   tid,
		ProgramID: pid,
		Title:     p.Title,
		SubTitle:  p.SubTitle,
		Count:     count,
		Channel:   p.ChName,
		StartsAt:  start,
		EndsAt:    end,
	}, nil
}
