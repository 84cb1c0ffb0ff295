// Package feed retrieves room free/busy calendars and normalises them into interval lists
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/config"
	"github.com/navikt/roomstatus/internal/models"
	"github.com/navikt/roomstatus/internal/utils"
)

// ErrUnexpectedStatus is returned when the calendar server answers with a non-2xx status
var ErrUnexpectedStatus = errors.New("unexpected feed response status")

// maxErrorBody limits how much of a failed response is kept for the log
const maxErrorBody = 512

// Client fetches free/busy feeds over HTTP
type Client struct {
	baseURL       string
	mailboxFormat string
	location      *time.Location
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a feed client. timeout bounds each request so one slow
// room cannot hold up its own later cycles.
func NewClient(cfg config.FeedConfig, loc *time.Location, timeout time.Duration, logger *zap.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		mailboxFormat: cfg.MailboxFormat,
		location:      loc,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// URL builds the feed address for a room on the day containing now:
// <base>/<mailbox>/Calendar?fmt=ifb&date=YYYYMMDD
func URL(baseURL, mailboxFormat, roomID string, now time.Time) string {
	mailbox := roomID
	if mailboxFormat != "" {
		mailbox = fmt.Sprintf(mailboxFormat, roomID)
	}
	return fmt.Sprintf("%s/%s/Calendar?fmt=ifb&date=%s", baseURL, url.PathEscape(mailbox), now.Format("20060102"))
}

// FetchFreeBusy downloads and parses one room's feed for the day containing now
func (c *Client) FetchFreeBusy(ctx context.Context, roomID string, now time.Time) ([]models.FreeBusyInterval, error) {
	feedURL := URL(c.baseURL, c.mailboxFormat, roomID, now.In(c.location))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed for room %s: %w", roomID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("feed request rejected",
			zap.String("room_id", roomID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.SanitizeLogString(string(body))),
		)
		return nil, fmt.Errorf("%w: room %s got %d", ErrUnexpectedStatus, roomID, resp.StatusCode)
	}

	intervals, err := ParseFreeBusy(resp.Body, now, c.location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed for room %s: %w", roomID, err)
	}

	c.logger.Debug("fetched feed",
		zap.String("room_id", roomID),
		zap.Int("intervals", len(intervals)),
		zap.Duration("took", time.Since(started)),
	)
	return intervals, nil
}
