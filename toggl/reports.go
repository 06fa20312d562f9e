package toggl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"toggl2clockify/gateway"
	"toggl2clockify/internal/timeutil"
)

// PageFunc receives one non-empty report page and the server's total count
// for the current window. It is called with (nil, 0) after each window.
// Returning an error stops the stream.
type PageFunc func(ctx context.Context, rows []ReportRow, total int) error

// StreamReports walks [since, until) in report windows and hands every page
// to fn as it arrives. A 400 answer ends the current window.
func (c *HTTPClient) StreamReports(ctx context.Context, workspaceID int64, since, until time.Time, fn PageFunc) error {
	for _, window := range timeutil.Windows(since, until, timeutil.ReportWindow) {
		c.log.Info("fetching toggl entries",
			slog.Time("since", window.Since),
			slog.Time("until", window.Until),
		)
		if err := c.streamWindow(ctx, workspaceID, window, fn); err != nil {
			return err
		}
		if err := fn(ctx, nil, 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *HTTPClient) streamWindow(ctx context.Context, workspaceID int64, window timeutil.Window, fn PageFunc) error {
	received := 0
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("user_agent", c.email)
		query.Set("workspace_id", strconv.FormatInt(workspaceID, 10))
		query.Set("since", window.Since.Format(time.RFC3339))
		query.Set("until", window.Until.Format(time.RFC3339))
		query.Set("page", strconv.Itoa(page))

		target := c.reportsURL + "/details"
		resp, err := c.gw.Execute(ctx, gateway.Request{
			Method:      http.MethodGet,
			URL:         target,
			Query:       query,
			Credentials: c.token,
		})
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusBadRequest {
			c.log.Debug("report paging ended by server", slog.Int("page", page))
			return nil
		}
		if !resp.OK() {
			return &StatusError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode, Body: resp.Snippet()}
		}

		var body reportPage
		if err := resp.Decode(&body); err != nil {
			return fmt.Errorf("report page %d: %w", page, err)
		}
		if len(body.Data) == 0 {
			return nil
		}
		received += len(body.Data)
		if err := fn(ctx, body.Data, body.TotalCount); err != nil {
			return err
		}
		c.log.Info("received toggl entries", slog.Int("received", received), slog.Int("total", body.TotalCount))
	}
}
