package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/internal/http"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// ReportsClient reads the loan activity reports.
type ReportsClient struct {
	httpClient *http.Client
}

// NewReportsClient creates a new reports client.
func NewReportsClient(httpClient *http.Client) *ReportsClient {
	return &ReportsClient{
		httpClient: httpClient,
	}
}

// DailySummary returns one summary per day between start and end, inclusive.
func (c *ReportsClient) DailySummary(ctx context.Context, start, end time.Time) ([]libadmin.DailySummary, error) {
	var summaries []libadmin.DailySummary

	err := c.getRange(ctx, "/reports/daily-range", start, end, &summaries)
	if err != nil {
		return nil, fmt.Errorf("getting daily summary: %w", err)
	}

	return summaries, nil
}

// Overdue returns the overdue loans seen between start and end, inclusive.
func (c *ReportsClient) Overdue(ctx context.Context, start, end time.Time) ([]libadmin.OverdueEntry, error) {
	var entries []libadmin.OverdueEntry

	err := c.getRange(ctx, "/reports/overdue-range", start, end, &entries)
	if err != nil {
		return nil, fmt.Errorf("getting overdue report: %w", err)
	}

	return entries, nil
}

func (c *ReportsClient) getRange(ctx context.Context, path string, start, end time.Time, out interface{}) error {
	if end.Before(start) {
		return constants.ErrInvalidDateRange
	}

	query := url.Values{}
	query.Set("start", start.Format(constants.DateLayout))
	query.Set("end", end.Format(constants.DateLayout))

	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return err
	}

	err = json.Unmarshal(resp.Body, out)
	if err != nil {
		return fmt.Errorf("parsing report: %w", err)
	}

	return nil
}

// AdminClient reads the signed in account.
type AdminClient struct {
	httpClient *http.Client
}

// NewAdminClient creates a new admin client.
func NewAdminClient(httpClient *http.Client) *AdminClient {
	return &AdminClient{
		httpClient: httpClient,
	}
}

// Info returns the account behind the current token.
func (c *AdminClient) Info(ctx context.Context) (*libadmin.AdminInfo, error) {
	resp, err := c.httpClient.Get(ctx, "/admin/info", nil)
	if err != nil {
		return nil, fmt.Errorf("getting admin info: %w", err)
	}

	var info libadmin.AdminInfo

	err = json.Unmarshal(resp.Body, &info)
	if err != nil {
		return nil, fmt.Errorf("parsing admin info: %w", err)
	}

	if info.Role != "" {
		role, parseErr := libadmin.ParseRole(string(info.Role))
		if parseErr == nil {
			info.Role = role
		}
	}

	return &info, nil
}
