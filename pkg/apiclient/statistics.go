package apiclient

import (
	"context"
	"net/url"
)

// CategoryProtocolAccumulate is the statistics category carrying the
// accumulated per-protocol counters.
const CategoryProtocolAccumulate = "protocol_accumulate"

// GetRealtimeStatistic fetches realtime statistics for a category. The body
// is a JSON envelope.
func (c *Client) GetRealtimeStatistic(ctx context.Context, category string) (*RawResponse, error) {
	q := url.Values{}
	q.Set("categories", category)
	q.Set("gateway_group", "")
	return c.get(ctx, "realtime_statistic", PathRealtimeStatistic, q)
}
