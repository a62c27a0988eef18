package apiclient

import (
	"context"
	"net/url"
)

// Login authenticates against the appliance. The response body is an XML
// envelope; the session cookies are returned in RawResponse.Cookies.
func (c *Client) Login(ctx context.Context, userID, password string) (*RawResponse, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("password", password)
	return c.get(ctx, "login", PathLogin, q)
}
