package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sharecheck/internal/telemetry"
)

func TestNew(t *testing.T) {
	client := New("https://appliance:8080/cgi-bin/ezs3/")
	assert.NotNil(t, client)
	assert.Equal(t, "https://appliance:8080/cgi-bin/ezs3", client.BaseURL())
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)

	tr, ok := client.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestNewWithOptions(t *testing.T) {
	client := New("https://appliance", WithTimeout(5*time.Second), WithInsecureSkipVerify(false))
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)

	tr, ok := client.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.False(t, tr.TLSClientConfig.InsecureSkipVerify)

	hc := &http.Client{}
	assert.Same(t, hc, New("https://appliance", WithHTTPClient(hc)).httpClient)
}

func TestWithCookies(t *testing.T) {
	client := New("http://localhost:8080")
	cookies := []*http.Cookie{{Name: "session", Value: "abc"}}
	withCookies := client.WithCookies(cookies)

	// Original client should not carry cookies
	assert.Empty(t, client.cookies)

	assert.Len(t, withCookies.cookies, 1)
	assert.Equal(t, client.BaseURL(), withCookies.BaseURL())
	assert.Same(t, client.httpClient, withCookies.httpClient)

	// Later changes to the caller's slice do not leak in.
	cookies[0] = &http.Cookie{Name: "other"}
	assert.Equal(t, "session", withCookies.cookies[0].Name)
}

func TestDoSendsCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("session")
		require.NoError(t, err)
		assert.Equal(t, "abc", ck.Value)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte("<r/>"))
	}))
	defer server.Close()

	client := New(server.URL).WithCookies([]*http.Cookie{{Name: "session", Value: "abc"}})
	resp, err := client.get(context.Background(), "test", "/test", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/xml", resp.ContentType)
	assert.Equal(t, "<r/>", string(resp.Body))
}

func TestDoReturnsBodyOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	}))
	defer server.Close()

	resp, err := New(server.URL).get(context.Background(), "test", "/test", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "oops", string(resp.Body))
}

func TestDoUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := New(server.URL).get(context.Background(), "test", "/test", nil)
		server.Close()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.True(t, te.IsAuthError())
		assert.Equal(t, status, te.StatusCode)
	}
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(server.URL, WithTimeout(50*time.Millisecond)).get(context.Background(), "test", "/test", nil)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
	assert.False(t, te.IsAuthError())
	assert.True(t, IsTransportError(err))
}

func TestDoConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url).get(context.Background(), "test", "/test", nil)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.False(t, IsTransportError(errors.New("plain")))
}

func TestSpanAttributes(t *testing.T) {
	assert.Empty(t, spanAttributes(nil, nil))
	assert.Empty(t, spanAttributes(url.Values{"category": {"protocol_accumulate"}}, nil))

	attrs := spanAttributes(url.Values{"name": {"share1"}}, nil)
	require.Len(t, attrs, 1)
	assert.Equal(t, telemetry.AttrFolder, string(attrs[0].Key))
	assert.Equal(t, "share1", attrs[0].Value.AsString())

	attrs = spanAttributes(nil, url.Values{"name": {"edited"}})
	require.Len(t, attrs, 1)
	assert.Equal(t, "edited", attrs[0].Value.AsString())
}
