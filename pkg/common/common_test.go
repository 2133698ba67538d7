package common

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name        string
		total       int64
		page, limit int
		want        PageInfo
	}{
		{name: "first of many", total: 100, page: 1, limit: 10, want: PageInfo{Total: 100, Page: 1, Limit: 10, TotalPages: 10, HasMore: true}},
		{name: "last page", total: 100, page: 10, limit: 10, want: PageInfo{Total: 100, Page: 10, Limit: 10, TotalPages: 10}},
		{name: "partial last page", total: 21, page: 2, limit: 10, want: PageInfo{Total: 21, Page: 2, Limit: 10, TotalPages: 3, HasMore: true}},
		{name: "empty", total: 0, page: 1, limit: 10, want: PageInfo{Page: 1, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPageInfo(tt.total, tt.page, tt.limit))
		})
	}
}

func TestResponses(t *testing.T) {
	assert.Equal(t, ErrorResponse{Error: "boom"}, NewErrorResponse("boom"))

	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	assert.Equal(t, HealthResponse{Status: "ok", Timestamp: now.UTC()}, NewHealthResponse(true, now))
	assert.Equal(t, "unavailable", NewHealthResponse(false, now).Status)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 20},
		{"3", "10", 3, 10},
		{"-1", "abc", 1, 20},
		{"2", "500", 2, 100},
	}
	for _, tt := range tests {
		page, limit := ParsePagination(tt.page, tt.limit, 20, 100)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}
	assert.Equal(t, 20, Offset(3, 10))
	assert.Equal(t, 0, Offset(0, 10))
}

func TestHTTPClientPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["amount"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	resp, err := client.Post(context.Background(), srv.URL, map[string]int{"amount": 42}, map[string]string{"Authorization": "Bearer key"})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.OK)
}

func TestHTTPClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewHTTPClient(20 * time.Millisecond)
	_, err := client.Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestHTTPResponseNon2xx(t *testing.T) {
	resp := &HTTPResponse{StatusCode: http.StatusBadGateway}
	assert.False(t, resp.OK())
	assert.Error(t, resp.Decode(&struct{}{}))
}
