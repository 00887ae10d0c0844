package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// cannedRegistry serves one canned response per request, in order
type cannedRegistry struct {
	mu        sync.Mutex
	responses []cannedResponse
	tokens    []string
	queries   []string
}

type cannedResponse struct {
	status int
	body   string
}

func (c *cannedRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens = append(c.tokens, r.URL.Query().Get("pageToken"))
	c.queries = append(c.queries, r.URL.RawQuery)

	idx := len(c.tokens) - 1
	if idx >= len(c.responses) {
		http.Error(w, "no more canned responses", http.StatusGone)
		return
	}
	resp := c.responses[idx]
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	fmt.Fprint(w, resp.body)
}

func studiesPage(next string, ids ...string) string {
	body := `{"studies": [`
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"protocolSection": {"identificationModule": {"nctId": %q}}}`, id)
	}
	body += "]"
	if next != "" {
		body += fmt.Sprintf(`, "nextPageToken": %q`, next)
	}
	return body + "}"
}

func newTestFetcher(t *testing.T, reg *cannedRegistry) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(reg)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, 5*time.Second, zap.NewNop())
	return NewFetcher(client, zap.NewNop())
}

func ids(result *FetchResult) []string {
	out := make([]string, len(result.Records))
	for i, r := range result.Records {
		out[i] = r.NCTID
	}
	return out
}

func TestFetch_ConcatenatesPagesInOrder(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusOK, studiesPage("tok-1", "NCT1", "NCT2")},
		{http.StatusOK, studiesPage("tok-2", "NCT3")},
		{http.StatusOK, studiesPage("", "NCT4", "NCT5")},
	}}
	fetcher := newTestFetcher(t, reg)

	result, err := fetcher.Fetch(context.Background(), Query{
		Condition: "Cancer",
		Location:  "USA",
		Fields:    "protocolSection",
		PageSize:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NCT1", "NCT2", "NCT3", "NCT4", "NCT5"}, ids(result))
	assert.Equal(t, 3, result.Pages)
	assert.False(t, result.Partial)
	assert.Equal(t, []string{"", "tok-1", "tok-2"}, reg.tokens)
	assert.Contains(t, reg.queries[0], "query.cond=Cancer")
	assert.Contains(t, reg.queries[0], "query.locn=USA")
	assert.Contains(t, reg.queries[0], "fields=protocolSection")
	assert.Contains(t, reg.queries[0], "pageSize=2")
	assert.NotContains(t, reg.queries[0], "pageToken")
}

func TestFetch_StopsOnFailedPageKeepingPartialResults(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusOK, studiesPage("tok-1", "NCT1", "NCT2")},
		{http.StatusInternalServerError, `{"error": "boom"}`},
		{http.StatusOK, studiesPage("", "NCT3")},
	}}
	fetcher := newTestFetcher(t, reg)

	result, err := fetcher.Fetch(context.Background(), Query{PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"NCT1", "NCT2"}, ids(result))
	assert.True(t, result.Partial)
	assert.Equal(t, http.StatusInternalServerError, result.FailureStatus)
	assert.Len(t, reg.tokens, 2, "no retry and no further page after a failure")
}

func TestFetch_FirstPageFailureReturnsEmpty(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusTooManyRequests, ``},
	}}
	fetcher := newTestFetcher(t, reg)

	result, err := fetcher.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.True(t, result.Partial)
	assert.Equal(t, http.StatusTooManyRequests, result.FailureStatus)
}

func TestFetch_MalformedBodyIsFailSoft(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusOK, studiesPage("tok-1", "NCT1")},
		{http.StatusOK, `{"studies": "not-a-list"}`},
	}}
	fetcher := newTestFetcher(t, reg)

	result, err := fetcher.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"NCT1"}, ids(result))
	assert.True(t, result.Partial)
	assert.Zero(t, result.FailureStatus)
}

func TestFetch_EmptyStudiesPage(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusOK, `{}`},
	}}
	fetcher := newTestFetcher(t, reg)

	result, err := fetcher.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Equal(t, 1, result.Pages)
	assert.False(t, result.Partial)
}

func TestFetch_CancelledContextReturnsError(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusOK, studiesPage("", "NCT1")},
	}}
	fetcher := newTestFetcher(t, reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPager_StopsWhenConsumerBreaks(t *testing.T) {
	reg := &cannedRegistry{responses: []cannedResponse{
		{http.StatusOK, studiesPage("tok-1", "NCT1")},
		{http.StatusOK, studiesPage("tok-2", "NCT2")},
	}}
	srv := httptest.NewServer(reg)
	defer srv.Close()

	pager := NewPager(NewClient(srv.URL, time.Second, zap.NewNop()), Query{})
	seen := 0
	for page, err := range pager.Pages(context.Background()) {
		require.NoError(t, err)
		require.NotNil(t, page)
		seen++
		break
	}

	assert.Equal(t, 1, seen)
	assert.Len(t, reg.tokens, 1)
}
