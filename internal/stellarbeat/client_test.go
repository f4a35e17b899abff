package stellarbeat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/stellarbeat-mcp/internal/logging"
	"github.com/mbd888/stellarbeat-mcp/internal/ratelimit"
)

const testKey = "GCGB2S2KGYARPVIA37HYZXVRM2YZUEXA6S33ZU5BUDC6THSB62LZSTYH"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return New(srv.URL, opts...)
}

func TestNode_DecodesFields(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"publicKey": "` + testKey + `",
			"name": "SDF 1",
			"active": true,
			"isValidating": true,
			"overLoaded": false,
			"versionStr": "stellar-core 21.0.0",
			"organizationId": "sdf",
			"geoData": {"countryCode": "US", "countryName": "United States"},
			"statistics": {"active24HoursPercentage": 99.5}
		}`))
	})

	node, err := c.Node(context.Background(), testKey, nil)
	require.NoError(t, err)

	assert.Equal(t, "/v1/node/"+testKey, gotPath)
	assert.Equal(t, "SDF 1", node.Name)
	assert.True(t, node.Active)
	assert.True(t, node.IsValidating)
	assert.Equal(t, "sdf", node.OrganizationID)
	assert.Equal(t, "US", node.CountryCode())
	require.NotNil(t, node.Uptime())
	assert.InDelta(t, 99.5, *node.Uptime(), 0.001)
}

func TestUptime_AbsentAndClamped(t *testing.T) {
	assert.Nil(t, Node{}.Uptime())
	assert.Nil(t, Node{Statistics: &NodeStatistics{}}.Uptime())

	over := 104.0
	n := Node{Statistics: &NodeStatistics{Active24HoursPercentage: &over}}
	assert.Equal(t, 100.0, *n.Uptime())
}

func TestAtParameter(t *testing.T) {
	var gotAt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAt = r.URL.Query().Get("at")
		_, _ = w.Write([]byte(`[]`))
	})

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	_, err := c.Nodes(context.Background(), &at)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T10:00:00Z", gotAt)

	_, err = c.Nodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, gotAt)
}

func TestEndpointPaths(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/v1/organizations" || r.URL.Path == "/v1/nodes" ||
			r.URL.Path == "/v1/node/"+testKey+"/snapshots" || r.URL.Path == "/v1/organization/sdf/snapshots" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	_, err := c.Network(ctx, nil)
	require.NoError(t, err)
	_, err = c.NodeSnapshots(ctx, testKey, nil)
	require.NoError(t, err)
	_, err = c.Organizations(ctx, nil)
	require.NoError(t, err)
	_, err = c.Organization(ctx, "sdf", nil)
	require.NoError(t, err)
	_, err = c.OrganizationSnapshots(ctx, "sdf", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/v1",
		"/v1/node/" + testKey + "/snapshots",
		"/v1/organizations",
		"/v1/organization/sdf",
		"/v1/organization/sdf/snapshots",
	}, paths)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"too many requests", http.StatusTooManyRequests, ``, KindRateLimited},
		{"not found", http.StatusNotFound, `{"message":"node not found"}`, KindNotFound},
		{"internal error", http.StatusInternalServerError, `boom`, KindServerError},
		{"bad gateway", http.StatusBadGateway, ``, KindServerError},
		{"bad request", http.StatusBadRequest, `{"error":"bad at"}`, KindNetworkError},
		{"redirect", http.StatusNotModified, ``, KindNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Node(context.Background(), testKey, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "/v1/node/"+testKey, apiErr.Endpoint)

			kind, ok := KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestErrorMessage_FromBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"node not found"}`))
	})

	_, err := c.Node(context.Background(), testKey, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "node not found")
	assert.Contains(t, err.Error(), "(404)")
}

func TestUndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.Nodes(context.Background(), nil)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetworkError, kind)
	assert.Contains(t, err.Error(), "decode response")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(srv.URL, WithLogger(logging.Discard()))
	_, err := c.Nodes(context.Background(), nil)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetworkError, kind)

	healthy, detail := c.LastOutcome()
	assert.False(t, healthy)
	assert.Contains(t, detail, "network_error")
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	defer close(release)

	_, err := c.Nodes(context.Background(), nil)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNetworkError, kind)
}

func TestLocalRateLimit(t *testing.T) {
	var hits int
	var mu sync.Mutex
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := ratelimit.New(ratelimit.Config{Limit: 3, Window: time.Minute}, ratelimit.WithClock(clock))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}, WithLimiter(limiter))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.Nodes(ctx, nil)
		require.NoError(t, err)
	}

	_, err := c.Nodes(ctx, nil)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, 3, hits, "rejected call must not reach the upstream")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)

	clock.Advance(time.Minute)
	_, err = c.Nodes(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, hits)
}

func TestLastOutcome(t *testing.T) {
	status := http.StatusOK
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	ok, detail := c.LastOutcome()
	assert.True(t, ok)
	assert.Equal(t, "no upstream requests yet", detail)

	_, _ = c.Nodes(ctx, nil)
	ok, _ = c.LastOutcome()
	assert.True(t, ok)

	status = http.StatusServiceUnavailable
	_, _ = c.Nodes(ctx, nil)
	ok, detail = c.LastOutcome()
	assert.False(t, ok)
	assert.Contains(t, detail, "503")

	status = http.StatusNotFound
	_, _ = c.Nodes(ctx, nil)
	ok, _ = c.LastOutcome()
	assert.True(t, ok, "404 means the upstream answered")
}
