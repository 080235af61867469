package dataverse

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/christopherklint97/timegrid/internal/host"
	"github.com/christopherklint97/timegrid/internal/week"
	"github.com/stretchr/testify/require"
)

var (
	_ host.Backend            = (*Client)(nil)
	_ host.ProjectInvalidator = (*Client)(nil)
)

func testClient(t *testing.T, mapping Mapping, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, Options{HTTPClient: srv.Client(), Mapping: mapping, UserID: "u1"})
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestListProjectsFollowsNextLinkAndCaches(t *testing.T) {
	var calls atomic.Int32
	var c *Client
	c = testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/api/data/v9.2/msdyn_projects", r.URL.Path)
		require.Equal(t, "4.0", r.Header.Get("OData-Version"))

		if r.URL.Query().Get("page") == "2" {
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{{"msdyn_projectid": "p2", "msdyn_subject": "Legacy", "statuscode": 2}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{{
				"msdyn_projectid": "p1",
				"msdyn_subject":   "Portal",
				"statuscode":      1,
				"msdyn_projecttask_Project": []map[string]any{
					{"msdyn_projecttaskid": "t1", "msdyn_subject": "Build"},
				},
			}},
			"@odata.nextLink": c.baseURL + "/msdyn_projects?page=2",
		})
	})

	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.True(t, projects[0].Active())
	require.False(t, projects[1].Active())

	_, err = c.ListProjects(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	c.InvalidateProjects()
	_, err = c.ListProjects(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, calls.Load())
}

func TestListTimeEntriesFiltersByOwner(t *testing.T) {
	c := testClient(t, V2, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "_ownerid_value eq u1", r.URL.Query().Get("$filter"))
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"msdyn_timeentryid": "e1", "msdyn_date": "2024-01-08", "msdyn_duration": 60, "msdyn_entrystatus": 192350003},
				{"msdyn_timeentryid": "e2", "msdyn_date": "2024-01-09", "msdyn_duration": 30, "msdyn_entrystatus": 42},
			},
		})
	})

	entries, err := c.ListTimeEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, week.StatusSubmitted, entries[0].Status)
	require.Equal(t, 1.0, entries[0].Duration)
	require.Equal(t, week.StatusDraft, entries[1].Status)
}

func TestCreateTimeEntryReadsEntityID(t *testing.T) {
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "2024-01-12T00:00:00.000Z", body["msdyn_start"])
		require.EqualValues(t, 1, body["statuscode"])

		w.Header().Set("OData-EntityId", "https://org/api/data/v9.2/msdyn_timeentries(new-1)")
		w.WriteHeader(http.StatusNoContent)
	})

	id, err := c.CreateTimeEntry(context.Background(), week.TimeEntry{
		ProjectID: "p1", TaskID: "t1", Date: "2024-01-12", Duration: 2, Status: week.StatusDraft,
	})
	require.NoError(t, err)
	require.Equal(t, "new-1", id)
}

func TestPatchRequests(t *testing.T) {
	var bodies []map[string]any
	c := testClient(t, V2, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "*", r.Header.Get("If-Match"))
		require.Equal(t, "/api/data/v9.2/msdyn_timeentries(e1)", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := context.Background()
	require.NoError(t, c.MoveTimeEntry(ctx, "e1", "2024-01-12"))
	require.NoError(t, c.SetStatus(ctx, "e1", week.StatusSubmitted))

	require.Equal(t, map[string]any{"msdyn_date": "2024-01-12"}, bodies[0])
	require.EqualValues(t, 192350003, bodies[1]["msdyn_entrystatus"])
}

func TestRetriesRebuildRequestBody(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.NotEmpty(t, data)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MoveTimeEntry(context.Background(), "e1", "2024-01-12"))
	require.EqualValues(t, 3, calls.Load())
}

func TestErrorResponses(t *testing.T) {
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"0x80040265","message":"Entry is locked"}}`))
	})

	err := c.DeleteTimeEntry(context.Background(), "e1")
	require.ErrorContains(t, err, "Entry is locked")
	require.ErrorContains(t, err, "status 400")
}

func TestRetriesGiveUp(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ListTimeEntries(context.Background())
	require.Error(t, err)
	require.EqualValues(t, maxRetries+1, calls.Load())
}

func TestCreateIsNotRetriedAfterServerError(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateTimeEntry(context.Background(), week.TimeEntry{ProjectID: "p1", TaskID: "t1", Date: "2024-01-12", Duration: 1, Status: week.StatusDraft})
	require.ErrorContains(t, err, "status 502")
	require.EqualValues(t, 1, calls.Load())
}

func TestCreateIsRetriedWhenThrottled(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("OData-EntityId", "https://org/api/data/v9.2/msdyn_timeentries(new-1)")
		w.WriteHeader(http.StatusNoContent)
	})

	id, err := c.CreateTimeEntry(context.Background(), week.TimeEntry{ProjectID: "p1", TaskID: "t1", Date: "2024-01-12", Duration: 1, Status: week.StatusDraft})
	require.NoError(t, err)
	require.Equal(t, "new-1", id)
	require.EqualValues(t, 2, calls.Load())
}

func TestCreateIsNotRetriedAfterTransportError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, Options{HTTPClient: srv.Client()})
	c.backoff = func(int) time.Duration { return 0 }

	_, err := c.CreateTimeEntry(context.Background(), week.TimeEntry{ProjectID: "p1", TaskID: "t1", Date: "2024-01-12", Duration: 1, Status: week.StatusDraft})
	require.ErrorContains(t, err, "sending request")
	require.EqualValues(t, 1, calls.Load())
}

func TestRetryWaitStopsOnCancel(t *testing.T) {
	c := testClient(t, V1, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.ListTimeEntries(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}
