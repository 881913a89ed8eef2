//go:build integration

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userbase/userbase/internal/metrics"
	"github.com/userbase/userbase/internal/middleware"
	"github.com/userbase/userbase/internal/model"
	"github.com/userbase/userbase/internal/repository"
	"github.com/userbase/userbase/internal/service"
	"github.com/userbase/userbase/internal/testutil"
)

func newIntegrationServer(t *testing.T) (*httptest.Server, func(email string) int) {
	t.Helper()

	ctx, pool := testutil.NewUsersDB(t)
	logger := testutil.DiscardLogger()
	repo := repository.NewWithQuerier(pool)
	recorder := metrics.NewInMemory()

	ts := httptest.NewServer(NewRouter(RouterDeps{
		Users:        service.NewUserService(repo, recorder, logger),
		DB:           repo,
		Metrics:      recorder,
		Recorder:     recorder,
		Logger:       logger,
		CORS:         middleware.DefaultCORSConfig(),
		MaxBodyBytes: 1 << 20,
	}))
	t.Cleanup(ts.Close)

	count := func(email string) int {
		t.Helper()
		n, err := testutil.CountUsersByEmail(ctx, pool, email)
		require.NoError(t, err)
		return n
	}
	return ts, count
}

func postUser(t *testing.T, ts *httptest.Server, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(ts.URL+"/users", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func listUsers(t *testing.T, ts *httptest.Server) []model.User {
	t.Helper()

	resp, err := http.Get(ts.URL + "/users")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw bytes.Buffer
	_, err = raw.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.NotEqual(t, "null", strings.TrimSpace(raw.String()))

	var users []model.User
	require.NoError(t, json.Unmarshal(raw.Bytes(), &users))
	return users
}

func TestUsersAPI_EmptyList(t *testing.T) {
	ts, _ := newIntegrationServer(t)

	users := listUsers(t, ts)
	assert.Empty(t, users)
}

func TestUsersAPI_CreateThenListContainsExactlyOne(t *testing.T) {
	ts, count := newIntegrationServer(t)

	status, body := postUser(t, ts, `{"email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["created_at"])
	assert.NotEmpty(t, body["updated_at"])

	matches := 0
	for _, u := range listUsers(t, ts) {
		if u.Email == "alice@example.com" {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
	assert.Equal(t, 1, count("alice@example.com"))
}

func TestUsersAPI_SequentialDuplicate(t *testing.T) {
	ts, count := newIntegrationServer(t)

	status, _ := postUser(t, ts, `{"email":"dup@example.com"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := postUser(t, ts, `{"email":"dup@example.com"}`)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already exists", body["error"])

	assert.Equal(t, 1, count("dup@example.com"))
}

func TestUsersAPI_ConcurrentDuplicate(t *testing.T) {
	ts, count := newIntegrationServer(t)

	const attempts = 2
	statuses := make([]int, attempts)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			resp, err := http.Post(ts.URL+"/users", "application/json", strings.NewReader(`{"email":"race@example.com"}`))
			if err != nil {
				t.Errorf("post: %v", err)
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	close(start)
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, statuses)
	assert.Equal(t, 1, count("race@example.com"))
}

func TestUsersAPI_RejectedPayloadsInsertNothing(t *testing.T) {
	ts, _ := newIntegrationServer(t)

	for _, body := range []string{
		`{}`,
		`{"email":""}`,
		`{"email":"not-an-email"}`,
		`{ invalid json }`,
	} {
		status, out := postUser(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, status, "body %s", body)
		assert.NotEmpty(t, out["error"], "body %s", body)
	}

	assert.Empty(t, listUsers(t, ts))
}

func TestUsersAPI_CaseSensitiveUniqueness(t *testing.T) {
	ts, _ := newIntegrationServer(t)

	status, _ := postUser(t, ts, `{"email":"test@example.com"}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = postUser(t, ts, `{"email":"TEST@example.com"}`)
	require.Equal(t, http.StatusCreated, status)

	assert.Len(t, listUsers(t, ts), 2)
}

func TestUsersAPI_ExtendedSyntaxRoundTrips(t *testing.T) {
	ts, count := newIntegrationServer(t)

	const email = "user+tag@example.co.uk"
	status, body := postUser(t, ts, `{"email":"`+email+`"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, email, body["email"])
	assert.Equal(t, 1, count(email))

	users := listUsers(t, ts)
	require.Len(t, users, 1)
	assert.Equal(t, email, users[0].Email)
}
