//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
)

const defaultFixturePageSize = 10

// fixtureServer is an in-process HAL API serving one collection from
// memory. It implements the conventions the client relies on: paged
// collections under _embedded, total_items, link relations carrying the
// full query, direct record fetch by path, and problem documents on
// errors.
type fixtureServer struct {
	t        *testing.T
	server   *httptest.Server
	particle string

	mu         sync.Mutex
	records    []hal.Record
	requests   int
	failStatus int
	failBody   *hal.Problem
}

// startFixtureServer serves the seed records as the given particle. The
// server shuts down with the test.
func startFixtureServer(t *testing.T, particle string, seed []hal.Record) *fixtureServer {
	t.Helper()

	fixture := &fixtureServer{
		t:        t,
		particle: particle,
		records:  append([]hal.Record(nil), seed...),
	}

	fixture.server = httptest.NewServer(http.HandlerFunc(fixture.handle))
	t.Cleanup(fixture.server.Close)

	return fixture
}

// URL returns the server's base endpoint.
func (f *fixtureServer) URL() string {
	return f.server.URL
}

// Close shuts the server down early, leaving later requests to fail at
// the connection level.
func (f *fixtureServer) Close() {
	f.server.Close()
}

// Requests returns how many requests the server has answered.
func (f *fixtureServer) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests
}

// FailNextWith makes the next request answer with the given status and
// problem document, then recover.
func (f *fixtureServer) FailNextWith(status int, problem *hal.Problem) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failStatus = status
	f.failBody = problem
}

func (f *fixtureServer) handle(writer http.ResponseWriter, request *http.Request) {
	f.mu.Lock()
	f.requests++

	if f.failStatus != 0 {
		status, problem := f.failStatus, f.failBody
		f.failStatus, f.failBody = 0, nil
		f.mu.Unlock()

		writeProblem(writer, status, problem)

		return
	}
	f.mu.Unlock()

	collectionPath := "/" + f.particle

	switch {
	case request.URL.Path == collectionPath && request.Method == http.MethodGet:
		f.handleCollection(writer, request)
	case request.URL.Path == collectionPath && request.Method == http.MethodPost:
		f.handleCreate(writer, request)
	case strings.HasPrefix(request.URL.Path, collectionPath+"/") && request.Method == http.MethodGet:
		f.handleRecord(writer, strings.TrimPrefix(request.URL.Path, collectionPath+"/"))
	default:
		writeProblem(writer, http.StatusNotFound, &hal.Problem{
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: fmt.Sprintf("no route for %s %s", request.Method, request.URL.Path),
		})
	}
}

func (f *fixtureServer) handleCollection(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	page := intQueryParam(query, "page", 1)
	count := intQueryParam(query, "count", defaultFixturePageSize)

	matching := f.filterRecords(query)

	totalItems := len(matching)

	totalPages := (totalItems + count - 1) / count
	if totalPages == 0 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * count

	end := start + count
	if end > totalItems {
		end = totalItems
	}

	links := map[string]interface{}{
		"self":  halLink(f.particle, query, page),
		"first": halLink(f.particle, query, 1),
		"last":  halLink(f.particle, query, totalPages),
	}

	if page < totalPages {
		links["next"] = halLink(f.particle, query, page+1)
	}

	if page > 1 {
		links["previous"] = halLink(f.particle, query, page-1)
	}

	document := map[string]interface{}{
		"total_items": totalItems,
		"_links":      links,
		"_embedded": map[string]interface{}{
			f.particle: matching[start:end],
		},
	}

	writeHAL(writer, http.StatusOK, document)
}

func (f *fixtureServer) handleRecord(writer http.ResponseWriter, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, record := range f.records {
		if fmt.Sprint(record["id"]) == id {
			writeHAL(writer, http.StatusOK, record)

			return
		}
	}

	writeProblem(writer, http.StatusNotFound, &hal.Problem{
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("%s %q does not exist", f.particle, id),
	})
}

func (f *fixtureServer) handleCreate(writer http.ResponseWriter, request *http.Request) {
	var record hal.Record
	if err := json.NewDecoder(request.Body).Decode(&record); err != nil {
		writeProblem(writer, http.StatusBadRequest, &hal.Problem{
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: "request body is not valid JSON",
		})

		return
	}

	// The fixture schema requires a name, giving workflows a natural
	// validation rejection to provoke.
	if name, _ := record["name"].(string); name == "" {
		writeProblem(writer, http.StatusUnprocessableEntity, &hal.Problem{
			Title:  "Unprocessable Entity",
			Status: http.StatusUnprocessableEntity,
			Detail: "name is required",
		})

		return
	}

	record["id"] = uuid.NewString()

	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()

	writeHAL(writer, http.StatusCreated, record)
}

// filterRecords applies every query parameter except the paging and
// embed controls as a field equality filter. Comma-separated values
// match any.
func (f *fixtureServer) filterRecords(query url.Values) []hal.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	matching := make([]hal.Record, 0, len(f.records))

	for _, record := range f.records {
		if recordMatches(record, query) {
			matching = append(matching, record)
		}
	}

	return matching
}

func recordMatches(record hal.Record, query url.Values) bool {
	for key, values := range query {
		if key == "page" || key == "count" || key == "embed" || len(values) == 0 {
			continue
		}

		field := fmt.Sprint(record[key])

		matched := false

		for _, value := range strings.Split(values[0], ",") {
			if field == value {
				matched = true

				break
			}
		}

		if !matched {
			return false
		}
	}

	return true
}

func intQueryParam(query url.Values, key string, fallback int) int {
	raw := query.Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}

// halLink renders a link relation whose href repeats the full query with
// the page replaced, the way HAL collections hand out navigable links.
func halLink(particle string, query url.Values, page int) map[string]interface{} {
	linkQuery := url.Values{}
	for key, values := range query {
		linkQuery[key] = values
	}

	linkQuery.Set("page", strconv.Itoa(page))

	return map[string]interface{}{
		"href": "/" + particle + "?" + linkQuery.Encode(),
	}
}

func writeHAL(writer http.ResponseWriter, status int, document interface{}) {
	writer.Header().Set("Content-Type", "application/hal+json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(document)
}

func writeProblem(writer http.ResponseWriter, status int, problem *hal.Problem) {
	writer.Header().Set("Content-Type", "application/problem+json")
	writer.WriteHeader(status)

	if problem != nil {
		_ = json.NewEncoder(writer).Encode(problem)
	}
}

// newFixtureClient builds a client against the fixture with retries
// disabled, so injected failures surface on the first attempt.
func newFixtureClient(t *testing.T, endpoint string) hal.Client {
	t.Helper()

	client, err := halclient.New(context.Background(), &hal.Config{
		Endpoint:     endpoint,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	require.NoError(t, err)

	return client
}

// seedRecords generates n sequential records of the fixture schema.
func seedRecords(prefix string, n int) []hal.Record {
	records := make([]hal.Record, 0, n)

	for i := 1; i <= n; i++ {
		records = append(records, hal.Record{
			"id":        fmt.Sprintf("%s-%d", prefix, i),
			"name":      fmt.Sprintf("%s %d", prefix, i),
			"habitable": i%2 == 0,
		})
	}

	return records
}

// GenerateTestName creates a unique test resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().Unix())
}
