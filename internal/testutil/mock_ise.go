// Package testutil provides an in-memory mock ISE appliance for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockISE is a configurable in-memory ERS appliance served over
// httptest. It implements per-category resource stores, SearchResult
// pagination, the bulk subtree, and the special endpoint paths, plus
// fault and latency injection for gate and failure-path tests.
type MockISE struct {
	server *httptest.Server

	mu         sync.Mutex
	stores     map[string][]map[string]any
	nextID     int
	overrides  map[string]int // "METHOD /path" -> forced status
	latency    time.Duration
	bulkStatus string // executionStatus served for bulk status polls

	requestCount  int
	requests      []string
	current       int
	maxConcurrent int
}

// NewMockISE creates and starts a mock appliance.
func NewMockISE() *MockISE {
	mock := &MockISE{
		stores:    make(map[string][]map[string]any),
		overrides: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// BaseURL returns the ERS root URL, suitable for ers.Config.BaseURL.
func (m *MockISE) BaseURL() string {
	return m.server.URL + "/ers"
}

// Close shuts down the mock server.
func (m *MockISE) Close() {
	m.server.Close()
}

// Seed replaces a category's store. Resources lacking an "id" field get
// one assigned.
func (m *MockISE) Seed(api string, resources []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store := make([]map[string]any, len(resources))
	for i, r := range resources {
		copied := make(map[string]any, len(r))
		for k, v := range r {
			copied[k] = v
		}
		if _, ok := copied["id"]; !ok {
			m.nextID++
			copied["id"] = fmt.Sprintf("seed-%d", m.nextID)
		}
		store[i] = copied
	}
	m.stores[api] = store
}

// Resources returns a copy of a category's store.
func (m *MockISE) Resources(api string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.stores[api]...)
}

// SetStatusOverride forces a status code for one method+path.
// Statuses >= 400 are served with an ERS error envelope.
func (m *MockISE) SetStatusOverride(method, path string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[method+" "+path] = status
}

// SetLatency injects a fixed delay into every request, to widen the
// window concurrency assertions observe.
func (m *MockISE) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// SetBulkExecutionStatus overrides the executionStatus served for bulk
// status polls. Empty restores the default COMPLETED.
func (m *MockISE) SetBulkExecutionStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkStatus = status
}

// RequestCount returns the number of requests served.
func (m *MockISE) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// Requests returns every served request as "METHOD path?query", in
// arrival order.
func (m *MockISE) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// MaxConcurrent returns the high-water mark of simultaneous in-flight
// requests, for asserting the client's concurrency ceiling.
func (m *MockISE) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxConcurrent
}

// Reset clears counters and the high-water mark, keeping stores.
func (m *MockISE) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requests = nil
	m.maxConcurrent = 0
}

func (m *MockISE) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.requests = append(m.requests, r.Method+" "+r.URL.RequestURI())
	m.current++
	if m.current > m.maxConcurrent {
		m.maxConcurrent = m.current
	}
	latency := m.latency
	override, hasOverride := m.overrides[r.Method+" "+r.URL.Path]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.current--
		m.mu.Unlock()
	}()

	if latency > 0 {
		time.Sleep(latency)
	}

	if hasOverride {
		m.writeForced(w, r, override)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/ers/config/")
	if !ok {
		m.writeError(w, http.StatusNotFound, r.Method, "not an ERS path")
		return
	}
	segs := strings.Split(strings.Trim(rest, "/"), "/")
	api := segs[0]

	switch {
	case api == "acibindings" && len(segs) == 2 && segs[1] == "getall":
		m.writeJSON(w, http.StatusOK, map[string]any{"ArrayList": anySlice(m.Resources("acibindings"))})

	case api == "endpoint" && len(segs) == 2 && segs[1] == "getrejectedendpoints":
		m.writeJSON(w, http.StatusOK, map[string]any{
			"OperationResult": map[string]any{"resultValue": anySlice(m.Resources("rejected"))},
		})

	case api == "endpoint" && len(segs) == 2 && segs[1] == "register" && r.Method == http.MethodPut:
		w.WriteHeader(http.StatusNoContent)

	case api == "endpoint" && len(segs) == 3 && (segs[2] == "releaserejectedendpoint" || segs[2] == "deregister") && r.Method == http.MethodPut:
		if m.find(api, segs[1]) < 0 {
			m.writeError(w, http.StatusNotFound, r.Method, "endpoint not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(segs) == 2 && segs[1] == "versioninfo":
		m.writeJSON(w, http.StatusOK, map[string]any{
			"VersionInfo": map[string]any{
				"currentServerVersion": "1.1",
				"supportedVersions":    "1.0,1.1",
			},
		})

	case len(segs) >= 2 && segs[1] == "bulk":
		m.handleBulk(w, r, api, segs)

	case len(segs) == 1:
		m.handleCollection(w, r, api)

	case len(segs) == 3 && segs[1] == "name":
		m.handleItem(w, r, api, "name", segs[2])

	case len(segs) == 2:
		m.handleItem(w, r, api, "id", segs[1])

	default:
		m.writeError(w, http.StatusNotFound, r.Method, "unknown path")
	}
}

func (m *MockISE) handleCollection(w http.ResponseWriter, r *http.Request, api string) {
	switch r.Method {
	case http.MethodGet:
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		if size <= 0 {
			size = 20
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page <= 0 {
			page = 1
		}

		store := m.Resources(api)
		startIdx := (page - 1) * size
		endIdx := startIdx + size
		if startIdx > len(store) {
			startIdx = len(store)
		}
		if endIdx > len(store) {
			endIdx = len(store)
		}

		m.writeJSON(w, http.StatusOK, map[string]any{
			"SearchResult": map[string]any{
				"total":     len(store),
				"resources": anySlice(store[startIdx:endIdx]),
			},
		})

	case http.MethodPost:
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			m.writeError(w, http.StatusBadRequest, r.Method, "invalid JSON payload")
			return
		}

		m.mu.Lock()
		m.nextID++
		id := fmt.Sprintf("mock-%d", m.nextID)
		payload["id"] = id
		m.stores[api] = append(m.stores[api], payload)
		m.mu.Unlock()

		w.Header().Set("Location", m.server.URL+"/ers/config/"+api+"/"+id)
		w.WriteHeader(http.StatusCreated)

	default:
		m.writeError(w, http.StatusMethodNotAllowed, r.Method, "method not allowed")
	}
}

// handleItem serves one resource addressed by id or name. Lookup and
// mutation happen under one lock so concurrent deletes stay consistent.
func (m *MockISE) handleItem(w http.ResponseWriter, r *http.Request, api, field, key string) {
	var payload map[string]any
	if r.Method == http.MethodPut || r.Method == http.MethodPatch {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			m.writeError(w, http.StatusBadRequest, r.Method, "invalid JSON payload")
			return
		}
	}

	m.mu.Lock()
	idx := -1
	for i, resource := range m.stores[api] {
		if resource[field] == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		m.writeError(w, http.StatusNotFound, r.Method, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		resource := m.stores[api][idx]
		m.mu.Unlock()
		m.writeJSON(w, http.StatusOK, resource)

	case http.MethodPut, http.MethodPatch:
		resource := m.stores[api][idx]
		var updated []any
		for k, v := range payload {
			if k == "id" {
				continue
			}
			resource[k] = v
			updated = append(updated, map[string]any{"field": k})
		}
		m.mu.Unlock()
		m.writeJSON(w, http.StatusOK, map[string]any{
			"UpdatedFieldsList": map[string]any{"updatedField": updated},
		})

	case http.MethodDelete:
		m.stores[api] = append(m.stores[api][:idx], m.stores[api][idx+1:]...)
		m.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	default:
		m.mu.Unlock()
		m.writeError(w, http.StatusMethodNotAllowed, r.Method, "method not allowed")
	}
}

func (m *MockISE) handleBulk(w http.ResponseWriter, r *http.Request, api string, segs []string) {
	if len(segs) == 3 && segs[2] == "submit" && r.Method == http.MethodPut {
		m.mu.Lock()
		m.nextID++
		bulkID := fmt.Sprintf("16157917%05d", m.nextID)
		m.mu.Unlock()

		w.Header().Set("Location", m.server.URL+"/ers/config/"+api+"/bulk/submit/"+bulkID)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if len(segs) == 3 && r.Method == http.MethodGet {
		m.mu.Lock()
		status := m.bulkStatus
		m.mu.Unlock()
		if status == "" {
			status = "COMPLETED"
		}
		successCount, failCount := 1, 0
		if status != "COMPLETED" {
			successCount, failCount = 0, 1
		}
		m.writeJSON(w, http.StatusOK, map[string]any{
			"BulkStatus": map[string]any{
				"bulkId":          segs[2],
				"executionStatus": status,
				"operationType":   "create",
				"resourcesCount":  1,
				"successCount":    successCount,
				"failCount":       failCount,
			},
		})
		return
	}

	m.writeError(w, http.StatusNotFound, r.Method, "unknown bulk path")
}

// find returns the store index of a resource by id, -1 when absent.
func (m *MockISE) find(api, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.stores[api] {
		if r["id"] == id {
			return i
		}
	}
	return -1
}

func (m *MockISE) writeForced(w http.ResponseWriter, r *http.Request, status int) {
	if status >= 400 {
		m.writeError(w, status, r.Method, "forced failure")
		return
	}
	w.WriteHeader(status)
}

// writeError serves the ERS error envelope.
func (m *MockISE) writeError(w http.ResponseWriter, status int, method, title string) {
	m.writeJSON(w, status, map[string]any{
		"ERSResponse": map[string]any{
			"operation": method,
			"messages": []map[string]any{
				{"title": title, "type": "ERROR", "code": "Application resource validation exception"},
			},
		},
	})
}

func (m *MockISE) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func anySlice(in []map[string]any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
