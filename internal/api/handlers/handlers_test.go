package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxdns/fluxdns/internal/api/authsvc"
	"github.com/fluxdns/fluxdns/internal/api/handlers"
	"github.com/fluxdns/fluxdns/internal/api/models"
	"github.com/fluxdns/fluxdns/internal/listener"
	"github.com/fluxdns/fluxdns/internal/rewrite"
	"github.com/fluxdns/fluxdns/internal/store"
	"github.com/fluxdns/fluxdns/internal/upstream"
)

// fakeStore implements handlers.Store entirely in memory so the admin
// endpoints can be exercised without a sqlite-backed *store.DB.
type fakeStore struct {
	records   map[int64]store.Record
	rules     map[int64]store.Rule
	upstreams map[int64]store.UpstreamRow
	listeners map[listener.Protocol]listener.Config
	config    map[string]string
	logs      []store.QueryLogRow
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   map[int64]store.Record{},
		rules:     map[int64]store.Rule{},
		upstreams: map[int64]store.UpstreamRow{},
		listeners: map[listener.Protocol]listener.Config{
			listener.UDP: {Protocol: listener.UDP, Enabled: true, BindAddress: "0.0.0.0", Port: 53},
		},
		config: map[string]string{},
	}
}

func (f *fakeStore) ListRecords(ctx context.Context) ([]store.Record, error) {
	out := make([]store.Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) CreateRecord(ctx context.Context, r store.Record) (int64, error) {
	f.nextID++
	r.ID = f.nextID
	f.records[r.ID] = r
	return r.ID, nil
}

func (f *fakeStore) UpdateRecord(ctx context.Context, r store.Record) error {
	if _, ok := f.records[r.ID]; !ok {
		return store.ErrNotFound
	}
	f.records[r.ID] = r
	return nil
}

func (f *fakeStore) DeleteRecord(ctx context.Context, id int64) error {
	if _, ok := f.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) ListRules(ctx context.Context) ([]store.Rule, error) {
	out := make([]store.Rule, 0, len(f.rules))
	for _, r := range f.rules {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) LoadEngineRules(ctx context.Context) ([]rewrite.Rule, error) {
	return nil, nil
}

func (f *fakeStore) CreateRule(ctx context.Context, r store.Rule) (int64, error) {
	f.nextID++
	r.ID = f.nextID
	f.rules[r.ID] = r
	return r.ID, nil
}

func (f *fakeStore) UpdateRule(ctx context.Context, r store.Rule) error {
	if _, ok := f.rules[r.ID]; !ok {
		return store.ErrNotFound
	}
	f.rules[r.ID] = r
	return nil
}

func (f *fakeStore) DeleteRule(ctx context.Context, id int64) error {
	if _, ok := f.rules[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

func (f *fakeStore) ListUpstreams(ctx context.Context) ([]store.UpstreamRow, error) {
	out := make([]store.UpstreamRow, 0, len(f.upstreams))
	for _, u := range f.upstreams {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) LoadPoolServers(ctx context.Context) ([]upstream.Server, error) {
	return nil, nil
}

func (f *fakeStore) CreateUpstream(ctx context.Context, u store.UpstreamRow) (int64, error) {
	f.nextID++
	u.ID = f.nextID
	f.upstreams[u.ID] = u
	return u.ID, nil
}

func (f *fakeStore) UpdateUpstream(ctx context.Context, u store.UpstreamRow) error {
	if _, ok := f.upstreams[u.ID]; !ok {
		return store.ErrNotFound
	}
	f.upstreams[u.ID] = u
	return nil
}

func (f *fakeStore) DeleteUpstream(ctx context.Context, id int64) error {
	if _, ok := f.upstreams[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.upstreams, id)
	return nil
}

func (f *fakeStore) ListListeners(ctx context.Context) ([]listener.Config, error) {
	out := make([]listener.Config, 0, len(f.listeners))
	for _, c := range f.listeners {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) GetListener(ctx context.Context, protocol listener.Protocol) (listener.Config, error) {
	c, ok := f.listeners[protocol]
	if !ok {
		return listener.Config{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) UpdateListener(ctx context.Context, c listener.Config) error {
	if _, ok := f.listeners[c.Protocol]; !ok {
		return store.ErrNotFound
	}
	f.listeners[c.Protocol] = c
	return nil
}

func (f *fakeStore) GetConfig(ctx context.Context, key string) (string, error) {
	v, ok := f.config[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) SetConfig(ctx context.Context, key, value string) error {
	f.config[key] = value
	return nil
}

func (f *fakeStore) GetAllConfig(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(f.config))
	for k, v := range f.config {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SetDisabledRecordTypes(ctx context.Context, names []string) error {
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	f.config[store.ConfigKeyDisabledRecordTypes] = string(raw)
	return nil
}

func (f *fakeStore) ListQueryLogs(ctx context.Context, filter store.QueryLogFilter) ([]store.QueryLogRow, error) {
	return f.logs, nil
}

func (f *fakeStore) DeleteQueryLogsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fs := newFakeStore()
	auth := authsvc.New("admin", "hunter2", []byte("test-secret"))
	h := handlers.New(fs, nil, nil, nil, nil, nil, auth, nil)

	r := gin.New()
	r.GET("/records", h.ListRecords)
	r.POST("/records", h.CreateRecord)
	r.PUT("/records/:id", h.UpdateRecord)
	r.DELETE("/records/:id", h.DeleteRecord)
	r.GET("/rules", h.ListRules)
	r.POST("/rules", h.CreateRule)
	r.PUT("/rules/:id", h.UpdateRule)
	r.DELETE("/rules/:id", h.DeleteRule)
	r.POST("/rules/reload", h.ReloadRules)
	r.GET("/upstreams", h.ListUpstreams)
	r.GET("/upstreams/status", h.GetUpstreamStatus)
	r.POST("/upstreams", h.CreateUpstream)
	r.PUT("/upstreams/:id", h.UpdateUpstream)
	r.DELETE("/upstreams/:id", h.DeleteUpstream)
	r.GET("/listeners", h.ListListeners)
	r.GET("/listeners/:protocol", h.GetListener)
	r.PUT("/listeners/:protocol", h.UpdateListener)
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.GET("/cache/stats", h.GetCacheStats)
	r.POST("/cache/clear", h.ClearCache)
	r.GET("/logs", h.ListQueryLogs)
	r.POST("/auth/login", h.Login)
	r.GET("/health", h.Health)
	r.POST("/agent/chat", h.Chat)

	return r, fs
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/records", `{"name":"foo.local.","type":"A","value":"10.0.0.1","ttl":300}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "foo.local.", created.Name)
	assert.Equal(t, "A", created.Type)
	assert.NotZero(t, created.ID)

	w = doJSON(r, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	updateBody := `{"name":"foo.local.","type":"A","value":"10.0.0.2","ttl":60}`
	w = doJSON(r, http.MethodPut, "/records/"+strconv.FormatInt(created.ID, 10), updateBody)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.RecordResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "10.0.0.2", updated.Value)

	w = doJSON(r, http.MethodDelete, "/records/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/records/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRecordRejectsUnknownType(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/records", `{"name":"foo.local.","type":"BOGUS","value":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuleLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/rules", `{"pattern":"*.ads.example.","match_type":"wildcard","action_type":"block"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.RuleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "block", created.ActionType)

	w = doJSON(r, http.MethodPost, "/rules/reload", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/rules/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUpstreamLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/upstreams", `{"name":"cloudflare","address":"1.1.1.1:53","protocol":"udp","timeout_ms":2000,"enabled":true}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.UpstreamResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "cloudflare", created.Name)
	assert.False(t, created.Healthy)

	w = doJSON(r, http.MethodGet, "/upstreams/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListenerGetAndUpdate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/listeners/udp", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/listeners/doh", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, "/listeners/udp", `{"enabled":false,"bind_address":"0.0.0.0","port":53}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ListenerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Enabled)
	assert.False(t, resp.Running)
}

func TestSettingsRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"disabled_record_types":["AAAA","TXT"],"query_strategy":"fastest","cache_default_ttl":120}`
	w := doJSON(r, http.MethodPut, "/settings", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"AAAA", "TXT"}, resp.DisabledRecordTypes)
	assert.Equal(t, "fastest", resp.QueryStrategy)
	assert.Equal(t, 120, resp.CacheDefaultTTL)
}

func TestUpdateSettingsRejectsUnknownStrategy(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPut, "/settings", `{"query_strategy":"bogus"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListQueryLogsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/logs", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.QueryLogListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Logs)
}

func TestCacheStatsWithoutResolver(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CacheStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Entries)
}

func TestChatWithoutAgentIsUnavailable(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/agent/chat", `{"message":"list my records"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

