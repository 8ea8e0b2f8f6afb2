package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"hippocampus/apperror"
	"hippocampus/config"
	"hippocampus/middleware"
	"hippocampus/model"
	"hippocampus/repository"
	"hippocampus/services"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "router-test-secret-0123456789abcdef"
	testIDP    = "https://idp.example.com"
	testDims   = 32
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.InitValidator()
	os.Exit(m.Run())
}

type wordEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *wordEmbedder) vector(text string) []float32 {
	v := make([]float32, testDims)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%testDims]++
	}
	return v
}

func (e *wordEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.vector(text), nil
}

func (e *wordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedDocument(ctx, text)
}

func (e *wordEmbedder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type memRecords struct {
	mu   sync.Mutex
	rows map[string]model.Record
}

func newMemRecords() *memRecords {
	return &memRecords{rows: make(map[string]model.Record)}
}

func (r *memRecords) Insert(_ context.Context, rec *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[rec.DocID] = *rec
	return nil
}

func (r *memRecords) ListByUser(_ context.Context, userID string) ([]model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Record{}
	for _, rec := range r.rows {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memRecords) FindByDocID(_ context.Context, userID, docID string) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[docID]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	return &rec, nil
}

func (r *memRecords) Update(_ context.Context, rec *model.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[rec.DocID]; !ok || existing.UserID != rec.UserID {
		return false, nil
	}
	r.rows[rec.DocID] = *rec
	return true, nil
}

func (r *memRecords) DeleteByDocID(_ context.Context, userID, docID string) (*model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[docID]
	if !ok || rec.UserID != userID {
		return nil, nil
	}
	delete(r.rows, docID)
	return &rec, nil
}

func (r *memRecords) CountBySpace(_ context.Context, userID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	for _, rec := range r.rows {
		if rec.UserID == userID {
			counts[rec.Space]++
		}
	}
	return counts, nil
}

type memCollections struct {
	mu     sync.Mutex
	counts map[string]map[string]int
}

func (c *memCollections) Get(_ context.Context, userID string) (*model.CollectionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary := &model.CollectionSummary{UserID: userID, Collections: []model.TagEntry{}}
	for name, n := range c.counts[userID] {
		summary.Collections = append(summary.Collections, model.TagEntry{TagCount: model.TagCount{Name: name, MemoryCount: n}})
	}
	return summary, nil
}

func (c *memCollections) Replace(_ context.Context, userID string, counts []model.TagCount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[userID] = map[string]int{}
	for _, tc := range counts {
		c.counts[userID][tc.Name] = tc.MemoryCount
	}
	return nil
}

func (c *memCollections) Increment(_ context.Context, userID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[userID] == nil {
		c.counts[userID] = map[string]int{}
	}
	c.counts[userID][name]++
	return nil
}

func (c *memCollections) Decrement(_ context.Context, userID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[userID][name]--; c.counts[userID][name] <= 0 {
		delete(c.counts[userID], name)
	}
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (u *memUsers) UpsertUser(_ context.Context, user *model.User) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, exists := u.users[user.ID]
	u.users[user.ID] = *user
	return !exists, nil
}

func (u *memUsers) FindUser(_ context.Context, userID string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// stubRefresher hands out a fresh token for one known refresh token.
type stubRefresher struct {
	valid string
	next  string
	calls int
}

func (s *stubRefresher) Refresh(_ context.Context, refreshToken string) (*services.TokenPair, error) {
	s.calls++
	if refreshToken != s.valid {
		return nil, apperror.Auth("Invalid refresh token")
	}
	return &services.TokenPair{AccessToken: s.next, RefreshToken: "rotated-refresh", TokenType: "bearer"}, nil
}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (r *memRevoker) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = expiresAt
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[token]
	return ok
}

type testServer struct {
	router    *gin.Engine
	embedder  *wordEmbedder
	vectors   *repository.MemoryStore
	refresher *stubRefresher
	revoker   *memRevoker
	users     *memUsers
	health    *services.HealthMonitor
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20, CORSOrigins: "*"},
		Auth: config.AuthConfig{
			JWTSecret: testSecret,
			IDPURL:    testIDP,
			Audience:  "authenticated",
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig()

	ts := &testServer{
		embedder:  &wordEmbedder{},
		vectors:   repository.NewMemoryStore(testDims),
		refresher: &stubRefresher{},
		revoker:   &memRevoker{revoked: map[string]time.Time{}},
		users:     &memUsers{users: map[string]model.User{}},
		health:    services.NewHealthMonitor(time.Second),
	}

	bookmarks := newMemRecords()
	notes := newMemRecords()
	collections := &memCollections{counts: map[string]map[string]int{}}

	ts.health.Register("vector_store", ts.vectors.Health)

	app := &App{
		Config: cfg,
		Auth: &usecase.AuthService{
			Verifier:  services.NewTokenVerifier(cfg.Auth),
			Refresher: ts.refresher,
			Revoker:   ts.revoker,
			Users:     usecase.NewUserService(ts.users),
			Seen:      services.NewSeenUserCache(nil, time.Hour),
		},
		Bookmarks:   usecase.NewRecordService(model.KindBookmark, bookmarks, ts.vectors, ts.embedder, collections),
		Notes:       usecase.NewRecordService(model.KindNote, notes, ts.vectors, ts.embedder, collections),
		Collections: usecase.NewCollectionsService(collections, bookmarks, notes),
		Health:      ts.health,
		Limiter:     services.NewRateLimiter(),
	}
	ts.router = setupRouter(app)
	return ts
}

func token(t *testing.T, userID string, exp time.Time) string {
	t.Helper()
	claims := &services.Claims{
		Email:        userID + "@example.com",
		Role:         "authenticated",
		UserMetadata: services.UserMetadata{FullName: "Test " + userID},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    testIDP + "/auth/v1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (ts *testServer) do(t *testing.T, method, path, accessToken string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("invalid data %q: %v", env.Data, err)
	}
	return out
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/health/detailed", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health/detailed = %d, body %s", w.Code, w.Body.String())
	}
	var report services.HealthReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Dependencies["vector_store"].Status != services.StatusUp {
		t.Errorf("vector_store = %+v", report.Dependencies["vector_store"])
	}
}

func TestHealthReportsLastKnownState(t *testing.T) {
	ts := newTestServer(t)
	ts.health.Register("mongodb", func(context.Context) error {
		return errors.New("server selection timeout")
	})

	liveness := func() string {
		t.Helper()
		w := ts.do(t, http.MethodGet, "/health", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET /health = %d", w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		status, _ := body["status"].(string)
		return status
	}

	if got := liveness(); got != services.StatusHealthy {
		t.Errorf("status before any check = %q, want healthy", got)
	}

	w := ts.do(t, http.MethodGet, "/health/detailed", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /health/detailed = %d, want 503", w.Code)
	}

	if got := liveness(); got != services.StatusDegraded {
		t.Errorf("status after failed check = %q, want degraded", got)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/links/save"},
		{http.MethodPost, "/links/search"},
		{http.MethodDelete, "/links/delete?doc_id_pincone=x"},
		{http.MethodGet, "/links/get"},
		{http.MethodGet, "/notes/"},
		{http.MethodGet, "/collections/"},
		{http.MethodGet, "/auth/verify"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := ts.do(t, r.method, r.path, "", nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			body := decodeError(t, w)
			if body.Type != apperror.KindAuth || body.Error == "" || body.Timestamp == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}

	if ts.embedder.count() != 0 {
		t.Errorf("embedder called %d times for rejected requests", ts.embedder.count())
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := token(t, "alice", time.Now().Add(time.Hour))
	bob := token(t, "bob", time.Now().Add(time.Hour))

	w := ts.do(t, http.MethodPost, "/links/save", alice, map[string]string{
		"title": "Go concurrency patterns",
		"note":  "#golang: pipelines and fan-out",
		"link":  "https://go.dev/blog/pipelines",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("save = %d, body %s", w.Code, w.Body.String())
	}
	saved := decode[struct {
		Status string `json:"status"`
		DocID  string `json:"doc_id"`
	}](t, w)
	if saved.Status != "success" || !strings.HasPrefix(saved.DocID, "alice-") {
		t.Fatalf("save response = %+v", saved)
	}

	w = ts.do(t, http.MethodPost, "/links/search", alice, map[string]string{"query": "concurrency pipelines"})
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body %s", w.Code, w.Body.String())
	}
	hits := decode[[]struct {
		ID          string            `json:"id"`
		PageContent string            `json:"page_content"`
		Metadata    map[string]string `json:"metadata"`
	}](t, w)
	if len(hits) != 1 || hits[0].ID != saved.DocID {
		t.Fatalf("search hits = %+v", hits)
	}
	if hits[0].Metadata["space"] != "golang" || hits[0].Metadata["site_name"] == "" {
		t.Errorf("metadata = %v", hits[0].Metadata)
	}
	if !strings.Contains(hits[0].PageContent, "Source: https://go.dev/blog/pipelines") {
		t.Errorf("page content = %q", hits[0].PageContent)
	}

	// Another tenant sees nothing.
	w = ts.do(t, http.MethodPost, "/links/search", bob, map[string]string{"query": "concurrency pipelines"})
	if got := decode[[]any](t, w); w.Code != http.StatusOK || len(got) != 0 {
		t.Fatalf("bob search = %d %v", w.Code, got)
	}

	w = ts.do(t, http.MethodGet, "/collections/", alice, nil)
	tags := decode[[]model.TagCount](t, w)
	if len(tags) != 1 || tags[0].Name != "golang" || tags[0].MemoryCount != 1 {
		t.Fatalf("collections = %+v", tags)
	}

	w = ts.do(t, http.MethodGet, "/links/get", alice, nil)
	if list := decode[[]map[string]any](t, w); len(list) != 1 {
		t.Fatalf("list = %v", list)
	}

	w = ts.do(t, http.MethodDelete, "/links/delete?doc_id_pincone="+saved.DocID, bob, nil)
	if del := decode[map[string]string](t, w); w.Code != http.StatusOK || del["status"] != usecase.DeleteStatusNotFound {
		t.Fatalf("bob delete = %d %v", w.Code, del)
	}

	w = ts.do(t, http.MethodDelete, "/links/delete?doc_id_pincone="+saved.DocID, alice, nil)
	if del := decode[map[string]string](t, w); w.Code != http.StatusOK || del["status"] != usecase.DeleteStatusSuccess {
		t.Fatalf("alice delete = %d %v", w.Code, del)
	}
	if ts.vectors.Len() != 0 {
		t.Errorf("vector store still holds %d points", ts.vectors.Len())
	}
}

func TestSearchRejectsShortQueryBeforeEmbedding(t *testing.T) {
	ts := newTestServer(t)
	alice := token(t, "alice", time.Now().Add(time.Hour))

	w := ts.do(t, http.MethodPost, "/notes/search", alice, map[string]string{"query": " ab "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeError(t, w); body.Type != apperror.KindValidation {
		t.Errorf("type = %s", body.Type)
	}
	if ts.embedder.count() != 0 {
		t.Errorf("embedder called %d times", ts.embedder.count())
	}
}

func TestSaveValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := token(t, "alice", time.Now().Add(time.Hour))

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing title", map[string]string{"link": "https://example.com"}},
		{"blank title", map[string]string{"title": "   ", "link": "https://example.com"}},
		{"missing link", map[string]string{"title": "A page"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/links/save", alice, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestNoteLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := token(t, "alice", time.Now().Add(time.Hour))

	w := ts.do(t, http.MethodPost, "/notes/", alice, map[string]string{"title": "Groceries", "note": "#home: eggs and milk"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", w.Code, w.Body.String())
	}
	created := decode[map[string]any](t, w)
	docID, _ := created["doc_id"].(string)
	if docID == "" || created["space"] != "home" {
		t.Fatalf("created = %v", created)
	}

	w = ts.do(t, http.MethodPut, "/notes/"+docID, alice, map[string]string{"title": "Groceries", "note": "#errands: eggs"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body %s", w.Code, w.Body.String())
	}
	if updated := decode[map[string]any](t, w); updated["space"] != "errands" {
		t.Errorf("updated = %v", updated)
	}

	w = ts.do(t, http.MethodPut, "/notes/missing-doc", alice, map[string]string{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d", w.Code)
	}

	w = ts.do(t, http.MethodDelete, "/notes/"+docID, alice, nil)
	if del := decode[map[string]string](t, w); del["status"] != usecase.DeleteStatusSuccess {
		t.Fatalf("delete = %v", del)
	}

	w = ts.do(t, http.MethodGet, "/notes/", alice, nil)
	if list := decode[[]any](t, w); len(list) != 0 {
		t.Errorf("notes after delete = %v", list)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t)
	alice := token(t, "alice", time.Now().Add(time.Hour))
	bob := token(t, "bob", time.Now().Add(time.Hour))
	body := map[string]string{"title": "page", "link": "https://example.com"}

	for i := 0; i < middleware.QuotaSave.Requests; i++ {
		if w := ts.do(t, http.MethodPost, "/links/save", alice, body); w.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i+1, w.Code)
		}
	}

	w := ts.do(t, http.MethodPost, "/links/save", alice, body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over quota = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if e := decodeError(t, w); e.Type != apperror.KindRateLimited {
		t.Errorf("type = %s", e.Type)
	}

	if w := ts.do(t, http.MethodPost, "/links/save", bob, body); w.Code != http.StatusCreated {
		t.Errorf("other user = %d", w.Code)
	}
}

func TestExpiredTokenIsRefreshedFromCookie(t *testing.T) {
	ts := newTestServer(t)
	expired := token(t, "alice", time.Now().Add(-time.Minute))
	ts.refresher.valid = "refresh-1"
	ts.refresher.next = token(t, "alice", time.Now().Add(time.Hour))

	w := ts.do(t, http.MethodGet, "/links/get", "", nil,
		&http.Cookie{Name: utils.AccessTokenCookie, Value: expired},
		&http.Cookie{Name: utils.RefreshTokenCookie, Value: "refresh-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ts.refresher.calls != 1 {
		t.Errorf("refresh calls = %d", ts.refresher.calls)
	}
	if !strings.Contains(strings.Join(w.Header().Values("Set-Cookie"), ";"), utils.AccessTokenCookie+"="+ts.refresher.next) {
		t.Error("new access token cookie not set")
	}

	w = ts.do(t, http.MethodGet, "/links/get", "", nil,
		&http.Cookie{Name: utils.AccessTokenCookie, Value: expired},
		&http.Cookie{Name: utils.RefreshTokenCookie, Value: "stale"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale refresh = %d", w.Code)
	}
}

func TestLoginLogout(t *testing.T) {
	ts := newTestServer(t)
	access := token(t, "carol", time.Now().Add(time.Hour))

	w := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"access_token": access, "refresh_token": "r"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	if u, _ := ts.users.FindUser(context.Background(), "carol"); u == nil || u.Email != "carol@example.com" {
		t.Fatalf("user not synced: %+v", u)
	}

	w = ts.do(t, http.MethodGet, "/auth/verify", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify = %d", w.Code)
	}
	verified := decode[struct {
		Valid   bool        `json:"valid"`
		Profile *model.User `json:"profile"`
	}](t, w)
	if !verified.Valid || verified.Profile == nil || verified.Profile.Email != "carol@example.com" {
		t.Errorf("verify body = %+v", verified)
	}

	w = ts.do(t, http.MethodPost, "/auth/logout", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout = %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/auth/verify", access, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("verify after logout = %d, want 401", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"access_token": "garbage", "refresh_token": "r"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("login with bad token = %d", w.Code)
	}
}

func TestVerifyWithoutStoredProfile(t *testing.T) {
	ts := newTestServer(t)
	access := token(t, "dave", time.Now().Add(time.Hour))

	// The first authenticated request syncs the user; drop the record after.
	if w := ts.do(t, http.MethodGet, "/auth/verify", access, nil); w.Code != http.StatusOK {
		t.Fatalf("verify = %d", w.Code)
	}
	ts.users.mu.Lock()
	delete(ts.users.users, "dave")
	ts.users.mu.Unlock()

	w := ts.do(t, http.MethodGet, "/auth/verify", access, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify without profile = %d, body %s", w.Code, w.Body.String())
	}
	got := decode[map[string]any](t, w)
	if _, ok := got["profile"]; ok {
		t.Errorf("profile = %v, want omitted", got["profile"])
	}
	if user, _ := got["user"].(map[string]any); user["id"] != "dave" {
		t.Errorf("user = %v", got["user"])
	}
}

func TestAuthStatusNeverFails(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/auth/status", "", nil,
		&http.Cookie{Name: utils.AccessTokenCookie, Value: "not-a-token"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[map[string]any](t, w)
	if got["has_access_token"] != true || got["is_authenticated"] != false || got["token_error"] == nil {
		t.Errorf("status body = %v", got)
	}
}
