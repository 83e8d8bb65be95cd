package http

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/config"
	"ashiato/journal/internal/session"
)

// fakeBackend stands in for the journal REST API.
type fakeBackend struct {
	mu sync.Mutex

	calls         map[string]int
	authHeaders   []string
	loginRoles    []string
	callbackReqs  []clients.GoogleCallbackRequest
	createdReport []clients.ReportCreate
	labUpdates    []clients.SeminarLabInput
	profileEdits  []clients.StudentUpdate
	uploadNames   []string
	chatRequests  []clients.ChatRequest
	labAssigns    []url.Values

	unauthorized   bool
	currentTheme   *clients.Theme
	analysis       clients.AnalysisResult
	students       []clients.StudentSummary
	scatter        clients.ScatterData
	detail         clients.StudentDetail
	reports        []clients.Report
	booksStatus    int
	meStatus       int
	studentsStatus int
	scatterStatus  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:        map[string]int{},
		currentTheme: &clients.Theme{ID: "t1", Title: "地域の環境問題"},
		analysis: clients.AnalysisResult{
			SuggestedPhase:   "情報収集",
			SuggestedPhaseID: "p2",
			SuggestedAbilities: []clients.AbilityScore{
				{ID: "a1", Name: "情報収集能力と先を見る力", Score: 85},
				{ID: "a3", Name: "対話する力", Score: 60},
			},
			AIComment: "よく**調べて**います。",
		},
		scatter: clients.ScatterData{
			Abilities: []clients.ScatterAbility{{ID: "a1", Name: "情報収集"}, {ID: "a2", Name: "課題設定"}},
			DataPoints: []clients.ScatterPoint{
				{StudentID: "s1", StudentName: "山田太郎", AbilityScores: map[string]float64{"a1": 40, "a2": 70}},
			},
		},
		booksStatus:    http.StatusOK,
		meStatus:       http.StatusOK,
		studentsStatus: http.StatusOK,
		scatterStatus:  http.StatusOK,
	}
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

var backendUsers = map[string]clients.User{
	"token-student": {ID: "u-s", Email: "student@example.com", Name: "山田太郎", Role: "student"},
	"token-teacher": {ID: "u-t", Email: "teacher@example.com", Name: "佐藤先生", Role: "teacher"},
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.calls[r.Method+" "+r.URL.Path]++
			b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
			unauthorized := b.unauthorized
			b.mu.Unlock()
			if unauthorized {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/google/login", func(w http.ResponseWriter, r *http.Request) {
			role := r.URL.Query().Get("role")
			b.set(func(b *fakeBackend) { b.loginRoles = append(b.loginRoles, role) })
			writeJSON(w, http.StatusOK, map[string]string{"auth_url": "https://accounts.example.com/auth?role=" + role})
		})
		r.Post("/auth/google/callback", func(w http.ResponseWriter, r *http.Request) {
			var req clients.GoogleCallbackRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			b.set(func(b *fakeBackend) { b.callbackReqs = append(b.callbackReqs, req) })
			token := "token-" + req.RequestedRole
			writeJSON(w, http.StatusOK, clients.TokenResponse{AccessToken: token, TokenType: "bearer", User: backendUsers[token]})
		})
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			status := b.meStatus
			b.mu.Unlock()
			if status != http.StatusOK {
				writeJSON(w, status, map[string]string{"detail": "me unavailable"})
				return
			}
			user, ok := backendUsers[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
				return
			}
			writeJSON(w, http.StatusOK, user)
		})
		r.Post("/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		})

		r.Get("/reports/streak", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, clients.Streak{CurrentStreak: 3, MaxStreak: 5})
		})
		r.Get("/reports", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []clients.Report{})
		})
		r.Get("/themes/current", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			theme := b.currentTheme
			b.mu.Unlock()
			if theme == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "テーマが見つかりません"})
				return
			}
			writeJSON(w, http.StatusOK, theme)
		})
		r.Get("/themes", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []clients.Theme{})
		})
		r.Post("/themes", func(w http.ResponseWriter, r *http.Request) {
			var in clients.ThemeInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusCreated, clients.Theme{ID: "t2", Title: in.Title})
		})
		r.Get("/master/abilities", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []clients.Ability{{ID: "a1", Name: "情報収集能力と先を見る力", DisplayOrder: 1}})
		})
		r.Get("/master/research-phases", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []clients.Phase{{ID: "p1", Name: "課題設定", DisplayOrder: 1}})
		})
		r.Post("/reports/upload", func(w http.ResponseWriter, r *http.Request) {
			_, header, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "ファイルが必要です"})
				return
			}
			b.set(func(b *fakeBackend) { b.uploadNames = append(b.uploadNames, header.Filename) })
			writeJSON(w, http.StatusOK, map[string]string{"url": "/uploads/" + header.Filename})
		})
		r.Post("/reports/analyze", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			result := b.analysis
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, result)
		})
		r.Post("/reports", func(w http.ResponseWriter, r *http.Request) {
			var in clients.ReportCreate
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.set(func(b *fakeBackend) { b.createdReport = append(b.createdReport, in) })
			writeJSON(w, http.StatusCreated, clients.Report{ID: "r1", Content: in.Content})
		})
		r.Get("/reports/calendar", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, clients.CalendarResponse{
				Dates: []clients.CalendarEntry{{Date: "2025-01-10", ReportCount: 2}},
				Year:  2025,
				Month: 1,
			})
		})
		r.Get("/reports/by-date/{date}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []clients.DatedReport{{
				ID:         "r1",
				Content:    "【やったこと】\nインタビュー",
				Phase:      "情報収集",
				Abilities:  []string{"対話する力"},
				ReportedAt: chi.URLParam(r, "date") + "T01:30:00",
			}})
		})

		r.Get("/dashboard/students", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			students, status := b.students, b.studentsStatus
			b.mu.Unlock()
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			writeJSON(w, http.StatusOK, students)
		})
		r.Get("/dashboard/students/{id}", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			detail := b.detail
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, detail)
		})
		r.Put("/dashboard/students/{id}", func(w http.ResponseWriter, r *http.Request) {
			var in clients.StudentUpdate
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.set(func(b *fakeBackend) { b.profileEdits = append(b.profileEdits, in) })
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		})
		r.Get("/dashboard/students/{id}/reports", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			reports := b.reports
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, reports)
		})
		r.Get("/dashboard/scatter-data", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			scatter, status := b.scatter, b.scatterStatus
			b.mu.Unlock()
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			writeJSON(w, http.StatusOK, scatter)
		})
		r.Get("/teacher/themes/student/{id}", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []clients.Theme{{ID: "t1", Title: "地域の環境問題", Status: "active"}})
		})
		r.Get("/master/books", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			status := b.booksStatus
			b.mu.Unlock()
			if status != http.StatusOK {
				writeJSON(w, status, map[string]string{"detail": "books unavailable"})
				return
			}
			writeJSON(w, http.StatusOK, []clients.Book{})
		})
		r.Get("/master/seminar-labs", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []clients.SeminarLab{{ID: "l1", Name: "環境ゼミ", StudentCount: 4, IsActive: true}})
		})
		r.Put("/master/students/{id}/seminar-lab", func(w http.ResponseWriter, r *http.Request) {
			assign := url.Values{"student_id": {chi.URLParam(r, "id")}, "seminar_lab_id": {r.URL.Query().Get("seminar_lab_id")}}
			b.set(func(b *fakeBackend) { b.labAssigns = append(b.labAssigns, assign) })
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		})
		r.Put("/master/seminar-labs/{id}", func(w http.ResponseWriter, r *http.Request) {
			var in clients.SeminarLabInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.set(func(b *fakeBackend) { b.labUpdates = append(b.labUpdates, in) })
			writeJSON(w, http.StatusOK, clients.SeminarLab{ID: chi.URLParam(r, "id")})
		})
		r.Post("/ai/chat", func(w http.ResponseWriter, r *http.Request) {
			var in clients.ChatRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.set(func(b *fakeBackend) { b.chatRequests = append(b.chatRequests, in) })
			writeJSON(w, http.StatusOK, clients.ChatResponse{Response: "まずは**一歩**から。"})
		})
	})
	return r
}

type testApp struct {
	t       *testing.T
	cfg     config.Config
	server  *httptest.Server
	client  *http.Client
	store   *session.MemoryStore
	backend *fakeBackend
}

func newTestApp(t *testing.T, configure ...func(*config.Config)) *testApp {
	t.Helper()
	backend := newFakeBackend()
	backendServer := httptest.NewServer(backend.router())
	t.Cleanup(backendServer.Close)

	cfg := config.Config{
		APIBaseURL:         backendServer.URL + "/api",
		APITimeout:         5 * time.Second,
		SessionTTL:         time.Hour,
		SessionCookieName:  "journal_session",
		CSRFKey:            "test-csrf-key-0123456789abcdefgh",
		UploadMaxBytes:     10 << 20,
		UploadMaxDimension: 1600,
		PublicURL:          "http://journal.test",
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	store := session.NewMemoryStore(cfg.SessionTTL)
	srv := NewServer(cfg, clients.New(cfg.APIBaseURL, cfg.APITimeout), store)
	srv.now = func() time.Time { return time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC) }
	server := httptest.NewServer(srv.Router())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{t: t, cfg: cfg, server: server, client: client, store: store, backend: backend}
}

// login seeds a signed-in session for role and hands its cookie to the client.
func (a *testApp) login(role string) *session.Session {
	a.t.Helper()
	token := "token-" + role
	user := backendUsers[token]
	sess := session.New()
	sess.SetAuth(token, &user)
	require.NoError(a.t, a.store.Save(context.Background(), sess))
	u, _ := url.Parse(a.server.URL)
	a.client.Jar.SetCookies(u, []*http.Cookie{{Name: a.cfg.SessionCookieName, Value: sess.ID, Path: "/"}})
	return sess
}

// session reloads the client's current session from the store.
func (a *testApp) session() *session.Session {
	a.t.Helper()
	u, _ := url.Parse(a.server.URL)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == a.cfg.SessionCookieName {
			sess, err := a.store.Load(context.Background(), c.Value)
			require.NoError(a.t, err)
			return sess
		}
	}
	a.t.Fatalf("no session cookie")
	return nil
}

func (a *testApp) get(path string) (*http.Response, string) {
	a.t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(body)
}

var csrfFieldPattern = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// csrfToken loads a page and pulls the form token out of it.
func (a *testApp) csrfToken(path string) string {
	a.t.Helper()
	_, body := a.get(path)
	return csrfFromBody(a.t, body)
}

func csrfFromBody(t *testing.T, body string) string {
	t.Helper()
	match := csrfFieldPattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "no csrf field in page")
	return html.UnescapeString(match[1])
}

func (a *testApp) post(path, token, contentType string, body io.Reader) *http.Response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (a *testApp) postForm(path, token string, form url.Values) *http.Response {
	a.t.Helper()
	return a.post(path, token, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (a *testApp) postUpload(path, token, filename string, data []byte) *http.Response {
	a.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(a.t, writer.WriteField("action", "upload"))
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(a.t, err)
	_, err = part.Write(data)
	require.NoError(a.t, err)
	require.NoError(a.t, writer.Close())
	return a.post(path, token, writer.FormDataContentType(), &buf)
}

// postUploadForm sends the upload the way the browser form does, with the
// CSRF token as the first multipart field instead of a header.
func (a *testApp) postUploadForm(path, token, filename string, data []byte) *http.Response {
	a.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(a.t, writer.WriteField("gorilla.csrf.Token", token))
	require.NoError(a.t, writer.WriteField("action", "upload"))
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(a.t, err)
	_, err = part.Write(data)
	require.NoError(a.t, err)
	require.NoError(a.t, writer.Close())
	return a.post(path, "", writer.FormDataContentType(), &buf)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
