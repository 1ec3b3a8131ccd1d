package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/httpretry"
	"github.com/ignite/marketing-dashboard/internal/searchconsole"
	"github.com/ignite/marketing-dashboard/internal/session"
)

const testRedirect = "http://localhost:8080/oauth/callback"

const testConfig = `
server:
  environment: development

operator:
  username: admin
  name: Admin User

google:
  client_id: client-id
  client_secret: client-secret

google_ads:
  developer_token: dev-token
  customer_id: "123-456-7890"

meta:
  account_ids: [act_1, act_2]
`

// testEnv wires the full router against fake token and provider servers.
type testEnv struct {
	t        *testing.T
	cfg      *config.Config
	h        *Handlers
	router   http.Handler
	tokens   *httptest.Server
	provider *httptest.Server

	tokenCalls int32

	mu       sync.Mutex
	scRows   int
	scFailAt int
	lastAuth string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.Operator.PasswordHash = string(hash)

	e := &testEnv{t: t, cfg: cfg, scRows: 5, scFailAt: -1}
	e.tokens = httptest.NewServer(http.HandlerFunc(e.serveToken))
	t.Cleanup(e.tokens.Close)
	e.provider = httptest.NewServer(http.HandlerFunc(e.serveProvider))
	t.Cleanup(e.provider.Close)

	cfg.Google.TokenURL = e.tokens.URL + "/token"
	cfg.SearchConsole.BaseURL = e.provider.URL
	cfg.SearchConsole.PageCap = 2
	cfg.GoogleAds.BaseURL = e.provider.URL
	cfg.Meta.BaseURL = e.provider.URL

	sessions := session.NewManager(cfg.Session, nil)
	authorizer := oauth.NewAuthorizer(oauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		AuthURL:      cfg.Google.AuthURL,
		TokenURL:     cfg.Google.TokenURL,
	}, e.tokens.Client())
	states := oauth.NewMemoryStateStore(cfg.Session.StateTTL())

	e.h = NewHandlers(cfg, sessions, authorizer, states)
	e.h.SetTransport(httpretry.NewTransport(nil, httpretry.Policy{MaxRetries: 0}))
	e.router = NewServer(cfg.Server, e.h).Handler()
	return e
}

func (e *testEnv) serveToken(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&e.tokenCalls, 1)
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("redirect_uri") != testRedirect {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-2",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (e *testEnv) serveProvider(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.lastAuth = r.Header.Get("Authorization")
	total, failAt := e.scRows, e.scFailAt
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/webmasters/v3/sites":
		w.Write([]byte(`{"siteEntry":[{"siteUrl":"https://b.example.com/"},{"siteUrl":"https://a.example.com/"}]}`))

	case strings.HasSuffix(r.URL.Path, "/searchAnalytics/query"):
		var req searchconsole.QueryRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.StartRow == failAt {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"quota"}}`))
			return
		}
		rows := make([]searchconsole.Row, 0)
		for i := req.StartRow; i < total && i < req.StartRow+req.RowLimit; i++ {
			rows = append(rows, searchconsole.Row{
				Keys:        []string{fmt.Sprintf("q%d", i), fmt.Sprintf("https://a.example.com/p%d", i)},
				Clicks:      float64(i + 1),
				Impressions: 10,
				CTR:         float64(i+1) / 10,
				Position:    2,
			})
		}
		json.NewEncoder(w).Encode(searchconsole.QueryResponse{Rows: rows})

	case strings.HasSuffix(r.URL.Path, "/googleAds:search"):
		var req struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Query, "customer_client") {
			w.Write([]byte(`{"results":[
				{"customerClient":{"id":"1234567890","descriptiveName":"Shop","currencyCode":"TRY","status":"ENABLED"}},
				{"customerClient":{"id":"9998887777","descriptiveName":"MCC","manager":true,"status":"ENABLED"}}
			]}`))
			return
		}
		if strings.Contains(req.Query, "search_term_view") {
			w.Write([]byte(`{"results":[{
				"searchTermView":{"searchTerm":"buy shoes"},
				"adGroupCriterion":{"keyword":{"text":"shoes","matchType":"BROAD"}},
				"adGroupAd":{"ad":{"id":"77","finalUrls":["https://example.com/shoes"]}},
				"adGroup":{"name":"Shoes"},
				"campaign":{"name":"Brand"},
				"segments":{"date":"2026-03-01","conversionActionName":"Purchase"},
				"metrics":{"conversions":1.0,"conversionsValue":40.0,"costMicros":"5000000"}
			}]}`))
			return
		}
		w.Write([]byte(`{"results":[
			{"campaign":{"id":"1","name":"Brand","status":"ENABLED"},"segments":{"date":"2026-03-01"},
			 "metrics":{"impressions":"100","clicks":"10","costMicros":"5000000","conversions":1.0}},
			{"campaign":{"id":"2","name":"Generic","status":"PAUSED"},"segments":{"date":"2026-03-01"},
			 "metrics":{"impressions":"1000","clicks":"20","costMicros":"12500000","conversions":0}},
			{"campaign":{"id":"1","name":"Brand","status":"ENABLED"},"segments":{"date":"2026-03-02"},
			 "metrics":{"impressions":"50","clicks":"0","costMicros":"0"}}
		]}`))

	case r.URL.Path == "/v19.0/act_1/insights":
		w.Write([]byte(`{"data":[
			{"spend":"12.50","impressions":"1000","clicks":"40","cpm":"12.5","date_start":"2026-03-08","date_stop":"2026-03-08"},
			{"spend":"7.50","impressions":"500","clicks":"10","cpm":"15","date_start":"2026-03-09","date_stop":"2026-03-09"}
		]}`))

	case r.URL.Path == "/v19.0/act_2/insights":
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Unsupported get request","type":"GraphMethodException","code":100}}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (e *testEnv) authHeader() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastAuth
}

func (e *testEnv) setSearchConsole(rows, failAt int) {
	e.mu.Lock()
	e.scRows, e.scFailAt = rows, failAt
	e.mu.Unlock()
}

func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login() *http.Cookie {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/auth/login", loginRequest{Username: "admin", Password: "hunter2"}, nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == e.cfg.Session.CookieName {
			return c
		}
	}
	e.t.Fatal("no session cookie set")
	return nil
}

func (e *testEnv) session(cookie *http.Cookie) *session.Session {
	return e.h.sessions.Get(cookie.Value)
}

func (e *testEnv) connect(cookie *http.Cookie, i session.Integration, cred *oauth.Credential) {
	e.session(cookie).Credentials.Put(i, cred)
}

// credential returns a live credential issued by the fake token server.
func (e *testEnv) credential(token string) *oauth.Credential {
	return &oauth.Credential{
		AccessToken:  token,
		RefreshToken: "refresh-1",
		TokenURL:     e.cfg.Google.TokenURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// errorEnvelope mirrors httputil.ErrorResponse with typed details.
type errorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details struct {
		Integration string `json:"integration"`
		Stage       string `json:"stage"`
	} `json:"details"`
}
