package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/javajoker/license-backend/internal/config"
	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/services"
	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		RateLimit: config.RateLimitConfig{
			VerifyMax:    10,
			VerifyWindow: time.Minute,
			AuthRPS:      100,
			AuthBurst:    100,
		},
		License: config.LicenseConfig{
			KeyPrefix:          "FORTE",
			KeySegments:        3,
			KeySegmentLength:   4,
			PasswordHashScheme: "bcrypt",
			BcryptCost:         bcrypt.MinCost,
		},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Audit:   config.AuditConfig{Enabled: true},
		I18n:    config.I18nConfig{DefaultLocale: "en"},
	}
}

type RouterTestSuite struct {
	suite.Suite
	store  *store.SQLiteStore
	router *Router
	issuer *services.KeyIssuer
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("en"))
}

func (suite *RouterTestSuite) SetupTest() {
	s, err := store.NewSQLiteStore(filepath.Join(suite.T().TempDir(), "licenses.db"))
	suite.Require().NoError(err)

	r, err := Initialize(s, testConfig())
	suite.Require().NoError(err)

	suite.store = s
	suite.router = r
	suite.issuer = services.NewKeyIssuer(s, services.DefaultKeyFormat())
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.router.Stop()
	suite.store.Close()
}

func (suite *RouterTestSuite) issueKey() string {
	issued, err := suite.issuer.Issue(context.Background(), services.IssueRequest{CreatedBy: "test"})
	suite.Require().NoError(err)
	return issued.Plaintext
}

func serve(r http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		if k == "RemoteAddr" {
			req.RemoteAddr = v
			continue
		}
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (suite *RouterTestSuite) post(path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	return serve(suite.router, http.MethodPost, path, body, nil)
}

func (suite *RouterTestSuite) TestRegisterLoginScenario() {
	key := suite.issueKey()

	w, response := suite.post("/register", gin.H{"key": key, "username": "alice", "password": "secret1", "hwid": "H1"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, response["success"])
	suite.Equal("Account registered successfully!", response["message"])
	suite.Contains(response, "expires_at")
	suite.Nil(response["expires_at"])

	stored, err := suite.store.FindOne(context.Background(), store.Filter{Username: "alice"})
	suite.Require().NoError(err)
	suite.True(stored.IsRegistered)

	w, response = suite.post("/login", gin.H{"username": "alice", "password": "secret1", "hwid": "H1"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, response["success"])
	suite.Equal("Login successful", response["message"])

	w, response = suite.post("/login", gin.H{"username": "alice", "password": "secret1", "hwid": "H2"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(false, response["success"])
	suite.Equal("HWID mismatch. Account bound to another machine.", response["error"])

	w, response = suite.post("/register", gin.H{"key": key, "username": "bob", "password": "secret1", "hwid": "H3"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(false, response["success"])
	suite.Equal("License key already registered to another account", response["error"])
}

func (suite *RouterTestSuite) TestLoginFailuresLookIdentical() {
	_, response := suite.post("/register", gin.H{"key": suite.issueKey(), "username": "alice", "password": "secret1", "hwid": "H1"})
	suite.Require().Equal(true, response["success"])

	unknownW, unknown := suite.post("/login", gin.H{"username": "nobody", "password": "secret1", "hwid": "H1"})
	wrongW, wrong := suite.post("/login", gin.H{"username": "alice", "password": "secret2", "hwid": "H1"})

	suite.Equal(http.StatusOK, unknownW.Code)
	suite.Equal(unknownW.Code, wrongW.Code)
	suite.Equal(unknown, wrong)
	suite.Equal("Invalid username or password", unknown["error"])
}

func (suite *RouterTestSuite) TestRegisterValidation() {
	w, response := suite.post("/register", gin.H{"key": suite.issueKey(), "username": "alice"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(false, response["success"])
	suite.Equal("All fields are required (key, username, password, hwid)", response["error"])

	w, response = suite.post("/register", gin.H{"key": "k", "username": "al", "password": "secret1", "hwid": "H1"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Username must be between 3 and 32 characters", response["error"])

	w, response = suite.post("/register", gin.H{"key": "k", "username": "alice", "password": "12345", "hwid": "H1"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Password must be at least 6 characters", response["error"])

	w, response = suite.post("/register", `{"key":`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(false, response["success"])

	w, response = suite.post("/register", gin.H{"key": "FORTE-NOPE-NOPE-NOPE", "username": "alice", "password": "secret1", "hwid": "H1"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Invalid license key", response["error"])
}

func (suite *RouterTestSuite) TestVerify() {
	key := suite.issueKey()

	w, response := suite.post("/verify", gin.H{"key": utils.HashString(key)})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, response["valid"])
	suite.Equal("License key is valid", response["message"])
	suite.NotContains(response, "success")

	w, response = suite.post("/api/verify-key", gin.H{"key": utils.HashString(key)})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, response["valid"])
}

func (suite *RouterTestSuite) TestVerifyUnknownKey() {
	w, response := suite.post("/verify", gin.H{"key": utils.HashString("FORTE-NOPE-NOPE-NOPE")})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(false, response["valid"])
	suite.Equal("License key not found", response["error"])
}

func (suite *RouterTestSuite) TestVerifyRequiresDigest() {
	key := suite.issueKey()

	for _, sent := range []string{key, strings.ToUpper(utils.HashString(key))} {
		w, response := suite.post("/verify", gin.H{"key": sent})
		suite.Equal(http.StatusOK, w.Code, sent)
		suite.Equal(false, response["valid"], sent)
		suite.Equal("License key not found", response["error"], sent)
	}
}

func (suite *RouterTestSuite) TestRegisterWithLongPassword() {
	password := strings.Repeat("p", 90)

	w, response := suite.post("/register", gin.H{"key": suite.issueKey(), "username": "alice", "password": password, "hwid": "H1"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, response["success"])

	w, response = suite.post("/login", gin.H{"username": "alice", "password": password, "hwid": "H1"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(true, response["success"])
}

func (suite *RouterTestSuite) TestVerifyRejectsMalformedKey() {
	w, response := suite.post("/verify", `{"key": 42}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(false, response["valid"])
	suite.Equal("License key is required", response["error"])

	w, response = suite.post("/verify", gin.H{})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("License key is required", response["error"])
}

func (suite *RouterTestSuite) TestVerifyRateLimit() {
	client := map[string]string{"RemoteAddr": "203.0.113.7:5000"}

	for i := 0; i < 10; i++ {
		w, _ := serve(suite.router, http.MethodPost, "/verify", gin.H{"key": "whatever"}, client)
		suite.Equal(http.StatusOK, w.Code, "call %d", i+1)
	}

	w, response := serve(suite.router, http.MethodPost, "/verify", gin.H{"key": "whatever"}, client)
	suite.Equal(http.StatusTooManyRequests, w.Code)
	suite.Equal(false, response["valid"])
	suite.Equal("Too many requests. Try again later.", response["error"])

	w, _ = serve(suite.router, http.MethodPost, "/api/verify-key", gin.H{"key": "whatever"}, client)
	suite.Equal(http.StatusTooManyRequests, w.Code)

	other := map[string]string{"RemoteAddr": "203.0.113.8:5000"}
	w, _ = serve(suite.router, http.MethodPost, "/verify", gin.H{"key": "whatever"}, other)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestMethodNotAllowed() {
	w, response := serve(suite.router, http.MethodGet, "/verify", nil, nil)
	suite.Equal(http.StatusMethodNotAllowed, w.Code)
	suite.Equal(false, response["valid"])
	suite.Equal("Method not allowed", response["error"])

	for _, path := range []string{"/register", "/login", "/api/register"} {
		w, response := serve(suite.router, http.MethodPut, path, nil, nil)
		suite.Equal(http.StatusMethodNotAllowed, w.Code, path)
		suite.Equal(false, response["success"], path)
	}
}

func (suite *RouterTestSuite) TestLocalizedMessages() {
	w, response := serve(suite.router, http.MethodPost, "/verify",
		gin.H{"key": utils.HashString("FORTE-NOPE-NOPE-NOPE")},
		map[string]string{"Accept-Language": "pt-BR,pt;q=0.9"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Chave de licença não encontrada", response["error"])
}

func (suite *RouterTestSuite) TestAuditEventsArePersisted() {
	_, response := suite.post("/api/register", gin.H{"key": suite.issueKey(), "username": "alice", "password": "secret1", "hwid": "H1"})
	suite.Require().Equal(true, response["success"])

	stored, err := suite.store.FindOne(context.Background(), store.Filter{Username: "alice"})
	suite.Require().NoError(err)

	suite.Eventually(func() bool {
		events, err := suite.store.ListEvents(context.Background(), stored.ID)
		if err != nil {
			return false
		}
		for _, e := range events {
			if e.Action == models.EventActionRegister && e.Outcome == models.EventOutcomeSuccess {
				return e.Username == "alice" && e.HWID == "H1"
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func (suite *RouterTestSuite) TestHealthAndMetrics() {
	w, response := serve(suite.router, http.MethodGet, "/health", nil, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("healthy", response["status"])

	suite.post("/verify", gin.H{"key": "whatever"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), "license_http_requests_total")
	suite.Contains(rec.Body.String(), `license_operations_total{action="verify",outcome="rejected",reason="not_found"}`)
}

func (suite *RouterTestSuite) TestStoreFailureIsInternalError() {
	suite.Require().NoError(suite.store.Close())

	w, response := suite.post("/verify", gin.H{"key": "whatever"})
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal(false, response["valid"])
	suite.Equal("Internal server error", response["error"])

	w, _ = serve(suite.router, http.MethodGet, "/health", nil, nil)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestUnconfiguredStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize("en"); err != nil {
		t.Fatal(err)
	}

	r, err := Initialize(nil, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	w, response := serve(r, http.MethodPost, "/verify", gin.H{"key": "whatever"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, response["valid"])

	w, response = serve(r, http.MethodPost, "/login", gin.H{"username": "alice", "password": "secret1", "hwid": "H1"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Service not configured", response["error"])

	w, response = serve(r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unconfigured", response["status"])
}
