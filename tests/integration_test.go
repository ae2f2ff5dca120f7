package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"shortlink/internal/config"
	"shortlink/internal/handler"
	"shortlink/internal/models"
	"shortlink/internal/repository"
	"shortlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type TestEnv struct {
	router         *gin.Engine
	linkService    service.LinkService
	dbContainer    testcontainers.Container
	redisContainer testcontainers.Container
	db             *repository.PostgresDB
	redis          *repository.RedisDB
}

// setupTestEnv starts PostgreSQL and Redis containers, applies migrations and
// wires the full service stack against them.
func setupTestEnv(t *testing.T) *TestEnv {
	ctx := t.Context()

	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortlink"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err)

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	dbCfg := config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortlink",
	}

	require.NoError(t, repository.RunMigrations(repository.DSN(dbCfg)))

	db, err := repository.NewPostgresDB(dbCfg)
	require.NoError(t, err)

	redisClient, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)

	logger := zap.NewNop()
	linkRepo := repository.NewLinkRepository(db)
	codeCache := repository.NewCodeCache(redisClient)
	linkService := service.NewLinkService(linkRepo, codeCache, logger, 5*time.Second)

	router := handler.NewRouter(linkService, "http://localhost:8080", logger)

	return &TestEnv{
		router:         router,
		linkService:    linkService,
		dbContainer:    dbContainer,
		redisContainer: redisContainer,
		db:             db,
		redis:          redisClient,
	}
}

func (env *TestEnv) teardown(t *testing.T) {
	env.db.Close()
	env.redis.Close()

	ctx := t.Context()
	if env.dbContainer != nil {
		env.dbContainer.Terminate(ctx)
	}
	if env.redisContainer != nil {
		env.redisContainer.Terminate(ctx)
	}
}

func (env *TestEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	return w
}

// TestIntegration_LinkLifecycle walks create, get, redirect, delete and the
// code reuse after deletion against real storage.
func TestIntegration_LinkLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	// Create with a custom code.
	w := env.do(t, http.MethodPost, "/api/links", map[string]string{
		"targetUrl":  "https://example.com/docs",
		"customCode": "airocks7",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created handler.CreateLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Link)
	assert.Equal(t, "airocks7", created.Link.ShortCode)
	assert.NotEmpty(t, created.Link.ID)
	assert.Nil(t, created.Link.LastClickedAt)

	// Redirect counts the click.
	w = env.do(t, http.MethodGet, "/airocks7", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/docs", w.Header().Get("Location"))

	w = env.do(t, http.MethodGet, "/api/links/airocks7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, int64(1), link.TotalClicks)
	assert.NotNil(t, link.LastClickedAt)

	// Delete, then everything 404s.
	w = env.do(t, http.MethodDelete, "/api/links/airocks7", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/links/airocks7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/airocks7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/api/links/airocks7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A deleted code is free for reuse.
	w = env.do(t, http.MethodPost, "/api/links", map[string]string{
		"targetUrl":  "https://example.com/reused",
		"customCode": "airocks7",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

// TestIntegration_CreateConflict checks the unique constraint surfaces as 409.
func TestIntegration_CreateConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	body := map[string]string{
		"targetUrl":  "https://example.com/first",
		"customCode": "dupCode1",
	}
	w := env.do(t, http.MethodPost, "/api/links", body)
	require.Equal(t, http.StatusCreated, w.Code)

	body["targetUrl"] = "https://example.com/second"
	w = env.do(t, http.MethodPost, "/api/links", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The original mapping survived.
	w = env.do(t, http.MethodGet, "/api/links/dupCode1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, "https://example.com/first", link.TargetURL)
}

// TestIntegration_ConcurrentRedirects is the lost-update check: N concurrent
// redirects on one code must land exactly N increments.
func TestIntegration_ConcurrentRedirects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	w := env.do(t, http.MethodPost, "/api/links", map[string]string{
		"targetUrl":  "https://example.com/burst",
		"customCode": "burst001",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/burst001", nil)
			env.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "https://example.com/burst", rec.Header().Get("Location"))
		}()
	}
	wg.Wait()

	w = env.do(t, http.MethodGet, "/api/links/burst001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.Equal(t, int64(n), link.TotalClicks)
}

// TestIntegration_ListOrdering checks createdAt descending and the empty
// array after deleting everything.
func TestIntegration_ListOrdering(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	codes := []string{"first01", "second01", "third01"}
	for _, code := range codes {
		w := env.do(t, http.MethodPost, "/api/links", map[string]string{
			"targetUrl":  fmt.Sprintf("https://example.com/%s", code),
			"customCode": code,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		// Distinct created_at values keep the ordering deterministic.
		time.Sleep(10 * time.Millisecond)
	}

	w := env.do(t, http.MethodGet, "/api/links", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var links []models.Link
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
	require.Len(t, links, 3)
	assert.Equal(t, "third01", links[0].ShortCode)
	assert.Equal(t, "second01", links[1].ShortCode)
	assert.Equal(t, "first01", links[2].ShortCode)

	for _, code := range codes {
		w := env.do(t, http.MethodDelete, "/api/links/"+code, nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/links", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

// TestIntegration_AutoGeneratedCodes checks generated codes satisfy the
// pattern and stay unique across a batch of creates.
func TestIntegration_AutoGeneratedCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	seen := make(map[string]bool)
	for i := 0; i < 30; i++ {
		w := env.do(t, http.MethodPost, "/api/links", map[string]string{
			"targetUrl": fmt.Sprintf("https://example.com/page/%d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp handler.CreateLinkResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Regexp(t, `^[A-Za-z0-9]{6,8}$`, resp.Link.ShortCode)
		assert.False(t, seen[resp.Link.ShortCode])
		seen[resp.Link.ShortCode] = true
	}
}
