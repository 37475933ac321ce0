package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"cafedex/internal/config"
	"cafedex/internal/models"
	"cafedex/internal/seed"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestServer builds a Server over an in-memory SQLite database with the
// city reference data seeded. The "test" profile disables CSRF checks and
// rate limiting so handler behavior can be exercised directly.
func setupTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.City{}, &models.User{}, &models.Cafe{}, &models.Like{}))
	require.NoError(t, seed.SeedCities(db))

	cfg := &config.Config{
		Port:      "0",
		JWTSecret: "test-secret",
		Env:       "test",
		StaticDir: t.TempDir(),
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	return srv, srv.BuildApp(), db
}

func getPage(t *testing.T, app *fiber.App, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getPageWithHeaders(t *testing.T, app *fiber.App, path string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func postJSON(t *testing.T, app *fiber.App, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// sessionCookie extracts the session cookie from a response.
func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookieName {
			return ck
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func signupForm(username string) url.Values {
	return url.Values{
		"username":    {username},
		"first_name":  {"Alice"},
		"last_name":   {"Nguyen"},
		"description": {"espresso enjoyer"},
		"email":       {username + "@example.com"},
		"password":    {"secret1"},
	}
}

// registerAndLogin signs a user up and returns the authenticated session
// cookie. Signup logs the user in directly.
func registerAndLogin(t *testing.T, app *fiber.App, username string) *http.Cookie {
	t.Helper()
	resp := postForm(t, app, "/signup", signupForm(username))
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	return sessionCookie(t, resp)
}

func makeAdmin(t *testing.T, db *gorm.DB, username string) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", username).
		Update("admin", true).Error)
}

func createCafe(t *testing.T, db *gorm.DB, name string) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{
		Name:     name,
		Address:  "123 Brew St",
		CityCode: "oak",
		ImageURL: models.DefaultCafeImageURL,
	}
	require.NoError(t, db.Create(cafe).Error)
	return cafe
}
