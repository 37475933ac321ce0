package server

import (
	"fmt"
	"net/url"
	"testing"

	"cafedex/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLikeStatus_Anonymous(t *testing.T) {
	_, app, _ := setupTestServer(t)

	resp := getPage(t, app, "/api/likes?cafe_id=1")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Not logged in")
}

func TestToggleLike_Anonymous(t *testing.T) {
	_, app, db := setupTestServer(t)
	cafe := createCafe(t, db, "Timeless")

	resp := postForm(t, app, fmt.Sprintf("/api/toggle_like/%d", cafe.ID), url.Values{})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Not logged in")
}

func TestToggleLike_EndToEnd(t *testing.T) {
	_, app, db := setupTestServer(t)
	cafe := createCafe(t, db, "Timeless")
	cookie := registerAndLogin(t, app, "alice")

	path := fmt.Sprintf("/api/toggle_like/%d", cafe.ID)

	// First toggle likes.
	resp := postForm(t, app, path, url.Values{}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), fmt.Sprintf(`"liked":%d`, cafe.ID))

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	status := getPage(t, app, fmt.Sprintf("/api/likes?cafe_id=%d", cafe.ID), cookie)
	require.Equal(t, fiber.StatusOK, status.StatusCode)
	assert.Contains(t, readBody(t, status), `"likes":true`)

	// Second toggle returns to the original state.
	resp = postForm(t, app, path, url.Values{}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), fmt.Sprintf(`"unliked":%d`, cafe.ID))

	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	status = getPage(t, app, fmt.Sprintf("/api/likes?cafe_id=%d", cafe.ID), cookie)
	require.Equal(t, fiber.StatusOK, status.StatusCode)
	assert.Contains(t, readBody(t, status), `"likes":false`)
}

func TestToggleLike_UnknownCafe(t *testing.T) {
	_, app, _ := setupTestServer(t)
	cookie := registerAndLogin(t, app, "alice")

	resp := postForm(t, app, "/api/toggle_like/9999", url.Values{}, cookie)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestToggleLike_PairsAreIndependent(t *testing.T) {
	_, app, db := setupTestServer(t)
	first := createCafe(t, db, "First")
	second := createCafe(t, db, "Second")
	cookie := registerAndLogin(t, app, "alice")

	resp := postForm(t, app, fmt.Sprintf("/api/toggle_like/%d", first.ID), url.Values{}, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_ = readBody(t, resp)

	// Liking one cafe does not affect the other pair's state.
	status := getPage(t, app, fmt.Sprintf("/api/likes?cafe_id=%d", second.ID), cookie)
	require.Equal(t, fiber.StatusOK, status.StatusCode)
	assert.Contains(t, readBody(t, status), `"likes":false`)
}

func TestGetLikeStatus_InvalidCafeID(t *testing.T) {
	_, app, _ := setupTestServer(t)
	cookie := registerAndLogin(t, app, "alice")

	resp := getPage(t, app, "/api/likes?cafe_id=abc", cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = getPage(t, app, "/api/likes", cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
