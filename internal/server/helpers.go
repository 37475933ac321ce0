package server

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"cafedex/internal/middleware"
	"cafedex/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// csrfContextKey is where the csrf middleware stores the request token
// (set via csrf.Config.ContextKey in server.go).
const csrfContextKey = "csrf_token"

// Session keys. sessionUserKey matches what the browser flows store on
// login; flashSessionKey holds one-time notifications as a JSON array.
const (
	sessionUserKey  = "curr_user"
	flashSessionKey = "flashes"
)

// localsUserKey caches the resolved *models.User for the request.
const localsUserKey = "currentUser"

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts the "id" route parameter as a positive uint.
// On failure it writes a response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		if isAPIPath(c.Path()) {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid ID"))
		} else {
			_ = s.NotFound(c)
		}
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// LoadCurrentUser resolves the request identity once per request: the
// session identity first, then a Bearer API token. Anonymous requests pass
// through with no user set.
func (s *Server) LoadCurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := s.resolveSessionUser(c)
		if user == nil {
			user = s.resolveTokenUser(c)
		}
		if user != nil {
			c.Locals(localsUserKey, user)
			c.Locals("userID", user.ID)
			ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}

// currentUser returns the identity resolved by LoadCurrentUser, or nil.
func (s *Server) currentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(localsUserKey).(*models.User); ok {
		return user
	}
	return nil
}

func (s *Server) resolveSessionUser(c *fiber.Ctx) *models.User {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil
	}

	var userID uint
	switch v := sess.Get(sessionUserKey).(type) {
	case uint:
		userID = v
	case int:
		userID = uint(v)
	case int64:
		userID = uint(v)
	case float64:
		userID = uint(v)
	default:
		return nil
	}
	if userID == 0 {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		// A stale session pointing at a removed user means anonymous.
		return nil
	}
	return user
}

func (s *Server) resolveTokenUser(c *fiber.Ctx) *models.User {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "cafedex-api" {
		return nil
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "cafedex-client" {
		return nil
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), uint(userID))
	if err != nil {
		return nil
	}
	return user
}

// LoginRequired rejects anonymous requests: API paths get a 401 JSON error,
// pages get the unauthorized flash and a redirect to the login form.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.currentUser(c) != nil {
			return c.Next()
		}
		if isAPIPath(c.Path()) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Not logged in"))
		}
		s.addFlash(c, "Access unauthorized.")
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
}

// AdminRequired rejects non-admin identities. Must run after LoginRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := s.currentUser(c)
		if user != nil && user.Admin {
			return c.Next()
		}
		if isAPIPath(c.Path()) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		s.addFlash(c, "Access unauthorized.")
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// loginSession binds the user to the session.
func (s *Server) loginSession(c *fiber.Ctx, userID uint) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	return sess.Save()
}

// logoutSession clears the session identity but keeps the session itself,
// so queued flashes survive the redirect.
func (s *Server) logoutSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Delete(sessionUserKey)
	return sess.Save()
}

// addFlash queues a one-time notification for the next rendered page.
func (s *Server) addFlash(c *fiber.Ctx, msg string) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session unavailable for flash", "error", err)
		return
	}

	flashes := decodeFlashes(sess.Get(flashSessionKey))
	flashes = append(flashes, msg)

	encoded, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	sess.Set(flashSessionKey, string(encoded))
	if err := sess.Save(); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to save flash", "error", err)
	}
}

// popFlashes drains and returns the queued notifications.
func (s *Server) popFlashes(c *fiber.Ctx) []string {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil
	}

	flashes := decodeFlashes(sess.Get(flashSessionKey))
	if len(flashes) == 0 {
		return nil
	}

	sess.Delete(flashSessionKey)
	if err := sess.Save(); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "failed to clear flashes", "error", err)
	}
	return flashes
}

func decodeFlashes(raw any) []string {
	encoded, ok := raw.(string)
	if !ok || encoded == "" {
		return nil
	}
	var flashes []string
	if err := json.Unmarshal([]byte(encoded), &flashes); err != nil {
		return nil
	}
	return flashes
}

// render draws a page inside the main layout with the ambient bindings every
// template expects: the CSRF token, pending flashes, and the current user.
func (s *Server) render(c *fiber.Ctx, name string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	token, _ := c.Locals(csrfContextKey).(string)
	bind["CSRFToken"] = token
	bind["Flashes"] = s.popFlashes(c)
	if _, ok := bind["CurrentUser"]; !ok {
		bind["CurrentUser"] = s.currentUser(c)
	}
	return c.Render(name, bind, "layouts/main")
}
