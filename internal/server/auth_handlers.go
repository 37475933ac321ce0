package server

import (
	"fmt"
	"strconv"
	"time"

	"cafedex/internal/forms"
	"cafedex/internal/middleware"
	"cafedex/internal/models"
	"cafedex/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignupPage handles GET /signup
func (s *Server) SignupPage(c *fiber.Ctx) error {
	if s.currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return s.render(c, "auth/signup", fiber.Map{
		"Form":   &forms.SignupForm{},
		"Errors": forms.Errors{},
	})
}

// Signup handles POST /signup: validates the registration form, creates the
// user with a bcrypt-hashed password, and logs the new user in.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form forms.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	errs := form.Validate()
	if !errs.Valid() {
		return s.render(c, "auth/signup", fiber.Map{
			"Form":   &form,
			"Errors": errs,
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	imageURL := form.ImageURL
	if imageURL == "" {
		imageURL = models.DefaultUserImageURL
	}

	user := &models.User{
		Username:    form.Username,
		Email:       form.Email,
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Description: form.Description,
		ImageURL:    imageURL,
		Password:    string(hashedPassword),
	}

	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		if models.IsCode(createErr, models.CodeConflict) {
			// Deliberately vague about which field collided.
			s.addFlash(c, "Username already taken")
			return s.render(c, "auth/signup", fiber.Map{
				"Form":   &form,
				"Errors": errs,
			})
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, createErr)
	}

	observability.SignupsTotal.Inc()
	middleware.Logger.InfoContext(c.UserContext(), "user registered",
		"user_id", user.ID, "username", user.Username)

	if err := s.loginSession(c, user.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.addFlash(c, "You are signed up and logged in.")
	return c.Redirect("/", fiber.StatusSeeOther)
}

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if s.currentUser(c) != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return s.render(c, "auth/login", fiber.Map{
		"Form":   &forms.LoginForm{},
		"Errors": forms.Errors{},
	})
}

// Login handles POST /login. Unknown username and wrong password are
// indistinguishable to the caller.
func (s *Server) Login(c *fiber.Ctx) error {
	var form forms.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	errs := form.Validate()
	if !errs.Valid() {
		return s.render(c, "auth/login", fiber.Map{
			"Form":   &form,
			"Errors": errs,
		})
	}

	user, err := s.authenticate(c, form.Username, form.Password)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		s.addFlash(c, "Invalid credentials.")
		return s.render(c, "auth/login", fiber.Map{
			"Form":   &form,
			"Errors": errs,
		})
	}

	if err := s.loginSession(c, user.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	observability.LoginsTotal.WithLabelValues("success").Inc()
	s.addFlash(c, fmt.Sprintf("Hello, %s!", user.Username))
	return c.Redirect("/", fiber.StatusSeeOther)
}

// authenticate looks up the user by username and verifies the password.
// Returns (nil, nil) on no match, whatever the reason.
func (s *Server) authenticate(c *fiber.Ctx, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(c.Context(), username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a comparison anyway so the two failure modes take
		// similar time.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, nil
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, nil
	}
	return user, nil
}

// dummyHash is a bcrypt hash of an arbitrary string, compared against when
// the username does not exist.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("cafedex-timing-pad"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()

// Logout handles POST /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.logoutSession(c); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.addFlash(c, "You have successfully logged out.")
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// IssueAPIToken handles POST /api/token: exchanges username/password
// credentials for a signed JWT usable as a Bearer token on the JSON API.
func (s *Server) IssueAPIToken(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authenticate(c, req.Username, req.Password)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials."))
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      "cafedex-api",
		"aud":      "cafedex-client",
		"exp":      now.Add(time.Hour * 24 * 7).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
