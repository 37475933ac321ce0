package server

import (
	"context"
	"fmt"
	"time"

	"cafedex/internal/forms"
	"cafedex/internal/middleware"
	"cafedex/internal/models"
	"cafedex/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// Home handles GET /
func (s *Server) Home(c *fiber.Ctx) error {
	return s.render(c, "home", fiber.Map{})
}

// CafeList handles GET /cafes, ordered by name ascending.
func (s *Server) CafeList(c *fiber.Ctx) error {
	cafes, err := s.cafeRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return s.render(c, "cafe/list", fiber.Map{
		"Cafes": cafes,
	})
}

// CafeDetail handles GET /cafes/:id
func (s *Server) CafeDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	span, ctx := observability.NewSpan(c.UserContext(), "cafe.detail")
	span.AddAttributes(attribute.Int("cafe.id", int(id)))
	defer span.End()

	cafe, err := s.cafeRepo.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return s.NotFound(c)
		}
		span.SetError(err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	likeCount, err := s.cafeRepo.CountLikes(ctx, id)
	if err != nil {
		span.SetError(err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	liked := false
	if user := s.currentUser(c); user != nil {
		liked, err = s.likeRepo.HasLike(ctx, user.ID, id)
		if err != nil {
			span.SetError(err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
	}

	return s.render(c, "cafe/detail", fiber.Map{
		"Cafe":      cafe,
		"LikeCount": likeCount,
		"Liked":     liked,
		"MapURL":    fmt.Sprintf("/static/maps/%d.jpg", cafe.ID),
		"HasMap":    s.maps.Enabled(),
	})
}

// CafeAddPage handles GET /cafes/add
func (s *Server) CafeAddPage(c *fiber.Ctx) error {
	cities, err := s.cityRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return s.render(c, "cafe/add", fiber.Map{
		"Form":   &forms.CafeForm{},
		"Errors": forms.Errors{},
		"Cities": cities,
	})
}

// CafeAdd handles POST /cafes/add
func (s *Server) CafeAdd(c *fiber.Ctx) error {
	var form forms.CafeForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	codes, err := s.cityRepo.Codes(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	errs := form.Validate(codes)
	if !errs.Valid() {
		cities, listErr := s.cityRepo.List(c.Context())
		if listErr != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, listErr)
		}
		return s.render(c, "cafe/add", fiber.Map{
			"Form":   &form,
			"Errors": errs,
			"Cities": cities,
		})
	}

	cafe := &models.Cafe{
		Name:        form.Name,
		Description: form.Description,
		URL:         form.URL,
		Address:     form.Address,
		CityCode:    form.CityCode,
		ImageURL:    form.ImageURL,
	}
	if err := s.cafeRepo.Create(c.Context(), cafe); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	observability.CafeWritesTotal.WithLabelValues("create").Inc()
	s.saveMapImage(cafe)

	s.addFlash(c, fmt.Sprintf("%s added!", cafe.Name))
	return c.Redirect(fmt.Sprintf("/cafes/%d", cafe.ID), fiber.StatusSeeOther)
}

// CafeEditPage handles GET /cafes/:id/edit, pre-filled from the existing row.
func (s *Server) CafeEditPage(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	cafe, err := s.cafeRepo.GetByID(c.Context(), id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return s.NotFound(c)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	cities, err := s.cityRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	form := &forms.CafeForm{
		Name:        cafe.Name,
		Description: cafe.Description,
		URL:         cafe.URL,
		Address:     cafe.Address,
		CityCode:    cafe.CityCode,
		ImageURL:    cafe.ImageURL,
	}
	return s.render(c, "cafe/edit", fiber.Map{
		"Form":   form,
		"Errors": forms.Errors{},
		"Cities": cities,
		"Cafe":   cafe,
	})
}

// CafeEdit handles POST /cafes/:id/edit
func (s *Server) CafeEdit(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	cafe, err := s.cafeRepo.GetByID(c.Context(), id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return s.NotFound(c)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	var form forms.CafeForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	codes, err := s.cityRepo.Codes(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	errs := form.Validate(codes)
	if !errs.Valid() {
		cities, listErr := s.cityRepo.List(c.Context())
		if listErr != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, listErr)
		}
		return s.render(c, "cafe/edit", fiber.Map{
			"Form":   &form,
			"Errors": errs,
			"Cities": cities,
			"Cafe":   cafe,
		})
	}

	cafe.Name = form.Name
	cafe.Description = form.Description
	cafe.URL = form.URL
	cafe.Address = form.Address
	cafe.CityCode = form.CityCode
	if form.ImageURL != "" {
		cafe.ImageURL = form.ImageURL
	} else {
		cafe.ImageURL = models.DefaultCafeImageURL
	}

	if err := s.cafeRepo.Update(c.Context(), cafe); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	observability.CafeWritesTotal.WithLabelValues("update").Inc()
	s.saveMapImage(cafe)

	s.addFlash(c, fmt.Sprintf("%s edited", cafe.Name))
	return c.Redirect(fmt.Sprintf("/cafes/%d", cafe.ID), fiber.StatusSeeOther)
}

// saveMapImage fetches a static map of the cafe's address in the background.
// Map images are decoration; failures never affect the write path.
func (s *Server) saveMapImage(cafe *models.Cafe) {
	if !s.maps.Enabled() {
		return
	}

	id := cafe.ID
	address := cafe.Address
	cityCode := cafe.CityCode

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		city, err := s.cityRepo.Get(ctx, cityCode)
		if err != nil {
			middleware.Logger.Warn("map image skipped, city lookup failed",
				"cafe_id", id, "error", err)
			return
		}

		if err := s.maps.SaveMap(ctx, id, address, city.Name, city.State); err != nil {
			middleware.Logger.Warn("map image fetch failed", "cafe_id", id, "error", err)
		}
	}()
}
