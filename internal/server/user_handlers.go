package server

import (
	"cafedex/internal/forms"
	"cafedex/internal/middleware"
	"cafedex/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Profile handles GET /profile
func (s *Server) Profile(c *fiber.Ctx) error {
	user := s.currentUser(c)
	return s.render(c, "user/detail", fiber.Map{
		"User": user,
	})
}

// ProfileEditPage handles GET /profile/edit, pre-filling the form with the
// current values.
func (s *Server) ProfileEditPage(c *fiber.Ctx) error {
	user := s.currentUser(c)
	form := &forms.ProfileEditForm{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Description: user.Description,
		Email:       user.Email,
		ImageURL:    user.ImageURL,
	}
	return s.render(c, "user/edit", fiber.Map{
		"Form":   form,
		"Errors": forms.Errors{},
	})
}

// ProfileEdit handles POST /profile/edit
func (s *Server) ProfileEdit(c *fiber.Ctx) error {
	user := s.currentUser(c)

	var form forms.ProfileEditForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	errs := form.Validate()
	if !errs.Valid() {
		return s.render(c, "user/edit", fiber.Map{
			"Form":   &form,
			"Errors": errs,
		})
	}

	user.FirstName = form.FirstName
	user.LastName = form.LastName
	user.Description = form.Description
	user.Email = form.Email
	if form.ImageURL != "" {
		user.ImageURL = form.ImageURL
	} else {
		user.ImageURL = models.DefaultUserImageURL
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			errs.Add("email", "Email already in use")
			return s.render(c, "user/edit", fiber.Map{
				"Form":   &form,
				"Errors": errs,
			})
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	s.addFlash(c, "Profile edited.")
	return c.Redirect("/profile", fiber.StatusSeeOther)
}

// PromoteToAdmin handles POST /api/users/:id/promote-admin
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdminFlag(c, true)
}

// DemoteFromAdmin handles POST /api/users/:id/demote-admin
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setAdminFlag(c, false)
}

func (s *Server) setAdminFlag(c *fiber.Ctx, admin bool) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.userRepo.SetAdmin(c.Context(), id, admin); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound, err)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "admin flag changed",
		"target_user_id", id, "admin", admin)
	return c.JSON(fiber.Map{
		"user_id": id,
		"admin":   admin,
	})
}
