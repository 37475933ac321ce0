package server

import (
	"cafedex/internal/middleware"
	"cafedex/internal/models"
	"cafedex/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// GetLikeStatus handles GET /api/likes?cafe_id=<id>
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	user := s.currentUser(c)
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Not logged in"))
	}

	cafeID := c.QueryInt("cafe_id")
	if cafeID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid cafe_id"))
	}

	likes, err := s.likeRepo.HasLike(c.Context(), user.ID, uint(cafeID))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"likes": likes})
}

// ToggleLike handles POST /api/toggle_like/:id. A (user, cafe) pair is
// either liked or not; each call flips the state and reports which way it
// went. Delete-first keeps concurrent toggles from the same user safe: the
// composite primary key absorbs the losing insert as "already liked".
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	user := s.currentUser(c)
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Not logged in"))
	}

	cafeID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	span, ctx := observability.NewSpan(c.UserContext(), "like.toggle")
	span.AddAttributes(
		attribute.Int("user.id", int(user.ID)),
		attribute.Int("cafe.id", int(cafeID)),
	)
	defer span.End()

	// The cafe must exist; an unknown id is a 404, not a dangling like row.
	if _, getErr := s.cafeRepo.GetByID(ctx, cafeID); getErr != nil {
		if models.IsCode(getErr, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound, getErr)
		}
		span.SetError(getErr)
		return models.RespondWithError(c, fiber.StatusInternalServerError, getErr)
	}

	removed, err := s.likeRepo.RemoveLike(ctx, user.ID, cafeID)
	if err != nil {
		span.SetError(err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if removed {
		observability.LikeTogglesTotal.WithLabelValues("unliked").Inc()
		return c.JSON(fiber.Map{"unliked": cafeID})
	}

	alreadyLiked, err := s.likeRepo.AddLike(ctx, user.ID, cafeID)
	if err != nil {
		span.SetError(err)
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if alreadyLiked {
		middleware.Logger.InfoContext(c.UserContext(), "concurrent like toggle absorbed",
			"cafe_id", cafeID)
	}

	observability.LikeTogglesTotal.WithLabelValues("liked").Inc()
	return c.JSON(fiber.Map{"liked": cafeID})
}
