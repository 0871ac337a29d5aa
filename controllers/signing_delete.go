package controller

import (
	"github.com/gofiber/fiber/v2"

	"signhub/models"
)

// RemoveSignRequests handles DELETE /api/v1/sign-requests: bulk
// removal of sign requests by id, limited to documents the caller
// owns.
func (sc *SigningController) RemoveSignRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return sc.removeSignRequests(c, userScope(user))
}

// RemoveTeamSignRequests is the team-scoped variant.
func (sc *SigningController) RemoveTeamSignRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, err := sc.resolveTeamScope(c, user)
	if err != nil {
		return scopeError(c, err)
	}
	return sc.removeSignRequests(c, teamScope(team))
}

func (sc *SigningController) removeSignRequests(c *fiber.Ctx, scope ownerScope) error {
	var input struct {
		SignRequestIDs []uint `json:"sign_request_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid JSON format for sign request IDs.",
		})
	}
	if len(input.SignRequestIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "sign_request_ids is required.",
		})
	}

	// Scope the deletion through the documents join so callers cannot
	// remove requests under documents they don't own.
	var ids []uint
	err := scope.documentFilter(
		sc.DB.Model(&models.SignRequest{}).
			Joins("JOIN documents ON documents.id = sign_requests.document_id").
			Where("sign_requests.id IN ?", input.SignRequestIDs),
	).Pluck("sign_requests.id", &ids).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	if len(ids) > 0 {
		if err := sc.DB.Delete(&models.SignRequest{}, ids).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error.",
			})
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}
