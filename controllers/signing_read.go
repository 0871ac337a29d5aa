package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"signhub/models"
)

// signRequestResponse decorates a sign request with resolved store
// URLs.
type signRequestResponse struct {
	models.SignRequest
	FileURL     string `json:"file_url"`
	AuditLogURL string `json:"audit_log_url,omitempty"`
}

func (sc *SigningController) toResponse(sr models.SignRequest) signRequestResponse {
	resp := signRequestResponse{
		SignRequest: sr,
		FileURL:     sc.Store.URLFor(sr.Document.FilePath),
	}
	if sr.AuditLogPath != nil {
		resp.AuditLogURL = sc.Store.URLFor(*sr.AuditLogPath)
	}
	return resp
}

// GetSignRequest returns one sign request by id. Recipients reach this
// through the emailed deep link, so it is not behind authentication.
func (sc *SigningController) GetSignRequest(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sign request id",
		})
	}

	var signRequest models.SignRequest
	err = sc.DB.
		Preload("Document").
		Preload("Recipient").
		First(&signRequest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Sign request not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.JSON(sc.toResponse(signRequest))
}

// ListSignRequests returns the sign requests under documents owned by
// the caller.
func (sc *SigningController) ListSignRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return sc.listSignRequests(c, userScope(user))
}

// ListTeamSignRequests is the team-scoped variant.
func (sc *SigningController) ListTeamSignRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, err := sc.resolveTeamScope(c, user)
	if err != nil {
		return scopeError(c, err)
	}
	return sc.listSignRequests(c, teamScope(team))
}

func (sc *SigningController) listSignRequests(c *fiber.Ctx, scope ownerScope) error {
	var signRequests []models.SignRequest
	err := scope.documentFilter(
		sc.DB.
			Joins("JOIN documents ON documents.id = sign_requests.document_id").
			Preload("Document").
			Preload("Recipient"),
	).Order("sign_requests.id").Find(&signRequests).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	responses := make([]signRequestResponse, 0, len(signRequests))
	for _, sr := range signRequests {
		responses = append(responses, sc.toResponse(sr))
	}
	return c.JSON(fiber.Map{"sign_requests": responses})
}

// ListAllTeamDocuments returns documents across every team the caller
// owns or belongs to.
func (sc *SigningController) ListAllTeamDocuments(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	memberTeamIDs := sc.DB.Model(&models.TeamMembership{}).
		Select("team_id").
		Where("user_id = ?", user.ID)

	var documents []models.Document
	err := sc.DB.
		Preload("SignRequests").
		Preload("SignRequests.Recipient").
		Where("team_id IN (?) OR team_id IN (?)",
			memberTeamIDs,
			sc.DB.Model(&models.Team{}).Select("id").Where("owner_id = ?", user.ID),
		).
		Order("documents.id").
		Find(&documents).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.JSON(fiber.Map{"documents": documents})
}
