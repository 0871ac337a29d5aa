package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"signhub/models"
	"signhub/utils"
)

// SubmitSignature handles PATCH /sign-documents/:id and the team
// variant. A request moves from pending to signed exactly once: the
// signature fields, the is_signed flip and the generated document log
// reference are persisted in a single compare-and-set write, so a
// concurrent second submission loses and is told the document is
// already signed.
func (sc *SigningController) SubmitSignature(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sign request id",
		})
	}

	var input struct {
		Signature string `json:"signature"`
		IsSigned  *bool  `json:"is_signed"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.Signature == "" || input.IsSigned == nil || !*input.IsSigned {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Signature and is_signed fields are required.",
		})
	}

	var signRequest models.SignRequest
	err = sc.DB.
		Preload("Document").
		Preload("Document.Owner").
		Preload("Document.Team").
		Preload("Recipient").
		First(&signRequest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Sign request not found",
			})
		}
		utils.LogError("sign_request_load", err, map[string]interface{}{"id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	// Signed is terminal.
	if signRequest.IsSigned {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Document has already been signed",
		})
	}

	signRequest.SignatureImageURL = &input.Signature

	// The log binds the file bytes as they exist right now; it is
	// published to the store before the state flip commits, under a
	// name unique to this attempt. If the flip loses, only this
	// attempt's file is removed, never the one the winning row
	// references.
	logPath, err := utils.GenerateAuditLog(&signRequest, sc.Store)
	if err != nil {
		utils.LogError("audit_log_generate", err, map[string]interface{}{"id": signRequest.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	res := sc.DB.Model(&models.SignRequest{}).
		Where("id = ? AND is_signed = ?", signRequest.ID, false).
		Updates(map[string]interface{}{
			"is_signed":           true,
			"signature_image_url": input.Signature,
			"audit_log_path":      logPath,
		})
	if res.Error != nil {
		if err := sc.Store.Remove(logPath); err != nil {
			sc.Logger.WithField("path", logPath).Warn("failed to remove orphaned document log")
		}
		utils.LogError("sign_request_update", res.Error, map[string]interface{}{"id": signRequest.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}
	if res.RowsAffected == 0 {
		// Lost the race to another submission.
		if err := sc.Store.Remove(logPath); err != nil {
			sc.Logger.WithField("path", logPath).Warn("failed to remove orphaned document log")
		}
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Document has already been signed",
		})
	}

	// Confirmations are best-effort: the signature is committed and a
	// failed email must not undo it.
	sc.sendConfirmations(&signRequest)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"detail": "Document signed successfully.",
	})
}

func (sc *SigningController) sendConfirmations(signRequest *models.SignRequest) {
	if signRequest.Document.TeamID != nil {
		logLink := fmt.Sprintf("%s/team/download-document-log-file/%d/%d",
			sc.AppURL, *signRequest.Document.TeamID, signRequest.ID)
		if err := sc.Mailer.SendSignConfirmation(signRequest.Recipient.Email, sc.AppURL, logLink); err != nil {
			utils.LogError("confirmation_dispatch", err, map[string]interface{}{
				"recipient": signRequest.Recipient.Email,
			})
		}
		return
	}

	logLink := fmt.Sprintf("%s/download-document-log-file/%d", sc.AppURL, signRequest.ID)
	if signRequest.Document.Owner != nil {
		if err := sc.Mailer.SendSignConfirmation(signRequest.Document.Owner.Email, sc.AppURL, logLink); err != nil {
			utils.LogError("confirmation_dispatch", err, map[string]interface{}{
				"recipient": signRequest.Document.Owner.Email,
			})
		}
	}
	if err := sc.Mailer.SendSignConfirmation(signRequest.Recipient.Email, sc.AppURL, logLink); err != nil {
		utils.LogError("confirmation_dispatch", err, map[string]interface{}{
			"recipient": signRequest.Recipient.Email,
		})
	}
}
