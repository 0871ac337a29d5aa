package controller

import (
	"encoding/json"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"

	"signhub/models"
	"signhub/utils"
)

// CreateSignRequests handles POST /api/v1/sign-requests: multipart
// upload of files plus a JSON-encoded recipient email list. One
// document is created per file, one sign request per (document,
// recipient) pair, and an invite email goes out for each request.
func (sc *SigningController) CreateSignRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return sc.createSignRequests(c, userScope(user))
}

// CreateTeamSignRequests is the team-scoped variant: documents are
// created under the team at /api/v1/teams/:teamID/sign-requests.
func (sc *SigningController) CreateTeamSignRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, err := sc.resolveTeamScope(c, user)
	if err != nil {
		return scopeError(c, err)
	}
	return sc.createSignRequests(c, teamScope(team))
}

func (sc *SigningController) createSignRequests(c *fiber.Ctx, scope ownerScope) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	var recipientEmails []string
	if err := json.Unmarshal([]byte(c.FormValue("recipient_emails")), &recipientEmails); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recipient_emails must be a JSON array of emails",
		})
	}
	if len(recipientEmails) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one recipient email is required",
		})
	}
	// Exact-match semantics: emails are neither trimmed nor
	// case-normalized before lookup.
	for _, email := range recipientEmails {
		if err := checkmail.ValidateFormat(email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid recipient email: " + email,
			})
		}
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one file is required",
		})
	}

	message := c.FormValue("message")

	// Recipients are resolved on the root DB handle, outside the batch
	// transaction: they are shared rows and safe to leave behind when
	// the batch rolls back.
	recipients := make([]models.Recipient, 0, len(recipientEmails))
	for _, email := range recipientEmails {
		var recipient models.Recipient
		if err := sc.DB.Where(models.Recipient{Email: email}).FirstOrCreate(&recipient).Error; err != nil {
			utils.LogError("recipient_resolve", err, map[string]interface{}{"email": email})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error.",
			})
		}
		recipients = append(recipients, recipient)
	}

	tx := sc.DB.Begin()

	// Uploaded blobs live outside the transaction; on rollback they are
	// removed best-effort.
	var storedPaths []string
	cleanupBlobs := func() {
		for _, p := range storedPaths {
			if err := sc.Store.Remove(p); err != nil {
				sc.Logger.WithField("path", p).Warn("failed to clean up stored file")
			}
		}
	}

	var created []models.SignRequest
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			tx.Rollback()
			cleanupBlobs()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}
		path, err := sc.Store.Save("uploaded_documents", utils.StoredFileName(fileHeader.Filename), src)
		src.Close()
		if err != nil {
			tx.Rollback()
			cleanupBlobs()
			utils.LogError("document_store", err, map[string]interface{}{"file": fileHeader.Filename})
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store uploaded file",
			})
		}
		storedPaths = append(storedPaths, path)

		document := models.Document{
			Name:     fileHeader.Filename,
			FilePath: path,
			Message:  message,
		}
		scope.apply(&document)

		if err := tx.Create(&document).Error; err != nil {
			tx.Rollback()
			cleanupBlobs()
			utils.LogError("document_create", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create document",
			})
		}

		for _, recipient := range recipients {
			signRequest := models.SignRequest{
				DocumentID:  document.ID,
				RecipientID: recipient.ID,
			}
			if err := tx.Create(&signRequest).Error; err != nil {
				tx.Rollback()
				cleanupBlobs()
				utils.LogError("sign_request_create", err, nil)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to create sign request",
				})
			}

			link := scope.signLink(sc.AppURL, signRequest.ID)
			if err := sc.Mailer.SendSignRequestInvite(recipient.Email, link, message); err != nil {
				utils.LogError("sign_request_dispatch", err, map[string]interface{}{
					"recipient": recipient.Email,
				})
				if sc.StrictDispatch {
					// One failed email discards the whole batch,
					// including requests whose emails already went out.
					tx.Rollback()
					cleanupBlobs()
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"error": "Failed to send signing request email.",
					})
				}
			} else {
				sc.Logger.WithField("recipient", recipient.Email).Info("sign request email sent")
			}

			created = append(created, signRequest)
		}
	}

	if err := tx.Commit().Error; err != nil {
		cleanupBlobs()
		utils.LogError("sign_request_commit", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Signing requests sent successfully!",
		"sign_requests": created,
	})
}
