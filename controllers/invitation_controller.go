package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signhub/models"
	"signhub/utils"
)

// InvitationController issues and redeems team-join invitations.
// An invitation is usable exactly once, within 7 days of issuance.
type InvitationController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Mailer utils.Mailer
	AppURL string
}

func NewInvitationController(db *gorm.DB, logger *logrus.Logger, mailer utils.Mailer, appURL string) *InvitationController {
	return &InvitationController{DB: db, Logger: logger, Mailer: mailer, AppURL: appURL}
}

// InviteUser handles POST /api/v1/teams/:teamID/invitations. Only the
// team owner can invite. The invitation row and the invite email are
// one unit: if the email fails the row is rolled back.
func (ic *InvitationController) InviteUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := c.ParamsInt("teamID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team id",
		})
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	var team models.Team
	if err := ic.DB.Where("id = ? AND owner_id = ?", teamID, user.ID).First(&team).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team ID or user is not the owner of the team",
		})
	}

	// Reject invites for emails that already belong to the team.
	var existing models.TeamMembership
	err = ic.DB.
		Joins("JOIN users ON users.id = team_memberships.user_id").
		Where("team_memberships.team_id = ? AND users.email = ?", team.ID, input.Email).
		First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already a member of the team",
		})
	}

	token, err := utils.GenerateInviteToken()
	if err != nil {
		utils.LogError("invite_token", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	invitation := models.Invitation{
		TeamID:         team.ID,
		RecipientEmail: input.Email,
		Token:          token,
	}

	tx := ic.DB.Begin()
	if err := tx.Create(&invitation).Error; err != nil {
		tx.Rollback()
		utils.LogError("invitation_create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	inviteLink := fmt.Sprintf("%s/accept-invitation/?token=%s&team_id=%d", ic.AppURL, token, team.ID)
	if err := ic.Mailer.SendTeamInvitation(input.Email, inviteLink); err != nil {
		tx.Rollback()
		utils.LogError("invitation_dispatch", err, map[string]interface{}{"recipient": input.Email})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send invitation email.",
		})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.JSON(fiber.Map{"message": "Invitation sent successfully"})
}

// AcceptInvitation handles POST /api/v1/invitations/accept. The token
// must be unredeemed, inside its 7-day window and presented by the
// account whose email it was issued to; on success the caller gains a
// member-role membership and the invitation is permanently marked
// accepted, in one transaction.
func (ic *InvitationController) AcceptInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&input); err != nil || input.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
		})
	}

	var invitation models.Invitation
	if err := ic.DB.Where("token = ?", input.Token).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Invalid invitation token",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	if invitation.Accepted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Invitation has already been accepted",
		})
	}
	// Only the invited email's account can redeem the token.
	if invitation.RecipientEmail != user.Email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invitation was issued to a different email address",
		})
	}
	if invitation.Expired(time.Now()) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Invitation has expired",
		})
	}

	var membership models.TeamMembership
	err := ic.DB.Where("team_id = ? AND user_id = ?", invitation.TeamID, user.ID).First(&membership).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already a member of the team",
		})
	}

	tx := ic.DB.Begin()
	newMembership := models.TeamMembership{
		TeamID: invitation.TeamID,
		UserID: user.ID,
		Role:   models.RoleMember,
	}
	if err := tx.Create(&newMembership).Error; err != nil {
		tx.Rollback()
		utils.LogError("membership_create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}
	invitation.Accepted = true
	if err := tx.Save(&invitation).Error; err != nil {
		tx.Rollback()
		utils.LogError("invitation_accept", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}
	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.JSON(fiber.Map{"message": "Invitation accepted successfully"})
}
