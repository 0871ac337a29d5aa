package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signhub/models"
	"signhub/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewTeamController(db *gorm.DB, logger *logrus.Logger) *TeamController {
	return &TeamController{DB: db, Logger: logger}
}

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Website     string `json:"website" validate:"omitempty,url"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
}

// CreateTeam creates a team and the owner's admin membership in one
// transaction.
func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var existing models.Team
	if err := tc.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A team with this name already exists",
		})
	}

	team := models.Team{
		Name:        req.Name,
		OwnerID:     user.ID,
		Website:     req.Website,
		PhoneNumber: req.PhoneNumber,
	}

	tx := tc.DB.Begin()
	if err := tx.Create(&team).Error; err != nil {
		tx.Rollback()
		utils.LogError("team_create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}
	membership := models.TeamMembership{
		TeamID: team.ID,
		UserID: user.ID,
		Role:   models.RoleAdmin,
	}
	if err := tx.Create(&membership).Error; err != nil {
		tx.Rollback()
		utils.LogError("team_membership_create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team membership",
		})
	}
	if err := tx.Commit().Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"team": team})
}

// GetTeams lists teams the caller owns or belongs to.
func (tc *TeamController) GetTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	memberTeamIDs := tc.DB.Model(&models.TeamMembership{}).
		Select("team_id").
		Where("user_id = ?", user.ID)

	var teams []models.Team
	err := tc.DB.
		Where("owner_id = ? OR id IN (?)", user.ID, memberTeamIDs).
		Order("id").
		Find(&teams).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.JSON(fiber.Map{"teams": teams})
}

// GetTeam returns one team the caller owns or belongs to.
func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, err := tc.loadMemberTeam(c, user)
	if err != nil {
		return scopeError(c, err)
	}
	return c.JSON(fiber.Map{"team": team})
}

// GetTeamMembers returns a team's memberships with user details.
func (tc *TeamController) GetTeamMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, err := tc.loadMemberTeam(c, user)
	if err != nil {
		return scopeError(c, err)
	}

	var memberships []models.TeamMembership
	if err := tc.DB.Preload("User").Where("team_id = ?", team.ID).Find(&memberships).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	return c.JSON(fiber.Map{"members": memberships})
}

// RemoveTeamMember removes one member from a team. Only the owner may
// do this, and the owner's own membership cannot be removed.
func (tc *TeamController) RemoveTeamMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := c.ParamsInt("teamID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team id",
		})
	}
	memberID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var team models.Team
	if err := tc.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Team not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}

	if team.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the team owner can remove members",
		})
	}
	if uint(memberID) == team.OwnerID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "The team owner cannot be removed",
		})
	}

	res := tc.DB.Where("team_id = ? AND user_id = ?", team.ID, memberID).
		Delete(&models.TeamMembership{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error.",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Membership not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// loadMemberTeam loads :teamID and verifies the caller is its owner or
// a member.
func (tc *TeamController) loadMemberTeam(c *fiber.Ctx, user *models.User) (*models.Team, error) {
	teamID, err := c.ParamsInt("teamID")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid team id")
	}

	var team models.Team
	if err := tc.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Team not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load team")
	}

	if team.OwnerID != user.ID {
		var membership models.TeamMembership
		if err := tc.DB.Where("team_id = ? AND user_id = ?", team.ID, user.ID).First(&membership).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusForbidden, "Not a member of this team")
		}
	}

	return &team, nil
}
