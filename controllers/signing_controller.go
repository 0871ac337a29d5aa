package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"signhub/models"
	"signhub/utils"
)

// SigningController owns the signing-request lifecycle: batch creation
// with invite dispatch, listing, signature submission and bulk removal,
// for both individually owned and team owned documents.
type SigningController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Mailer utils.Mailer
	Store  utils.BlobStore

	// AppURL is where signing deep links point.
	AppURL string
	// StrictDispatch makes any failed invite email roll back the whole
	// creation batch.
	StrictDispatch bool
}

func NewSigningController(db *gorm.DB, logger *logrus.Logger, mailer utils.Mailer, store utils.BlobStore, appURL string, strict bool) *SigningController {
	return &SigningController{
		DB:             db,
		Logger:         logger,
		Mailer:         mailer,
		Store:          store,
		AppURL:         appURL,
		StrictDispatch: strict,
	}
}

// ownerScope abstracts who owns a document batch: a single user or a
// team. Individual and team endpoints resolve a scope up front and the
// rest of the lifecycle code is shared.
type ownerScope struct {
	user *models.User
	team *models.Team
}

func userScope(u *models.User) ownerScope { return ownerScope{user: u} }
func teamScope(t *models.Team) ownerScope { return ownerScope{team: t} }

func (s ownerScope) isTeam() bool { return s.team != nil }

// apply stamps the scope's ownership onto a new document.
func (s ownerScope) apply(doc *models.Document) {
	if s.team != nil {
		doc.TeamID = &s.team.ID
	} else {
		doc.OwnerID = &s.user.ID
	}
}

// signLink builds the deep link a recipient follows to sign.
func (s ownerScope) signLink(appURL string, signRequestID uint) string {
	if s.team != nil {
		return fmt.Sprintf("%s/team/sign-documents/%d", appURL, signRequestID)
	}
	return fmt.Sprintf("%s/sign-documents/%d", appURL, signRequestID)
}

// documentFilter narrows a documents query to this scope.
func (s ownerScope) documentFilter(db *gorm.DB) *gorm.DB {
	if s.team != nil {
		return db.Where("documents.team_id = ?", s.team.ID)
	}
	return db.Where("documents.owner_id = ?", s.user.ID)
}

// resolveTeamScope loads the :teamID route param and checks the caller
// is the team's owner or a member.
func (sc *SigningController) resolveTeamScope(c *fiber.Ctx, user *models.User) (*models.Team, error) {
	teamID, err := c.ParamsInt("teamID")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid team id")
	}

	var team models.Team
	if err := sc.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Team not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to load team")
	}

	if team.OwnerID != user.ID {
		var membership models.TeamMembership
		err := sc.DB.Where("team_id = ? AND user_id = ?", team.ID, user.ID).First(&membership).Error
		if err != nil {
			return nil, fiber.NewError(fiber.StatusForbidden, "Not a member of this team")
		}
	}

	return &team, nil
}

// scopeError renders a fiber.Error produced by scope resolution.
func scopeError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error."})
}
