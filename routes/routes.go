package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "signhub/controllers"
	"signhub/middleware"
	"signhub/utils"
)

// SetupRoutes wires every controller into the app. The signing detail
// and submit endpoints stay public: external recipients reach them
// through emailed deep links and have no account.
func SetupRoutes(app *fiber.App, db *gorm.DB, log *logrus.Logger, mailer utils.Mailer, store utils.BlobStore, appURL string, strictDispatch bool) {
	authController := controller.NewAuthController(db)
	signingController := controller.NewSigningController(db, log, mailer, store, appURL, strictDispatch)
	teamController := controller.NewTeamController(db, log)
	invitationController := controller.NewInvitationController(db, log, mailer, appURL)

	requestLog := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Public auth endpoints
	auth := app.Group("/auth", requestLog)
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.RefreshToken)
	auth.Get("/me", middleware.Protected(), authController.GetCurrentUser)

	// Public signing endpoints reached via emailed deep links
	app.Get("/sign-documents/:id", requestLog, signingController.GetSignRequest)
	app.Patch("/sign-documents/:id", requestLog, signingController.SubmitSignature)
	app.Get("/team/sign-documents/:id", requestLog, signingController.GetSignRequest)
	app.Patch("/team/sign-documents/:id", requestLog, signingController.SubmitSignature)

	// Protected API
	api := app.Group("/api/v1", middleware.Protected(), requestLog)

	api.Get("/profile", authController.GetProfile)
	api.Put("/profile", authController.UpdateProfile)

	api.Post("/sign-requests", signingController.CreateSignRequests)
	api.Get("/sign-requests", signingController.ListSignRequests)
	api.Delete("/sign-requests", signingController.RemoveSignRequests)

	api.Post("/teams", teamController.CreateTeam)
	api.Get("/teams", teamController.GetTeams)
	api.Get("/teams/documents", signingController.ListAllTeamDocuments)
	api.Get("/teams/:teamID", teamController.GetTeam)
	api.Get("/teams/:teamID/members", teamController.GetTeamMembers)
	api.Delete("/teams/:teamID/members/:userID", teamController.RemoveTeamMember)

	api.Post("/teams/:teamID/sign-requests", signingController.CreateTeamSignRequests)
	api.Get("/teams/:teamID/sign-requests", signingController.ListTeamSignRequests)
	api.Delete("/teams/:teamID/sign-requests", signingController.RemoveTeamSignRequests)

	api.Post("/teams/:teamID/invitations", invitationController.InviteUser)
	api.Post("/invitations/accept", invitationController.AcceptInvitation)
}
