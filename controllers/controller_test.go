package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"signhub/config"
	"signhub/models"
	"signhub/routes"
	"signhub/utils"
)

const testAppURL = "http://localhost:5173"

// sentMail records one dispatched email.
type sentMail struct {
	Kind string // invite, confirmation, team_invitation
	To   string
	Link string
}

// fakeMailer implements utils.Mailer and records every send. Failures
// can be injected per kind; FailInviteOn fails the Nth invite
// (1-based).
type fakeMailer struct {
	mu sync.Mutex

	Sent              []sentMail
	FailInviteOn      int
	FailConfirmations bool
	FailTeamInvites   bool

	inviteCount int
}

func (m *fakeMailer) SendSignRequestInvite(to, signLink, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inviteCount++
	if m.FailInviteOn > 0 && m.inviteCount >= m.FailInviteOn {
		return fmt.Errorf("smtp: connection refused")
	}
	m.Sent = append(m.Sent, sentMail{Kind: "invite", To: to, Link: signLink})
	return nil
}

func (m *fakeMailer) SendSignConfirmation(to, homeLink, logLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailConfirmations {
		return fmt.Errorf("smtp: connection refused")
	}
	m.Sent = append(m.Sent, sentMail{Kind: "confirmation", To: to, Link: logLink})
	return nil
}

func (m *fakeMailer) SendTeamInvitation(to, inviteLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTeamInvites {
		return fmt.Errorf("smtp: connection refused")
	}
	m.Sent = append(m.Sent, sentMail{Kind: "team_invitation", To: to, Link: inviteLink})
	return nil
}

func (m *fakeMailer) sentOfKind(kind string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.Sent {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

type testEnv struct {
	App    *fiber.App
	DB     *gorm.DB
	Mailer *fakeMailer
	Store  *utils.LocalStore
}

// newTestEnv spins up the full route stack against a throwaway sqlite
// database and a temp-dir blob store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	// The JWT middleware resolves users through the package-level DB
	// handle, same as production.
	config.DB = db
	config.AppConfig.EncryptionKey = "test-encryption-key"

	mailer := &fakeMailer{}
	store := utils.NewLocalStore(t.TempDir(), "http://localhost:5000/media")
	log := logrus.New()
	log.SetOutput(io.Discard)

	app := fiber.New()
	routes.SetupRoutes(app, db, log, mailer, store, testAppURL, true)

	return &testEnv{App: app, DB: db, Mailer: mailer, Store: store}
}

func (e *testEnv) createUser(t *testing.T, username, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, e.DB.Create(user).Error)
	require.NoError(t, e.DB.Create(&models.Profile{UserID: user.ID}).Error)
	return user
}

func (e *testEnv) authHeader(t *testing.T, user *models.User) string {
	t.Helper()
	access, _, err := utils.GenerateJWTToken(user)
	require.NoError(t, err)
	return "Bearer " + access
}

func (e *testEnv) doJSON(t *testing.T, method, path, auth string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// signRequestForm builds the multipart body for sign-request creation.
func signRequestForm(t *testing.T, files map[string]string, recipientEmails []string, message string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(content))
		require.NoError(t, err)
	}

	emailsJSON, err := json.Marshal(recipientEmails)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("recipient_emails", string(emailsJSON)))
	require.NoError(t, w.WriteField("message", message))
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func (e *testEnv) postSignRequests(t *testing.T, path, auth string, files map[string]string, emails []string, message string) *http.Response {
	t.Helper()
	body, contentType := signRequestForm(t, files, emails, message)
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", auth)
	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.DB.Model(model).Count(&n).Error)
	return n
}
