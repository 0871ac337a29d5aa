package controller_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signhub/models"
	"signhub/utils"
)

// seedSignRequest stores a document file and creates a pending sign
// request for it, owned by user or team (exactly one of them set).
func seedSignRequest(t *testing.T, env *testEnv, owner *models.User, team *models.Team, recipientEmail, content string) *models.SignRequest {
	t.Helper()

	path, err := env.Store.Save("uploaded_documents", "contract.pdf", strings.NewReader(content))
	require.NoError(t, err)

	doc := models.Document{
		Name:     "contract.pdf",
		FilePath: path,
		Message:  "please sign",
	}
	if team != nil {
		doc.TeamID = &team.ID
	} else {
		doc.OwnerID = &owner.ID
	}
	require.NoError(t, env.DB.Create(&doc).Error)

	recipient := models.Recipient{Email: recipientEmail}
	require.NoError(t, env.DB.Create(&recipient).Error)

	sr := models.SignRequest{DocumentID: doc.ID, RecipientID: recipient.ID}
	require.NoError(t, env.DB.Create(&sr).Error)
	return &sr
}

func signBody(signature string, isSigned bool) map[string]interface{} {
	return map[string]interface{}{"signature": signature, "is_signed": isSigned}
}

func TestSubmitSignature(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	sr := seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("sig.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Document signed successfully.", body["detail"])

	var updated models.SignRequest
	require.NoError(t, env.DB.First(&updated, sr.ID).Error)
	assert.True(t, updated.IsSigned)
	require.NotNil(t, updated.SignatureImageURL)
	assert.Equal(t, "sig.png", *updated.SignatureImageURL)

	// The document log was generated and published.
	require.NotNil(t, updated.AuditLogPath)
	logBytes, err := env.Store.Read(*updated.AuditLogPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(logBytes), "%PDF"), "document log should be a PDF")

	// Confirmations went to the document owner and the recipient.
	confirmations := env.Mailer.sentOfKind("confirmation")
	require.Len(t, confirmations, 2)
	assert.Equal(t, "alice@example.com", confirmations[0].To)
	assert.Equal(t, "signer@x.com", confirmations[1].To)
}

func TestSubmitSignatureTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	sr := seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("first.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("second.png", true))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Signed is terminal: the first submission's state survives.
	var updated models.SignRequest
	require.NoError(t, env.DB.First(&updated, sr.ID).Error)
	assert.True(t, updated.IsSigned)
	require.NotNil(t, updated.SignatureImageURL)
	assert.Equal(t, "first.png", *updated.SignatureImageURL)
}

func TestSubmitSignatureValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	sr := seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing signature", map[string]interface{}{"is_signed": true}},
		{"missing is_signed", map[string]interface{}{"signature": "sig.png"}},
		{"is_signed false", signBody("sig.png", false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var current models.SignRequest
			require.NoError(t, env.DB.First(&current, sr.ID).Error)
			assert.False(t, current.IsSigned)
			assert.Nil(t, current.AuditLogPath)
		})
	}
}

func TestSubmitSignatureUnknownID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, "PATCH", "/sign-documents/999", "", signBody("sig.png", true))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitSignatureConfirmationFailureDoesNotUndoSigning(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	sr := seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	env.Mailer.FailConfirmations = true

	resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("sig.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.SignRequest
	require.NoError(t, env.DB.First(&updated, sr.ID).Error)
	assert.True(t, updated.IsSigned)
	assert.NotNil(t, updated.AuditLogPath)
}

func TestSubmitTeamSignature(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")

	team := models.Team{Name: "Legal", OwnerID: owner.ID}
	require.NoError(t, env.DB.Create(&team).Error)
	sr := seedSignRequest(t, env, nil, &team, "signer@x.com", "nda body")

	resp := env.doJSON(t, "PATCH", "/team/sign-documents/1", "", signBody("sig.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.SignRequest
	require.NoError(t, env.DB.First(&updated, sr.ID).Error)
	assert.True(t, updated.IsSigned)
	require.NotNil(t, updated.AuditLogPath)
	assert.Contains(t, *updated.AuditLogPath, "team-generated-pdfs/")

	// Team flow notifies the recipient only, with a team-scoped log
	// download link.
	confirmations := env.Mailer.sentOfKind("confirmation")
	require.Len(t, confirmations, 1)
	assert.Equal(t, "signer@x.com", confirmations[0].To)
	assert.Contains(t, confirmations[0].Link, "/team/download-document-log-file/")
}

func TestAuditLogPathImpliesSigned(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	seedSignRequest(t, env, owner, nil, "a@x.com", "doc one")
	seedSignRequest(t, env, owner, nil, "b@x.com", "doc two")

	resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("sig.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var requests []models.SignRequest
	require.NoError(t, env.DB.Order("id").Find(&requests).Error)
	for _, sr := range requests {
		if sr.IsSigned {
			assert.NotNil(t, sr.AuditLogPath)
		} else {
			assert.Nil(t, sr.AuditLogPath)
		}
	}
}

func TestLosingSubmissionLeavesWinnerLogIntact(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	sr := seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	// A second submission racing the first sees the row while it is
	// still pending and generates its own log before losing the
	// conditional update.
	var stale models.SignRequest
	require.NoError(t, env.DB.
		Preload("Document").
		Preload("Document.Owner").
		Preload("Recipient").
		First(&stale, sr.ID).Error)
	require.False(t, stale.IsSigned)

	resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("winner.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var winner models.SignRequest
	require.NoError(t, env.DB.First(&winner, sr.ID).Error)
	require.NotNil(t, winner.AuditLogPath)

	// The loser publishes and then removes only its own file.
	loserPath, err := utils.GenerateAuditLog(&stale, env.Store)
	require.NoError(t, err)
	require.NotEqual(t, *winner.AuditLogPath, loserPath)
	require.NoError(t, env.Store.Remove(loserPath))

	_, err = env.Store.Read(*winner.AuditLogPath)
	assert.NoError(t, err)
}

func TestRejectedSecondSignatureLeavesSingleLog(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	resp := env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("sig.png", true))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.doJSON(t, "PATCH", "/sign-documents/1", "", signBody("other.png", true))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	entries, err := os.ReadDir(filepath.Join(env.Store.Root, "generated-pdfs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
