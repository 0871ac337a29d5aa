package controller_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signhub/models"
)

func TestGetSignRequest(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	seedSignRequest(t, env, owner, nil, "signer@x.com", "contract body")

	// No auth header: recipients follow the emailed link without an
	// account.
	resp := env.doJSON(t, "GET", "/sign-documents/1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["is_signed"])
	assert.Contains(t, body["file_url"], "uploaded_documents/contract.pdf")
	assert.Empty(t, body["audit_log_url"])

	resp = env.doJSON(t, "GET", "/sign-documents/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListSignRequests(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")
	seedSignRequest(t, env, alice, nil, "a@x.com", "alice doc")
	seedSignRequest(t, env, bob, nil, "b@x.com", "bob doc")

	resp := env.doJSON(t, "GET", "/api/v1/sign-requests", env.authHeader(t, alice), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	requests := body["sign_requests"].([]interface{})
	require.Len(t, requests, 1)

	first := requests[0].(map[string]interface{})
	recipient := first["recipient"].(map[string]interface{})
	assert.Equal(t, "a@x.com", recipient["email"])
}

func TestListTeamSignRequests(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	member := env.createUser(t, "bob", "bob@example.com")
	outsider := env.createUser(t, "carol", "carol@example.com")

	team := createTeamWithOwner(t, env, owner, "Legal")
	require.NoError(t, env.DB.Create(&models.TeamMembership{
		TeamID: team.ID, UserID: member.ID, Role: models.RoleMember,
	}).Error)
	seedSignRequest(t, env, nil, team, "a@x.com", "team doc")

	resp := env.doJSON(t, "GET", "/api/v1/teams/1/sign-requests", env.authHeader(t, member), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Len(t, body["sign_requests"].([]interface{}), 1)

	resp = env.doJSON(t, "GET", "/api/v1/teams/1/sign-requests", env.authHeader(t, outsider), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.doJSON(t, "GET", "/api/v1/teams/999/sign-requests", env.authHeader(t, member), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAllTeamDocuments(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")

	owned := createTeamWithOwner(t, env, alice, "Owned")
	joined := createTeamWithOwner(t, env, bob, "Joined")
	stranger := createTeamWithOwner(t, env, bob, "Stranger")
	require.NoError(t, env.DB.Create(&models.TeamMembership{
		TeamID: joined.ID, UserID: alice.ID, Role: models.RoleMember,
	}).Error)

	seedSignRequest(t, env, nil, owned, "a@x.com", "owned doc")
	seedSignRequest(t, env, nil, joined, "b@x.com", "joined doc")
	seedSignRequest(t, env, nil, stranger, "c@x.com", "stranger doc")
	seedSignRequest(t, env, alice, nil, "d@x.com", "personal doc")

	resp := env.doJSON(t, "GET", "/api/v1/teams/documents", env.authHeader(t, alice), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	documents := body["documents"].([]interface{})
	require.Len(t, documents, 2)

	names := []string{
		documents[0].(map[string]interface{})["name"].(string),
		documents[1].(map[string]interface{})["name"].(string),
	}
	assert.Equal(t, []string{"contract.pdf", "contract.pdf"}, names)
}

func TestRemoveSignRequests(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")
	bob := env.createUser(t, "bob", "bob@example.com")
	mine := seedSignRequest(t, env, alice, nil, "a@x.com", "alice doc")
	theirs := seedSignRequest(t, env, bob, nil, "b@x.com", "bob doc")

	// Alice can only delete requests under her own documents; Bob's id
	// in the batch is silently skipped.
	resp := env.doJSON(t, "DELETE", "/api/v1/sign-requests", env.authHeader(t, alice),
		map[string]interface{}{"sign_request_ids": []uint{mine.ID, theirs.ID}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, int64(1), env.count(t, &models.SignRequest{}))
	var remaining models.SignRequest
	require.NoError(t, env.DB.First(&remaining).Error)
	assert.Equal(t, theirs.ID, remaining.ID)
}

func TestRemoveSignRequestsValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice", "alice@example.com")

	resp := env.doJSON(t, "DELETE", "/api/v1/sign-requests", env.authHeader(t, alice),
		map[string]interface{}{"sign_request_ids": []uint{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveTeamSignRequests(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "alice", "alice@example.com")
	outsider := env.createUser(t, "bob", "bob@example.com")
	team := createTeamWithOwner(t, env, owner, "Legal")
	sr := seedSignRequest(t, env, nil, team, "a@x.com", "team doc")

	resp := env.doJSON(t, "DELETE", "/api/v1/teams/1/sign-requests", env.authHeader(t, outsider),
		map[string]interface{}{"sign_request_ids": []uint{sr.ID}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int64(1), env.count(t, &models.SignRequest{}))

	resp = env.doJSON(t, "DELETE", "/api/v1/teams/1/sign-requests", env.authHeader(t, owner),
		map[string]interface{}{"sign_request_ids": []uint{sr.ID}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(0), env.count(t, &models.SignRequest{}))
}
