package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"signhub/models"
)

// AuditLogData is everything that appears in a generated document log.
// The security hash is computed from the stored file bytes as they
// exist when the log is generated, not at upload time.
type AuditLogData struct {
	DocumentID        uint
	OwnerLabel        string
	TeamName          string
	RecipientEmail    string
	DocumentName      string
	SecurityHash      string
	Message           string
	SentOn            string
	DocumentURL       string
	SignatureImageURL string
	FromLine          string
	SubjectLine       string
}

// BuildAuditLogData reads the document's current bytes from the store,
// hashes them, and assembles the log content for a sign request. The
// request must be loaded with Document (plus its Owner or Team) and
// Recipient.
func BuildAuditLogData(sr *models.SignRequest, store BlobStore) (*AuditLogData, error) {
	fileContent, err := store.Read(sr.Document.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file: %w", err)
	}
	sum := sha256.Sum256(fileContent)

	data := &AuditLogData{
		DocumentID:     sr.DocumentID,
		RecipientEmail: sr.Recipient.Email,
		DocumentName:   sr.Document.Name,
		SecurityHash:   hex.EncodeToString(sum[:]),
		Message:        sr.Document.Message,
		SentOn:         sr.RequestedAt.UTC().Format("Jan. 02, 2006, 03:04 PM (UTC)"),
		DocumentURL:    store.URLFor(sr.Document.FilePath),
		FromLine:       "SignHub <no-reply@signhub.local> on behalf of " + sr.Recipient.Email,
		SubjectLine:    sr.Recipient.Email + " has been sent a sign request",
	}
	if sr.SignatureImageURL != nil {
		data.SignatureImageURL = *sr.SignatureImageURL
	}

	if sr.Document.Team != nil {
		data.TeamName = sr.Document.Team.Name
		data.OwnerLabel = sr.Document.Team.Name
	} else if sr.Document.Owner != nil {
		data.OwnerLabel = sr.Document.Owner.Email
	}

	return data, nil
}

// RenderAuditLog renders the log data into a fixed-layout PDF.
func RenderAuditLog(data *AuditLogData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(44, 62, 80)
	title := "Document Log"
	if data.TeamName != "" {
		title = "Team Document Log"
	}
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(96, 96, 96)

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, value, "", "L", false)
	}

	// Section 1: document information
	row("Document ID:", fmt.Sprintf("%d", data.DocumentID))
	if data.TeamName != "" {
		row("Team:", data.TeamName)
	}
	row("User:", data.RecipientEmail)
	row("Document name:", data.DocumentName)
	row("SHA256 security hash:", data.SecurityHash)
	pdf.Ln(5)

	// Section 2: email thread record
	row("From:", data.FromLine)
	row("To:", data.RecipientEmail)
	row("Subject:", data.SubjectLine)
	row("Message:", data.Message)
	row("Sent on:", data.SentOn)
	pdf.Ln(5)

	// Section 3: verification and signature details
	attest := func(party string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(80, 7, party, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, "Email address verification: Verified by SignHub", "", "L", false)
	}
	attest(data.OwnerLabel)
	attest(data.RecipientEmail)
	pdf.Ln(5)

	// Section 4: links
	row("Document URL:", data.DocumentURL)
	row("Signature Image URL:", data.SignatureImageURL)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render document log: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateAuditLog builds and renders the document log for a sign
// request and publishes it to the store. Every call publishes under its
// own unique name: two concurrent submissions for the same request each
// get their own file, so the loser can remove its file without touching
// the one the winner's row points at. Returns the stored path.
func GenerateAuditLog(sr *models.SignRequest, store BlobStore) (string, error) {
	data, err := BuildAuditLogData(sr, store)
	if err != nil {
		return "", err
	}

	pdfBytes, err := RenderAuditLog(data)
	if err != nil {
		return "", err
	}

	dir := "generated-pdfs"
	if sr.Document.TeamID != nil {
		dir = "team-generated-pdfs"
	}
	name := fmt.Sprintf("document_log_%d_%s.pdf", sr.ID, uuid.New().String())

	path, err := store.Save(dir, name, bytes.NewReader(pdfBytes))
	if err != nil {
		return "", fmt.Errorf("failed to store document log: %w", err)
	}
	return path, nil
}
