package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer is what the signing and invitation controllers dispatch
// through. The SMTP implementation below is used in production; tests
// substitute a recording fake.
type Mailer interface {
	// SendSignRequestInvite emails a signing deep link to one recipient.
	SendSignRequestInvite(to, signLink, message string) error
	// SendSignConfirmation notifies a party that a document was signed,
	// with a link to the generated document log.
	SendSignConfirmation(to, homeLink, logLink string) error
	// SendTeamInvitation emails a team-join link carrying the
	// invitation token.
	SendTeamInvitation(to, inviteLink string) error
}

type EmailData struct {
	Subject  string
	To       string
	Template string
	Data     interface{}
	Year     int
}

// Embedded email templates
var emailTemplates = map[string]string{
	"sign_request": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Sign Request for Document</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>You have been asked to review and sign a document.</p>
        {{if .Message}}<p>{{.Message}}</p>{{end}}

        <p style="text-align: center;">
            <a href="{{.SignLink}}" class="button">Review and Sign</a>
        </p>

        <p>Or copy and paste this link into your browser:<br>
        <small>{{.SignLink}}</small></p>
    </div>

    <div class="footer">
        <p>If you weren't expecting this document, you can safely ignore this email.</p>
        <p>© {{.Year}} SignHub. All rights reserved.</p>
    </div>
</body>
</html>`,

	"confirmation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #27ae60; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Document Signed</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>The requested document has been signed. A document log has been generated for your records.</p>

        <p style="text-align: center;">
            <a href="{{.LogLink}}" class="button">Download Document Log</a>
        </p>

        <p><a href="{{.HomeLink}}">Go to your dashboard</a></p>
    </div>

    <div class="footer">
        <p>© {{.Year}} SignHub. All rights reserved.</p>
    </div>
</body>
</html>`,

	"team_invitation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Join Our Team Invitation</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>You have been invited to join a team on SignHub. Click the button below to accept:</p>

        <p style="text-align: center;">
            <a href="{{.InviteLink}}" class="button">Accept Invitation</a>
        </p>

        <p>This invitation expires in 7 days and can be used once.</p>
    </div>

    <div class="footer">
        <p>If you didn't expect this invitation, you can safely ignore this email.</p>
        <p>© {{.Year}} SignHub. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// RenderEmailTemplate executes one of the embedded templates and
// returns the HTML body.
func RenderEmailTemplate(name string, data interface{}) (string, error) {
	tmplContent, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("template '%s' not found", name)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return "", fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("error executing template: %v", err)
	}
	return body.String(), nil
}

// SMTPMailer sends mail through a plain SMTP relay via gomail.
type SMTPMailer struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

func NewSMTPMailer(host string, port int, username, password, fromEmail, fromName string) *SMTPMailer {
	return &SMTPMailer{
		Host:      host,
		Port:      port,
		Username:  username,
		Password:  password,
		FromEmail: fromEmail,
		FromName:  fromName,
	}
}

func (m *SMTPMailer) send(data EmailData) error {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	htmlBody, err := RenderEmailTemplate(data.Template, data.Data)
	if err != nil {
		return err
	}
	plainBody := HTMLToText(htmlBody)

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.FromName, m.FromEmail))
	msg.SetHeader("To", data.To)
	msg.SetHeader("Subject", data.Subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}

func (m *SMTPMailer) SendSignRequestInvite(to, signLink, message string) error {
	return m.send(EmailData{
		Subject:  "Sign Request for Document",
		To:       to,
		Template: "sign_request",
		Year:     time.Now().Year(),
		Data: struct {
			Subject  string
			SignLink string
			Message  string
			Year     int
		}{
			Subject:  "Sign Request for Document",
			SignLink: signLink,
			Message:  message,
			Year:     time.Now().Year(),
		},
	})
}

func (m *SMTPMailer) SendSignConfirmation(to, homeLink, logLink string) error {
	return m.send(EmailData{
		Subject:  "Sign Request Document Signed",
		To:       to,
		Template: "confirmation",
		Year:     time.Now().Year(),
		Data: struct {
			Subject  string
			HomeLink string
			LogLink  string
			Year     int
		}{
			Subject:  "Sign Request Document Signed",
			HomeLink: homeLink,
			LogLink:  logLink,
			Year:     time.Now().Year(),
		},
	})
}

func (m *SMTPMailer) SendTeamInvitation(to, inviteLink string) error {
	return m.send(EmailData{
		Subject:  "Join Our Team Invitation",
		To:       to,
		Template: "team_invitation",
		Year:     time.Now().Year(),
		Data: struct {
			Subject    string
			InviteLink string
			Year       int
		}{
			Subject:    "Join Our Team Invitation",
			InviteLink: inviteLink,
			Year:       time.Now().Year(),
		},
	})
}
