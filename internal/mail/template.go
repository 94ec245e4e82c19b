package mail

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// InvitationData fills the client invitation email.
type InvitationData struct {
	AccountName string
	Domain      string
	RedeemURL   string
	ExpiresIn   string
}

// VerificationData fills the address verification email.
type VerificationData struct {
	Name      string
	VerifyURL string
	ExpiresIn string
}

// PasswordResetData fills the password reset email.
type PasswordResetData struct {
	Name      string
	ResetURL  string
	ExpiresIn string
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// InvitationMessage builds the client invitation email.
func InvitationMessage(to string, data InvitationData) (Message, error) {
	html, err := render("invitation.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("You're invited to follow %s on RankDesk", data.AccountName),
		HTML:    html,
	}, nil
}

// VerificationMessage builds the address verification email.
func VerificationMessage(to string, data VerificationData) (Message, error) {
	html, err := render("verification.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Verify your RankDesk email address",
		HTML:    html,
	}, nil
}

// PasswordResetMessage builds the password reset email.
func PasswordResetMessage(to string, data PasswordResetData) (Message, error) {
	html, err := render("password_reset.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Reset your RankDesk password",
		HTML:    html,
	}, nil
}
