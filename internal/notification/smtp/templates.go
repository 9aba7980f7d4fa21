package smtp

import (
	"fmt"

	"github.com/korelearn/tutor-management/internal/notification"
)

func render(template string, data map[string]string) (subject, body string, err error) {
	name := data["first_name"]
	if name == "" {
		name = "there"
	}

	switch template {
	case notification.TemplateTutorWelcome:
		subject = "Welcome to Korelearn - your tutor account is ready"
		body = fmt.Sprintf(
			"<p>Hi %s,</p>"+
				"<p>Your payment was received and your tutor account has been created. "+
				"Your application is now under review.</p>"+
				"<p>Sign in at <a href=\"%s\">%s</a> with:</p>"+
				"<p>Email: %s<br>Temporary password: %s</p>"+
				"<p>Please change your password after your first login.</p>",
			name, data["login_url"], data["login_url"], data["email"], data["password"])
		return subject, body, nil

	case notification.TemplateTutorConfirmation:
		subject = "Korelearn - registration payment received"
		body = fmt.Sprintf(
			"<p>Hi %s,</p>"+
				"<p>Your registration payment was received and your application is now "+
				"under review. You can sign in at <a href=\"%s\">%s</a> with your "+
				"existing account.</p>",
			name, data["login_url"], data["login_url"])
		return subject, body, nil
	}

	return "", "", fmt.Errorf("unknown notification template %q", template)
}
