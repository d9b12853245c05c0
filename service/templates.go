package service

import (
	"fmt"
	"strings"

	"github.com/kevinaaaquil/intelliread/auth"
)

// Renderer turns a notification into a plain-text subject and body.
type Renderer struct {
	AppName string
	AppURL  string
}

func (r Renderer) Render(n auth.Notification) (subject, body string) {
	app := r.AppName
	if app == "" {
		app = "IntelliRead"
	}
	name := n.Data["name"]
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", name)

	switch n.Kind {
	case auth.NotifyWelcome:
		subject = "Welcome to " + app
		fmt.Fprintf(&b, "Your %s account is ready. Start browsing the catalogue and enjoy reading.\n", app)
	case auth.NotifyPendingApproval:
		subject = "Your publisher account is awaiting approval"
		b.WriteString("Thanks for registering as a publisher. An administrator will review your account shortly.\n")
		b.WriteString("We will email you as soon as a decision has been made.\n")
	case auth.NotifyApprovalResult:
		if n.Data["approved"] == "true" {
			subject = "Your publisher account has been approved"
			b.WriteString("Good news: your publisher account has been approved. You can now log in and submit books.\n")
		} else {
			subject = "Your publisher account request was declined"
			b.WriteString("We are sorry, your publisher account request was declined and the account has been removed.\n")
		}
	case auth.NotifyOTPCode:
		subject = app + " password reset code"
		fmt.Fprintf(&b, "Your verification code is %s. It expires in %s minutes.\n", n.Data["code"], n.Data["minutes"])
		b.WriteString("If you did not request a password reset, you can ignore this email.\n")
	default:
		subject = app + " notification"
	}
	if r.AppURL != "" && n.Kind != auth.NotifyOTPCode {
		fmt.Fprintf(&b, "\n%s\n", r.AppURL)
	}
	fmt.Fprintf(&b, "\nThe %s team\n", app)
	return subject, b.String()
}
