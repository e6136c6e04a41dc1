package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

const expiryLayout = "Mon, 02 Jan 2006 15:04 MST"

func Invitation(company, firstName, link string, expires time.Time) Message {
	company = strings.TrimSpace(company)
	if company == "" {
		company = "the HR portal"
	}
	greeting := "Hello,"
	if name := strings.TrimSpace(firstName); name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}
	body := strings.Join([]string{
		greeting,
		"",
		fmt.Sprintf("You have been invited to join %s.", company),
		"Choose a password to activate your account:",
		"",
		link,
		"",
		fmt.Sprintf("This link expires on %s.", expires.UTC().Format(expiryLayout)),
	}, "\r\n")
	return Message{Subject: "Your invitation to " + company, Body: body}
}

func PasswordReset(link string, expires time.Time) Message {
	body := strings.Join([]string{
		"Hello,",
		"",
		"We received a request to reset your password. Use the link below to choose a new one:",
		"",
		link,
		"",
		fmt.Sprintf("The link expires on %s. If you did not ask for a reset you can ignore this message.",
			expires.UTC().Format(expiryLayout)),
	}, "\r\n")
	return Message{Subject: "Password reset", Body: body}
}
