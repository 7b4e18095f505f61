package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`
<div style="font-family: sans-serif; text-align: center; padding: 20px;">
  <h2>CityCare OTP Verification</h2>
  <p>Your one-time password is:</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 5px; background: #f0f0f0; padding: 10px; border-radius: 5px;">{{.Code}}</p>
  <p>This code will expire in {{.Minutes}} minutes.</p>
</div>
`))

var issueReportedTemplate = template.Must(template.New("issue_reported").Parse(`
<div style="font-family: sans-serif; padding: 20px;">
  <h2>Thank you for your submission!</h2>
  <p>Your civic issue, titled "<strong>{{.Title}}</strong>", has been successfully reported.</p>
  <p>You can track its status in the "My Profile" section of your CityCare account.</p>
  <p>Thank you for helping improve our community.</p>
</div>
`))

func OTPMessage(to, code string, ttl time.Duration) (Message, error) {
	html, err := render(otpTemplate, struct {
		Code    string
		Minutes int
	}{code, int(ttl.Minutes())})
	if err != nil {
		return Message{}, fmt.Errorf("render otp template: %w", err)
	}
	return Message{To: to, Subject: "Your CityCare Verification Code", HTML: html, Kind: KindOTP}, nil
}

func IssueReportedMessage(to, title string) (Message, error) {
	html, err := render(issueReportedTemplate, struct{ Title string }{title})
	if err != nil {
		return Message{}, fmt.Errorf("render issue template: %w", err)
	}
	return Message{To: to, Subject: fmt.Sprintf("Issue Reported: %q", title), HTML: html, Kind: KindIssueReported}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
