// Package mailer sends the OTP and issue confirmation emails, either directly
// over SMTP or through a Redis list drained by cmd/mailrelay.
package mailer

import (
	"context"
	"errors"
)

// Kinds of outgoing mail, used in logs.
const (
	KindOTP           = "otp"
	KindIssueReported = "issue_reported"
)

type Message struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId,omitempty"`
	// Attempts counts failed relay deliveries.
	Attempts int `json:"attempts,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender returns a Sender that always fails with reason.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
