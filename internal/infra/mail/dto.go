package mail

import (
	"errors"
	"fmt"
	"strings"
)

// Message is one outbound email. HTML is optional; Text is always sent.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Kind string

const (
	KindConfigIncomplete Kind = "ConfigIncomplete"
	KindInvalidRecipient Kind = "InvalidRecipient"
	KindConnectFailed    Kind = "ConnectFailed"
	KindAuthFailed       Kind = "AuthFailed"
	KindSendRejected     Kind = "SendRejected"
	KindTimeout          Kind = "Timeout"
)

// Error is the typed failure returned by RelayTransport.Send.
type Error struct {
	Kind    Kind
	Missing []string // set for KindConfigIncomplete
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindConfigIncomplete && len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing fields: %s", e.Kind, strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, or "" if err is not a
// transport error.
func KindOf(err error) Kind {
	var mailErr *Error
	if errors.As(err, &mailErr) {
		return mailErr.Kind
	}
	return ""
}
