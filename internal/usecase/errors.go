package usecase

import "errors"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrNoLeadsFound     = errors.New("no leads found")
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// TechnicalError marks failures of a collaborator (store, broker) rather
// than of the request.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func storeError(message string, err error) error {
	return &TechnicalError{Code: "STORE_ERROR", Message: message + ": " + err.Error(), Err: err}
}
