package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxNameLen = 200
	maxBodyLen = 5000
)

// ErrInvalid matches every FieldError.
var ErrInvalid = errors.New("contact: invalid message")

// FieldError describes the first form field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("contact: %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

// Service accepts contact form submissions.
type Service struct {
	store  *Store
	mailer Mailer
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService builds a Service. mailer may be nil, in which case messages
// stay pending in the inbox.
func NewService(store *Store, mailer Mailer, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, mailer: mailer, log: log, now: time.Now}
}

// Submit validates and stores a message, then tries to forward it. A failed
// forward is recorded on the message and is not returned as an error.
func (s *Service) Submit(ctx context.Context, name, email, body string) (Message, error) {
	m := Message{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Body:      strings.TrimSpace(body),
		CreatedAt: s.now().UTC(),
		Status:    StatusPending,
	}
	if err := validate(m); err != nil {
		return Message{}, err
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return Message{}, err
	}
	if s.mailer == nil {
		return m, nil
	}

	log := s.log.WithField("message_id", m.ID)
	if err := s.mailer.Send(ctx, m); err != nil {
		log.WithError(err).Warn("contact message not forwarded")
		m.Status, m.Error = StatusFailed, err.Error()
	} else {
		log.Info("contact message forwarded")
		m.Status = StatusSent
	}
	if err := s.store.SetStatus(ctx, m.ID, m.Status, m.Error); err != nil {
		log.WithError(err).Error("recording contact message status")
	}
	return m, nil
}

// Recent returns the newest messages for the dashboard.
func (s *Service) Recent(ctx context.Context, limit int) ([]Message, error) {
	return s.store.Recent(ctx, limit)
}

func validate(m Message) error {
	switch {
	case m.Name == "":
		return &FieldError{Field: "name", Message: "Please enter your name."}
	case utf8.RuneCountInString(m.Name) > maxNameLen:
		return &FieldError{Field: "name", Message: "Name is too long."}
	case m.Email == "":
		return &FieldError{Field: "email", Message: "Please enter your email address."}
	case m.Body == "":
		return &FieldError{Field: "message", Message: "Please enter a message."}
	case utf8.RuneCountInString(m.Body) > maxBodyLen:
		return &FieldError{Field: "message", Message: "Message is too long."}
	}
	if addr, err := mail.ParseAddress(m.Email); err != nil || addr.Address != m.Email {
		return &FieldError{Field: "email", Message: "Please enter a valid email address."}
	}
	return nil
}
