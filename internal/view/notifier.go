package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"spesecli/internal/apiclient"
	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/services"
	"spesecli/internal/session"
)

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

const (
	TitleServerConnection   = "Server Connection Error"
	TitleDatabaseConnection = "Database Connection Error"
	TitleAuthentication     = "Authentication Error"
	TitleInvalidInput       = "Invalid input"
	TitleError              = "Error"

	messageDatabaseDown = "Server is running but database connection failed. Some features may not work."
	messageFallback     = "Something went wrong"
)

// Notification is a message for the user. It stays pending until dismissed.
type Notification struct {
	ID        string
	Level     Level
	Title     string
	Message   string
	CreatedAt time.Time
}

type Notifier struct {
	logger *log.Logger

	mu      sync.Mutex
	pending []Notification
	sinks   []func(Notification)
}

func NewNotifier(logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Notifier{logger: logger.WithComponent(log.ComponentView)}
}

// OnNotify registers fn to receive every new notification.
func (n *Notifier) OnNotify(fn func(Notification)) {
	n.mu.Lock()
	n.sinks = append(n.sinks, fn)
	n.mu.Unlock()
}

// Notify turns err into a pending notification. A nil error or a
// cancellation produces nothing and ok is false.
func (n *Notifier) Notify(err error) (Notification, bool) {
	if err == nil || errors.Is(err, context.Canceled) {
		return Notification{}, false
	}
	level, title, msg := describe(err)
	n.logger.Warn("Notifying failure", "title", title, log.FieldError, err)
	return n.push(level, title, msg), true
}

// Success records a confirmation such as "Expense added".
func (n *Notifier) Success(title, message string) Notification {
	return n.push(LevelSuccess, title, message)
}

func (n *Notifier) push(level Level, title, message string) Notification {
	note := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	n.mu.Lock()
	n.pending = append(n.pending, note)
	sinks := append(([]func(Notification))(nil), n.sinks...)
	n.mu.Unlock()

	for _, fn := range sinks {
		fn(note)
	}
	return note
}

// Dismiss removes a pending notification. It reports whether id was found.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, note := range n.pending {
		if note.ID == id {
			n.pending = append(n.pending[:i], n.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the notifications not yet dismissed, oldest first.
func (n *Notifier) Pending() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.pending...)
}

func describe(err error) (Level, string, string) {
	var authErr *session.AuthError
	switch {
	case errors.As(err, &authErr):
		switch {
		case errors.Is(authErr, session.ErrServiceUnavailable):
			return LevelError, TitleServerConnection, authErr.Message
		case errors.Is(authErr, session.ErrDataStoreDown):
			return LevelError, TitleDatabaseConnection, authErr.Message
		}
		return LevelError, TitleAuthentication, authErr.Message
	case errors.Is(err, services.ErrServiceDown), errors.Is(err, apiclient.ErrUnreachable):
		return LevelError, TitleServerConnection, apiclient.MessageUnreachable
	case errors.Is(err, services.ErrDataStoreDown), errors.Is(err, apiclient.ErrDataStoreDown):
		return LevelWarning, TitleDatabaseConnection, messageDatabaseDown
	case isValidation(err):
		return LevelWarning, TitleInvalidInput, err.Error()
	}
	if msg := apiclient.MessageOf(err); msg != "" {
		return LevelError, TitleError, msg
	}
	return LevelError, TitleError, messageFallback
}

func isValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrInvalidDay, core.ErrInvalidMonth, core.ErrInvalidYear,
		core.ErrEmptyDescription, core.ErrDescriptionTooLong, core.ErrUnknownCategory,
		core.ErrUnknownPayment, services.ErrMissingID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
