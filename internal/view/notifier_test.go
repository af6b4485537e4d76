package view

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spesecli/internal/apiclient"
	"spesecli/internal/core"
	"spesecli/internal/log"
	"spesecli/internal/services"
	"spesecli/internal/session"
)

func TestNotifier_Describe(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel Level
		wantTitle string
		wantMsg   string
	}{
		{
			name:      "unreachable",
			err:       fmt.Errorf("list expenses: %w", &apiclient.Error{Kind: apiclient.KindUnreachable, Status: apiclient.StatusNoResponse}),
			wantLevel: LevelError,
			wantTitle: TitleServerConnection,
			wantMsg:   apiclient.MessageUnreachable,
		},
		{
			name:      "data store down",
			err:       &apiclient.Error{Kind: apiclient.KindDataStoreDown, Status: http.StatusServiceUnavailable},
			wantLevel: LevelWarning,
			wantTitle: TitleDatabaseConnection,
			wantMsg:   messageDatabaseDown,
		},
		{
			name:      "guard blocked",
			err:       services.ErrDataStoreDown,
			wantLevel: LevelWarning,
			wantTitle: TitleDatabaseConnection,
			wantMsg:   messageDatabaseDown,
		},
		{
			name:      "remote rejection shows server message",
			err:       fmt.Errorf("delete expense x: %w", &apiclient.Error{Kind: apiclient.KindRemoteRejected, Status: 404, Message: "Expense not found"}),
			wantLevel: LevelError,
			wantTitle: TitleError,
			wantMsg:   "Expense not found",
		},
		{
			name:      "auth error",
			err:       &session.AuthError{Kind: session.ErrInvalidCredentials, Message: session.MessageInvalidCredentials},
			wantLevel: LevelError,
			wantTitle: TitleAuthentication,
			wantMsg:   session.MessageInvalidCredentials,
		},
		{
			name:      "validation",
			err:       core.ErrInvalidAmount,
			wantLevel: LevelWarning,
			wantTitle: TitleInvalidInput,
			wantMsg:   "invalid amount",
		},
		{
			name:      "unknown",
			err:       errors.New("weird"),
			wantLevel: LevelError,
			wantTitle: TitleError,
			wantMsg:   messageFallback,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier(log.Discard())
			note, ok := n.Notify(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.wantLevel, note.Level)
			assert.Equal(t, tt.wantTitle, note.Title)
			assert.Equal(t, tt.wantMsg, note.Message)
			assert.NotEmpty(t, note.ID)
		})
	}
}

func TestNotifier_PendingAndDismiss(t *testing.T) {
	n := NewNotifier(log.Discard())
	var seen []Notification
	n.OnNotify(func(note Notification) { seen = append(seen, note) })

	_, ok := n.Notify(nil)
	assert.False(t, ok)
	_, ok = n.Notify(context.Canceled)
	assert.False(t, ok)

	a, _ := n.Notify(errors.New("a"))
	b := n.Success("Expense added", "")
	require.Len(t, n.Pending(), 2)
	assert.Len(t, seen, 2)

	assert.True(t, n.Dismiss(a.ID))
	assert.False(t, n.Dismiss(a.ID))
	pending := n.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
	assert.Equal(t, LevelSuccess, pending[0].Level)
}
