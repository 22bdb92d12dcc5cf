package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iotguardian/internal/models"
)

func TestInboxKeepsNewestTwenty(t *testing.T) {
	s := NewNotificationService()
	for i := 0; i < InboxSize+5; i++ {
		s.Notify("u1", fmt.Sprintf("message %d", i), models.NotificationUser)
	}

	inbox, unread := s.List("u1")
	require.Len(t, inbox, InboxSize)
	assert.Equal(t, InboxSize, unread)
	assert.Equal(t, "message 24", inbox[0].Message, "newest first")
	assert.Equal(t, "message 5", inbox[InboxSize-1].Message)
}

func TestMarkReadAndClear(t *testing.T) {
	s := NewNotificationService()
	first := s.Notify("u1", "first", models.NotificationSystem)
	s.Notify("u1", "second", models.NotificationSystem)

	require.NoError(t, s.MarkRead("u1", first.ID))
	_, unread := s.List("u1")
	assert.Equal(t, 1, unread)

	assert.ErrorIs(t, s.MarkRead("u1", "missing"), ErrNotFound)
	assert.ErrorIs(t, s.MarkRead("nobody", first.ID), ErrNotFound)

	s.MarkAllRead("u1")
	_, unread = s.List("u1")
	assert.Zero(t, unread)

	s.Clear("u1")
	inbox, _ := s.List("u1")
	assert.Empty(t, inbox)
}

func TestBroadcastLength(t *testing.T) {
	s := NewNotificationService()

	_, err := s.Broadcast("too short", []string{"u1"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Broadcast(strings.Repeat("x", 501), []string{"u1"})
	assert.ErrorIs(t, err, ErrValidation)

	n, err := s.Broadcast(strings.Repeat("x", 500), []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	inbox, _ := s.List("u2")
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationAdmin, inbox[0].Type)
}
