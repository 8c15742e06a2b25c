package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFollowUpDueDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-01": "2024-01-08",
		"2024-02-25": "2024-03-03",
		"2023-12-28": "2024-01-04",
		"2023-02-25": "2023-03-04",
	}
	for contact, due := range cases {
		d, err := ParseDate(contact)
		assert.NoError(t, err)
		assert.Equal(t, due, FollowUpDueDate(d).String(), "contact %s", contact)
	}
}

func TestFollowUpDueDateAcrossDST(t *testing.T) {
	contact := NewDate(2024, time.March, 7)
	assert.Equal(t, "2024-03-14", FollowUpDueDate(contact).String())
}

func TestReminderStatusTerminal(t *testing.T) {
	assert.False(t, ReminderPending.IsTerminal())
	assert.True(t, ReminderCompleted.IsTerminal())
	assert.True(t, ReminderDismissed.IsTerminal())
}
