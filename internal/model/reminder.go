package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCompleted ReminderStatus = "completed"
	ReminderDismissed ReminderStatus = "dismissed"
)

// FollowUpInterval is the calendar-day gap between a contact and its follow-up.
const FollowUpInterval = 7

// IsTerminal reports whether no further status change is allowed.
func (s ReminderStatus) IsTerminal() bool {
	return s == ReminderCompleted || s == ReminderDismissed
}

// FollowUpDueDate returns the reminder due date for a contact.
func FollowUpDueDate(contact Date) Date {
	return contact.AddDays(FollowUpInterval)
}

// FollowUpDescription is the description stored on scheduled reminders.
func FollowUpDescription(reminderType string) string {
	return fmt.Sprintf("%s due for patient", reminderType)
}

type Reminder struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	PatientID     uuid.UUID      `json:"patientId" db:"patient_id"`
	CareManagerID uuid.UUID      `json:"careManagerId" db:"care_manager_id"`
	ReminderType  string         `json:"reminderType" db:"reminder_type"`
	DueDate       Date           `json:"dueDate" db:"reminder_date"`
	Description   string         `json:"description" db:"description"`
	Status        ReminderStatus `json:"status" db:"status"`
	CompletedBy   *uuid.UUID     `json:"completedBy,omitempty" db:"completed_by"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
}

// ReminderView is a reminder joined with its patient for care-manager lists.
type ReminderView struct {
	Reminder
	FirstName       string  `json:"firstName" db:"first_name"`
	LastName        string  `json:"lastName" db:"last_name"`
	MRN             string  `json:"mrn" db:"mrn"`
	ClinicName      string  `json:"clinicName" db:"clinic_name"`
	CompletedByName *string `json:"completedByName,omitempty" db:"completed_by_name"`
	DaysOverdue     int     `json:"daysOverdue,omitempty" db:"-"`
}

type ReminderStats struct {
	Total     int `json:"totalReminders" db:"total_reminders"`
	Pending   int `json:"pendingReminders" db:"pending_reminders"`
	Completed int `json:"completedReminders" db:"completed_reminders"`
	Dismissed int `json:"dismissedReminders" db:"dismissed_reminders"`
	Overdue   int `json:"overdueReminders" db:"overdue_reminders"`
}

// CreateReminderRequest schedules a follow-up from a contact date.
type CreateReminderRequest struct {
	PatientID      uuid.UUID `json:"patientId" binding:"required"`
	CareManagerID  uuid.UUID `json:"careManagerId" binding:"required"`
	AssessmentType string    `json:"assessmentType" binding:"required"`
	ContactDate    string    `json:"contactDate"`
}

type UpdateReminderRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

// OverdueDigest groups a care manager's overdue reminders for the daily e-mail.
type OverdueDigest struct {
	CareManagerID    uuid.UUID
	CareManagerName  string
	CareManagerEmail string
	Reminders        []*ReminderView
}
