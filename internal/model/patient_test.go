package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    PatientStatus
		event   PatientEvent
		want    PatientStatus
		wantErr bool
	}{
		{"first intake activates enrolled", PatientStatusEnrolled, EventFirstIntake, PatientStatusActive, false},
		{"first intake keeps active", PatientStatusActive, EventFirstIntake, PatientStatusActive, false},
		{"first intake keeps transitional", PatientStatusTransitional, EventFirstIntake, PatientStatusTransitional, false},
		{"first intake never reactivates", PatientStatusDeactivated, EventFirstIntake, PatientStatusDeactivated, false},
		{"deactivate enrolled", PatientStatusEnrolled, EventDeactivate, PatientStatusDeactivated, false},
		{"deactivate relapse prevention", PatientStatusRelapsePrevention, EventDeactivate, PatientStatusDeactivated, false},
		{"deactivate twice", PatientStatusDeactivated, EventDeactivate, PatientStatusDeactivated, false},
		{"unknown event", PatientStatusActive, PatientEvent("reopen"), PatientStatusActive, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Transition(tt.event)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				var rejected *ErrTransitionRejected
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, tt.from, rejected.From)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPatientAge(t *testing.T) {
	p := &Patient{DateOfBirth: NewDate(2003, time.June, 15)}

	assert.Equal(t, 20, p.AgeOn(NewDate(2024, time.June, 14)))
	assert.Equal(t, 21, p.AgeOn(NewDate(2024, time.June, 15)))
	assert.True(t, p.IsPediatricOn(NewDate(2025, time.June, 14)))
	assert.False(t, p.IsPediatricOn(NewDate(2025, time.June, 15)))

	unborn := &Patient{DateOfBirth: NewDate(2030, time.January, 1)}
	assert.False(t, unborn.IsPediatricOn(NewDate(2024, time.January, 1)))
}
