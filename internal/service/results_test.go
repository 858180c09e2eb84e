package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResultService(w *testWorld) *ResultService {
	return NewResultService(w.events, w.results, w.profiles, w.authz)
}

func (w *testWorld) eventID(t *testing.T) uuid.UUID {
	t.Helper()
	meetID := w.meets.add()
	event, err := w.events.Resolve(context.Background(), meetID, "100m")
	require.NoError(t, err)
	return event.ID
}

func TestCreateResult(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	result, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.41",
		Place:       "2",
		Points:      "8",
	})
	require.NoError(t, err)

	assert.Equal(t, "12.41", result.Mark)
	require.NotNil(t, result.Place)
	assert.Equal(t, int32(2), *result.Place)
	require.NotNil(t, result.Points)
	assert.Equal(t, float64(8), *result.Points)
}

// A second result for the same (event, athlete) pair is rejected, and the
// original mark survives untouched.
func TestCreateResultRejectsDuplicate(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	first, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.41",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.02",
	})
	var svcErr Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 409, svcErr.Status)
	assert.Equal(t, DuplicateResultMessage, svcErr.Message)

	// The stored mark is the original, never the rejected overwrite.
	stored := w.results.byID[first.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "12.41", stored.Mark)
	assert.Len(t, w.results.byID, 1)
}

// Delete frees the pair: delete-then-create succeeds where create alone
// conflicted.
func TestDeleteResultFreesPair(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	first, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.41",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), w.coachID, first.ID))

	second, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.02",
	})
	require.NoError(t, err)
	assert.Equal(t, "12.02", second.Mark)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateResultNumericValidation(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	tests := []struct {
		name   string
		place  string
		points string
		field  string
	}{
		{"non-numeric place", "second", "", "place"},
		{"fractional place", "2.5", "", "place"},
		{"non-numeric points", "", "eight", "points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
				MeetEventID: eventID,
				AthleteID:   w.athleteID,
				Mark:        "12.41",
				Place:       tt.place,
				Points:      tt.points,
			})
			var svcErr Error
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, 422, svcErr.Status)
			assert.Contains(t, svcErr.Message, tt.field)
		})
	}

	// Validation happens before storage: no rows were written.
	assert.Empty(t, w.results.byID)
}

// Empty place/points mean "not provided" and store as NULL, never as zero.
func TestCreateResultEmptyOptionalFields(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	result, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "5.43m",
		Place:       "",
		Points:      "  ",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Place)
	assert.Nil(t, result.Points)
}

func TestCreateResultRequiresMarkAndAthlete(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	_, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
	})
	var svcErr Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 422, svcErr.Status)

	// A coach's ID is not a valid athlete reference.
	_, err = svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.coachID,
		Mark:        "12.41",
	})
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 422, svcErr.Status)
	assert.Contains(t, svcErr.Message, "athlete_id")
}

func TestCreateResultRequiresCoachingStaff(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	_, err := svc.Create(context.Background(), w.athleteID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.41",
	})
	var svcErr Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 403, svcErr.Status)
}

func TestListForAthleteDeniedReadIsEmptyNotError(t *testing.T) {
	w := newTestWorld()
	svc := newResultService(w)
	eventID := w.eventID(t)

	_, err := svc.Create(context.Background(), w.coachID, CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   w.athleteID,
		Mark:        "12.41",
	})
	require.NoError(t, err)

	female := "female"
	otherAthlete := uuid.New()
	w.profiles.add(otherAthlete, "athlete", &female)

	// Another athlete asking for someone else's results gets an empty list,
	// indistinguishable from an athlete with no results.
	rows, err := svc.ListForAthlete(context.Background(), otherAthlete, w.athleteID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	// Self and staff see the row.
	rows, err = svc.ListForAthlete(context.Background(), w.athleteID, w.athleteID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.ListForAthlete(context.Background(), w.assistantID, w.athleteID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
