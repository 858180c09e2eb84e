package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
)

// In-memory repositories mirroring the Postgres stores' contracts: nil, nil
// for not-found, the conflict sentinels for the two uniqueness policies, and
// merge-vs-reject semantics matching the SQL.

type fakeProfiles struct {
	profiles map[uuid.UUID]*models.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[uuid.UUID]*models.Profile)}
}

func (f *fakeProfiles) add(id uuid.UUID, role string, gender *string) {
	f.profiles[id] = &models.Profile{UserID: id, FullName: "Test " + role, Role: role, Gender: gender}
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	return f.profiles[userID], nil
}

type fakeAccounts struct {
	profiles  *fakeProfiles
	accounts  map[uuid.UUID]*models.Account
	emails    map[string]uuid.UUID
	suspended map[uuid.UUID]time.Time

	// failProfile simulates the profile insert failing inside the create
	// transaction: the whole operation errors and no user row survives.
	failProfile bool
}

func newFakeAccounts(profiles *fakeProfiles) *fakeAccounts {
	return &fakeAccounts{
		profiles:  profiles,
		accounts:  make(map[uuid.UUID]*models.Account),
		emails:    make(map[string]uuid.UUID),
		suspended: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeAccounts) CreateAccount(_ context.Context, p repository.CreateAccountParams) (*models.Account, error) {
	if _, taken := f.emails[p.Email]; taken {
		return nil, repository.ErrDuplicateEmail
	}
	if f.failProfile {
		return nil, fmt.Errorf("insert profile: simulated failure")
	}
	acc := &models.Account{
		ID:       uuid.New(),
		Email:    p.Email,
		FullName: p.FullName,
		Role:     p.Role,
		Gender:   p.Gender,
		Phone:    p.Phone,
	}
	f.accounts[acc.ID] = acc
	f.emails[p.Email] = acc.ID
	f.profiles.profiles[acc.ID] = &models.Profile{
		UserID: acc.ID, FullName: p.FullName, Role: p.Role, Gender: p.Gender, Phone: p.Phone,
	}
	return acc, nil
}

func (f *fakeAccounts) UpdateAccount(_ context.Context, id uuid.UUID, email, fullName, role string, gender, phone *string) (*models.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	if owner, taken := f.emails[email]; taken && owner != id {
		return nil, repository.ErrDuplicateEmail
	}
	delete(f.emails, acc.Email)
	f.emails[email] = id
	acc.Email = email
	acc.FullName = fullName
	acc.Role = role
	acc.Gender = gender
	acc.Phone = phone
	f.profiles.profiles[id] = &models.Profile{
		UserID: id, FullName: fullName, Role: role, Gender: gender, Phone: phone,
	}
	return acc, nil
}

func (f *fakeAccounts) Suspend(_ context.Context, id uuid.UUID, until time.Time) error {
	f.suspended[id] = until
	return nil
}

func (f *fakeAccounts) ListActive(_ context.Context) ([]models.Account, error) {
	out := make([]models.Account, 0)
	now := time.Now()
	for id, acc := range f.accounts {
		if until, ok := f.suspended[id]; ok && until.After(now) {
			continue
		}
		out = append(out, *acc)
	}
	return out, nil
}

func (f *fakeAccounts) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *acc
	return &cp, nil
}

type fakeMeets struct {
	meets map[uuid.UUID]*models.Meet
}

func newFakeMeets() *fakeMeets {
	return &fakeMeets{meets: make(map[uuid.UUID]*models.Meet)}
}

func (f *fakeMeets) add() uuid.UUID {
	m := &models.Meet{ID: uuid.New(), Name: "County Invitational", Location: "City Stadium"}
	f.meets[m.ID] = m
	return m.ID
}

func (f *fakeMeets) Create(_ context.Context, name, location string, meetDate time.Time, notes *string, createdBy uuid.UUID) (*models.Meet, error) {
	m := &models.Meet{ID: uuid.New(), Name: name, Location: location, MeetDate: meetDate, Notes: notes, CreatedBy: createdBy}
	f.meets[m.ID] = m
	return m, nil
}

func (f *fakeMeets) GetByID(_ context.Context, id uuid.UUID) (*models.Meet, error) {
	return f.meets[id], nil
}

func (f *fakeMeets) List(_ context.Context) ([]models.Meet, error) {
	out := make([]models.Meet, 0)
	for _, m := range f.meets {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMeets) Update(_ context.Context, id uuid.UUID, name, location string, meetDate time.Time, notes *string) (*models.Meet, error) {
	m, ok := f.meets[id]
	if !ok {
		return nil, nil
	}
	m.Name, m.Location, m.MeetDate, m.Notes = name, location, meetDate, notes
	return m, nil
}

func (f *fakeMeets) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.meets, id)
	return nil
}

type fakeMeetEvents struct {
	byKey map[string]*models.MeetEvent
	byID  map[uuid.UUID]*models.MeetEvent
}

func newFakeMeetEvents() *fakeMeetEvents {
	return &fakeMeetEvents{
		byKey: make(map[string]*models.MeetEvent),
		byID:  make(map[uuid.UUID]*models.MeetEvent),
	}
}

func eventKey(meetID uuid.UUID, name string) string {
	return meetID.String() + "|" + name
}

func (f *fakeMeetEvents) Resolve(_ context.Context, meetID uuid.UUID, name string) (*models.MeetEvent, error) {
	if e, ok := f.byKey[eventKey(meetID, name)]; ok {
		return e, nil
	}
	e := &models.MeetEvent{ID: uuid.New(), MeetID: meetID, Name: name}
	f.byKey[eventKey(meetID, name)] = e
	f.byID[e.ID] = e
	return e, nil
}

func (f *fakeMeetEvents) GetByID(_ context.Context, id uuid.UUID) (*models.MeetEvent, error) {
	return f.byID[id], nil
}

func (f *fakeMeetEvents) ListByMeet(_ context.Context, meetID uuid.UUID) ([]models.MeetEvent, error) {
	out := make([]models.MeetEvent, 0)
	for _, e := range f.byID {
		if e.MeetID == meetID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeAssignments struct {
	events   *fakeMeetEvents
	profiles *fakeProfiles
	byPair   map[string]*models.Assignment
	byID     map[uuid.UUID]*models.Assignment
}

func newFakeAssignments(events *fakeMeetEvents, profiles *fakeProfiles) *fakeAssignments {
	return &fakeAssignments{
		events:   events,
		profiles: profiles,
		byPair:   make(map[string]*models.Assignment),
		byID:     make(map[uuid.UUID]*models.Assignment),
	}
}

func pairKey(eventID, athleteID uuid.UUID) string {
	return eventID.String() + "|" + athleteID.String()
}

func (f *fakeAssignments) GetByEventAthlete(_ context.Context, meetEventID, athleteID uuid.UUID) (*models.Assignment, error) {
	a, ok := f.byPair[pairKey(meetEventID, athleteID)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssignments) Upsert(_ context.Context, meetEventID, athleteID uuid.UUID, status string) (*models.Assignment, error) {
	key := pairKey(meetEventID, athleteID)
	if a, ok := f.byPair[key]; ok {
		a.Status = status
		a.UpdatedAt = time.Now()
		cp := *a
		return &cp, nil
	}
	a := &models.Assignment{
		ID:          uuid.New(),
		MeetEventID: meetEventID,
		AthleteID:   athleteID,
		Status:      status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.byPair[key] = a
	f.byID[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAssignments) Delete(_ context.Context, id uuid.UUID) error {
	a, ok := f.byID[id]
	if !ok {
		return nil
	}
	delete(f.byPair, pairKey(a.MeetEventID, a.AthleteID))
	delete(f.byID, id)
	return nil
}

func (f *fakeAssignments) detail(a *models.Assignment) models.AssignmentDetail {
	d := models.AssignmentDetail{Assignment: *a}
	if e, ok := f.events.byID[a.MeetEventID]; ok {
		d.EventName = e.Name
	}
	if p, ok := f.profiles.profiles[a.AthleteID]; ok {
		d.AthleteName = p.FullName
	}
	return d
}

func (f *fakeAssignments) ListByMeet(_ context.Context, meetID uuid.UUID) ([]models.AssignmentDetail, error) {
	out := make([]models.AssignmentDetail, 0)
	for _, a := range f.byID {
		if e, ok := f.events.byID[a.MeetEventID]; ok && e.MeetID == meetID {
			out = append(out, f.detail(a))
		}
	}
	return out, nil
}

func (f *fakeAssignments) ListByMeetForAthlete(_ context.Context, meetID, athleteID uuid.UUID) ([]models.AssignmentDetail, error) {
	out := make([]models.AssignmentDetail, 0)
	for _, a := range f.byID {
		if a.AthleteID != athleteID {
			continue
		}
		if e, ok := f.events.byID[a.MeetEventID]; ok && e.MeetID == meetID {
			out = append(out, f.detail(a))
		}
	}
	return out, nil
}

type fakeResults struct {
	events *fakeMeetEvents
	byPair map[string]*models.Result
	byID   map[uuid.UUID]*models.Result
}

func newFakeResults(events *fakeMeetEvents) *fakeResults {
	return &fakeResults{
		events: events,
		byPair: make(map[string]*models.Result),
		byID:   make(map[uuid.UUID]*models.Result),
	}
}

func (f *fakeResults) Create(_ context.Context, p repository.CreateResultParams) (*models.Result, error) {
	key := pairKey(p.MeetEventID, p.AthleteID)
	if _, exists := f.byPair[key]; exists {
		return nil, repository.ErrDuplicateResult
	}
	r := &models.Result{
		ID:          uuid.New(),
		MeetEventID: p.MeetEventID,
		AthleteID:   p.AthleteID,
		Mark:        p.Mark,
		Place:       p.Place,
		Points:      p.Points,
		Notes:       p.Notes,
		CreatedAt:   time.Now(),
	}
	f.byPair[key] = r
	f.byID[r.ID] = r
	cp := *r
	return &cp, nil
}

func (f *fakeResults) Delete(_ context.Context, id uuid.UUID) error {
	r, ok := f.byID[id]
	if !ok {
		return nil
	}
	delete(f.byPair, pairKey(r.MeetEventID, r.AthleteID))
	delete(f.byID, id)
	return nil
}

func (f *fakeResults) ListByMeet(_ context.Context, meetID uuid.UUID) ([]models.ResultDetail, error) {
	out := make([]models.ResultDetail, 0)
	for _, r := range f.byID {
		if e, ok := f.events.byID[r.MeetEventID]; ok && e.MeetID == meetID {
			out = append(out, models.ResultDetail{Result: *r, EventName: e.Name})
		}
	}
	return out, nil
}

func (f *fakeResults) ListByMeetForAthlete(_ context.Context, meetID, athleteID uuid.UUID) ([]models.ResultDetail, error) {
	out := make([]models.ResultDetail, 0)
	for _, r := range f.byID {
		if r.AthleteID != athleteID {
			continue
		}
		if e, ok := f.events.byID[r.MeetEventID]; ok && e.MeetID == meetID {
			out = append(out, models.ResultDetail{Result: *r, EventName: e.Name})
		}
	}
	return out, nil
}

func (f *fakeResults) ListByAthlete(_ context.Context, athleteID uuid.UUID) ([]models.ResultDetail, error) {
	out := make([]models.ResultDetail, 0)
	for _, r := range f.byID {
		if r.AthleteID == athleteID {
			out = append(out, models.ResultDetail{Result: *r})
		}
	}
	return out, nil
}

// testWorld bundles the fakes with a coach, an assistant coach, and an
// athlete already on the roster.
type testWorld struct {
	profiles    *fakeProfiles
	accounts    *fakeAccounts
	meets       *fakeMeets
	events      *fakeMeetEvents
	assignments *fakeAssignments
	results     *fakeResults
	authz       *policy.Authorizer

	coachID     uuid.UUID
	assistantID uuid.UUID
	athleteID   uuid.UUID
}

func newTestWorld() *testWorld {
	profiles := newFakeProfiles()
	events := newFakeMeetEvents()
	w := &testWorld{
		profiles:    profiles,
		accounts:    newFakeAccounts(profiles),
		meets:       newFakeMeets(),
		events:      events,
		assignments: newFakeAssignments(events, profiles),
		results:     newFakeResults(events),
		authz:       policy.NewAuthorizer(profiles),
		coachID:     uuid.New(),
		assistantID: uuid.New(),
		athleteID:   uuid.New(),
	}
	female := "female"
	w.profiles.add(w.coachID, "coach", nil)
	w.profiles.add(w.assistantID, "assistant_coach", nil)
	w.profiles.add(w.athleteID, "athlete", &female)
	return w
}
