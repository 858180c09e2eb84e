package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the login account (the principal). Authentication state lives
// here; everything descriptive about the person lives on Profile.
//
// SuspendedUntil is the soft-delete mechanism: accounts are never removed,
// because assignments and results reference athletes by ID and those rows
// must stay resolvable indefinitely. A suspended account simply can no
// longer log in and disappears from the active-account listing.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Suspended reports whether the account is currently barred from
// authenticating.
func (u *User) Suspended(now time.Time) bool {
	return u.SuspendedUntil != nil && u.SuspendedUntil.After(now)
}

// Profile is one-to-one with User. Role is stored as plain text here and
// given a typed wrapper in the policy package; Gender is only meaningful
// when Role is "athlete" and is kept NULL for coaching staff.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Gender    *string   `json:"gender,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account is the joined users+profiles view returned by account listings.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Gender    *string   `json:"gender,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Meet is a competition (e.g. "County Invitational").
type Meet struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	MeetDate  time.Time `json:"meet_date"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// MeetEvent is one event held at one meet ("100m" at "County Invitational").
// (meet_id, name) is unique; rows are created on first use and resolving the
// same pair always returns the same row.
type MeetEvent struct {
	ID     uuid.UUID `json:"id"`
	MeetID uuid.UUID `json:"meet_id"`
	Name   string    `json:"name"`
}

// Assignment statuses. An assignment is a plan, so a repeated write for the
// same (event, athlete) pair overwrites the status in place.
const (
	AssignmentStatusAssigned  = "assigned"
	AssignmentStatusAlternate = "alternate"
)

type Assignment struct {
	ID          uuid.UUID `json:"id"`
	MeetEventID uuid.UUID `json:"meet_event_id"`
	AthleteID   uuid.UUID `json:"athlete_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssignmentDetail is an assignment joined with the names needed to render
// it (and to print meet sheets) without extra lookups.
type AssignmentDetail struct {
	Assignment
	EventName   string `json:"event_name"`
	AthleteName string `json:"athlete_name"`
}

// Result records an attested outcome. Unlike Assignment, a second write for
// the same (event, athlete) pair is rejected — overwriting an official mark
// would hide data-entry mistakes. Mark is free text ("10.90", "5.43m").
type Result struct {
	ID          uuid.UUID `json:"id"`
	MeetEventID uuid.UUID `json:"meet_event_id"`
	AthleteID   uuid.UUID `json:"athlete_id"`
	Mark        string    `json:"mark"`
	Place       *int32    `json:"place,omitempty"`
	Points      *float64  `json:"points,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ResultDetail struct {
	Result
	EventName   string `json:"event_name"`
	AthleteName string `json:"athlete_name"`
}

type Announcement struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Body      *string   `json:"body,omitempty"`
	Pinned    bool      `json:"pinned"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Thread is a conversation. Creation is restricted to coaching staff; every
// read and write on its messages is gated on a ThreadParticipant row naming
// the requester.
type Thread struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Subject   *string   `json:"subject,omitempty"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ThreadParticipant struct {
	ThreadID   uuid.UUID  `json:"thread_id"`
	UserID     uuid.UUID  `json:"user_id"`
	AddedBy    uuid.UUID  `json:"added_by"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

// Message is immutable once created: there is no edit or delete path
// anywhere in the system.
//
// Messages use int64 (bigserial) IDs rather than UUIDs: they are the
// highest-volume table and the monotonic ID doubles as the pagination
// cursor.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  uuid.UUID `json:"thread_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadSummary is what the inbox lists and what the realtime hub pushes
// after a change notification.
type ThreadSummary struct {
	Thread
	LastMessageBody *string    `json:"last_message_body,omitempty"`
	LastMessageAt   *time.Time `json:"last_message_at,omitempty"`
	Unread          bool       `json:"unread"`
}
