// Package models defines data structures used throughout the application.
package models

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Submission is one user request to receive a content source as a cadence
// of messages.
type Submission struct {
	ID             uuid.UUID      `db:"submission_id" json:"submission_id"`
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	TextField      sql.NullString `db:"text_field" json:"text_field,omitempty"`
	UploadedFiles  pq.StringArray `db:"uploaded_files" json:"uploaded_files,omitempty"`
	Cadence        Cadence        `db:"cadence" json:"cadence"`
	Repeat         RepeatPolicy   `db:"repeat" json:"repeat"`
	Timezone       string         `db:"timezone" json:"timezone"`
	StartTime      time.Time      `db:"start_time" json:"start_time"`
	MessageToSend  uuid.NullUUID  `db:"message_to_send" json:"message_to_send,omitempty"`
	FirstMessageID uuid.NullUUID  `db:"first_message_id" json:"first_message_id,omitempty"`
	LastSentTime   sql.NullTime   `db:"last_sent_time" json:"last_sent_time,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// IsReady reports whether the message chain has been attached.
func (s *Submission) IsReady() bool {
	return s.MessageToSend.Valid && s.FirstMessageID.Valid
}

// Recipient is the contact part of the owning user, joined onto a submission
// for dispatch.
type Recipient struct {
	FirstName   string `db:"first_name" json:"first_name"`
	AreaCode    string `db:"area_code" json:"area_code"`
	PhoneNumber string `db:"phone_number" json:"phone_number"`
}

// Address returns the E.164-style destination "+<area code><number>".
func (r Recipient) Address() string {
	return strings.Join(strings.Fields("+"+r.AreaCode+r.PhoneNumber), "")
}

// DispatchCandidate is a submission joined with its owner's contact details.
type DispatchCandidate struct {
	Submission
	Recipient
}

// Message is one deliverable chunk of a submission. NextMessageID links the
// messages of a submission into a single cycle.
type Message struct {
	ID            uuid.UUID    `db:"message_id" json:"message_id"`
	SubmissionID  uuid.UUID    `db:"submission_id" json:"submission_id"`
	Text          string       `db:"message_text" json:"message_text"`
	NextMessageID uuid.UUID    `db:"next_message_to_send" json:"next_message_to_send"`
	Timezone      string       `db:"timezone" json:"timezone"`
	LastSentTime  sql.NullTime `db:"last_sent_time" json:"last_sent_time,omitempty"`
}

// User is read-only for the delivery core.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	AreaCode     string    `db:"area_code" json:"area_code"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	Timezone     string    `db:"timezone" json:"timezone"`
	IsSubscribed bool      `db:"is_subscribed" json:"is_subscribed"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Recipient returns the contact details of the user.
func (u *User) Recipient() Recipient {
	return Recipient{
		FirstName:   u.FirstName,
		AreaCode:    u.AreaCode,
		PhoneNumber: u.PhoneNumber,
	}
}
