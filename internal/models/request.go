package models

import (
	"errors"
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusVerified  RequestStatus = "verified"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusVerified, RequestStatusRejected, RequestStatusCompleted:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCompleted
}

// CanTransition reports whether the lifecycle permits moving from s to next.
// Allowed edges: pending → verified | rejected, verified → completed.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	switch s {
	case RequestStatusPending:
		return next == RequestStatusVerified || next == RequestStatusRejected
	case RequestStatusVerified:
		return next == RequestStatusCompleted
	}
	return false
}

var ErrInvalidTransition = errors.New("invalid status transition")

// MinScenarioLen is the minimum length of each memory scenario a customer
// must provide before a request is accepted.
const MinScenarioLen = 150

const ScenarioCount = 3

// UploadRef is a media asset durably accepted by the object store.
type UploadRef struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// GiftRequest is a customer's submitted order, tracked through the
// pending/verified/rejected/completed lifecycle. Only the admin transition
// operations mutate it after creation; the record is never deleted.
type GiftRequest struct {
	ID              string
	UserRef         string // submitting user's internal id
	RecipientName   string
	Occasion        Occasion
	OccasionDate    time.Time
	Scenarios       []string
	SongGenre       string
	Photos          []UploadRef
	Plan            Plan
	Message         string
	Status          RequestStatus
	RejectionReason string
	Audio           *UploadRef
	Lyrics          string
	SubmittedAt     time.Time
	VerifiedAt      *time.Time
	RejectedAt      *time.Time
	CompletedAt     *time.Time
}

// Transition mutates the request status after checking the lifecycle edge.
// On a disallowed edge the request is left untouched.
func (r *GiftRequest) Transition(next RequestStatus, now time.Time) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	switch next {
	case RequestStatusVerified:
		r.VerifiedAt = &now
	case RequestStatusRejected:
		r.RejectedAt = &now
	case RequestStatusCompleted:
		r.CompletedAt = &now
	}
	return nil
}
