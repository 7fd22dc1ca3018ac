package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// FlowKind identifies one of the guided-form conversations the bot runs.
type FlowKind string

const (
	FlowRegistration FlowKind = "registration"
	FlowLotCreation  FlowKind = "lot"
)

// Step names one stage of a flow. Step values are shared between the engine
// and the session store, so they must stay stable across releases.
type Step string

const (
	StepIdle Step = "idle"

	// Registration flow
	StepReview      Step = "review"
	StepLocation    Step = "location"
	StepWorkingTime Step = "working_time"
	StepCompleted   Step = "completed"
	StepClosed      Step = "closed"

	// Lot creation flow
	StepName            Step = "name"
	StepCategory        Step = "category"
	StepSubcategory     Step = "subcategory"
	StepMainPhoto       Step = "main_photo"
	StepAdditionalPhoto Step = "additional_photo"
	StepDescription     Step = "description"
	StepPrice           Step = "price"
	StepSubmitted       Step = "submitted"
)

// MaxPhotos is the hard cap on photos per lot: one main photo plus four
// additional ones.
const MaxPhotos = 5

// Well-known field names under which step answers accumulate.
const (
	FieldName        = "name"
	FieldChatURL     = "chat_url"
	FieldParentID    = "parent_id"
	FieldCategoryID  = "category_id"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldRegion      = "region"
	FieldAddress     = "address"
	FieldLat         = "lat"
	FieldLon         = "lon"
	FieldWorkStart   = "work_start"
	FieldWorkEnd     = "work_end"
)

// Session is the per-user accumulator for one in-progress flow. It is a plain
// data document: the engine mutates it and the session store serializes it.
type Session struct {
	ID         string            `json:"id"`
	UserID     int64             `json:"user_id"`
	Flow       FlowKind          `json:"flow"`
	Step       Step              `json:"step"`
	Fields     map[string]string `json:"fields"`
	Photos     []string          `json:"photos,omitempty"`
	Categories []Category        `json:"categories,omitempty"`
	LastError  string            `json:"last_error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSession creates a fresh session for the given user and flow, positioned
// at the flow's first interactive step.
func NewSession(userID int64, flow FlowKind, step Step) *Session {
	now := time.Now()
	return &Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		UserID:    userID,
		Flow:      flow,
		Step:      step,
		Fields:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetField merges one collected answer into the accumulator.
func (s *Session) SetField(name, value string) {
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	s.Fields[name] = value
}

// AddPhoto appends a photo source URI. It reports false when the session is
// already at capacity.
func (s *Session) AddPhoto(uri string) bool {
	if len(s.Photos) >= MaxPhotos {
		return false
	}
	s.Photos = append(s.Photos, uri)
	return true
}

// RemainingPhotos returns how many additional photos the user may still send.
func (s *Session) RemainingPhotos() int {
	return MaxPhotos - len(s.Photos)
}

// Touch refreshes the modification timestamp; stores use it to renew TTLs.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}

// Clone returns a deep copy sharing no mutable state with the receiver.
// In-memory stores hand out clones so callers cannot write through to the
// stored document without an explicit Save.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Fields != nil {
		cp.Fields = make(map[string]string, len(s.Fields))
		for k, v := range s.Fields {
			cp.Fields[k] = v
		}
	}
	if s.Photos != nil {
		cp.Photos = append([]string(nil), s.Photos...)
	}
	if s.Categories != nil {
		cp.Categories = append([]Category(nil), s.Categories...)
	}
	return &cp
}
