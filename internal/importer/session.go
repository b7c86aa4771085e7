package importer

import (
	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
)

type MappingStatus string

const (
	MappingMatched        MappingStatus = "matched"
	MappingCreated        MappingStatus = "created"
	MappingCreationFailed MappingStatus = "creation_failed"
)

// UserMappingInfo is one diagnostics row for administrator review of how a
// vendor worker id was resolved.
type UserMappingInfo struct {
	CsvID           string        `json:"csvId"`
	CsvName         string        `json:"csvName"`
	ActualName      string        `json:"actualName"`
	MatchedUserID   string        `json:"matchedUserId,omitempty"`
	MatchedUserName string        `json:"matchedUserName,omitempty"`
	Status          MappingStatus `json:"status"`
	Error           string        `json:"error,omitempty"`
}

// Session is the transient working set for one uploaded file. It lives for a
// single import request and is discarded with the response.
type Session struct {
	Mapping      map[string]uuid.UUID
	Diagnostics  []UserMappingInfo
	Errors       []string
	CreatedUsers int

	touched    []uuid.UUID
	touchedSet map[uuid.UUID]struct{}
}

func NewSession() *Session {
	return &Session{
		Mapping:    make(map[string]uuid.UUID),
		touchedSet: make(map[uuid.UUID]struct{}),
	}
}

// Touch records an attendance record id once, preserving first-touch order.
func (s *Session) Touch(id uuid.UUID) {
	if _, ok := s.touchedSet[id]; ok {
		return
	}
	s.touchedSet[id] = struct{}{}
	s.touched = append(s.touched, id)
}

func (s *Session) Touched() []uuid.UUID {
	return s.touched
}

func (s *Session) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Result is the response body of one import run.
type Result struct {
	Success      bool                        `json:"success"`
	Message      string                      `json:"message"`
	Count        int                         `json:"count"`
	Data         []domain.AttendanceExpanded `json:"data"`
	UserListInfo []UserMappingInfo           `json:"userListInfo"`
	Errors       []string                    `json:"errors,omitempty"`
}
