package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	apperrors "picker-backend/internal/common/errors"
)

const (
	// SnapshotVersionLegacy documents predate victory tracking; their records
	// have no total_victories key. A bare JSON array of records is also read as v1.
	SnapshotVersionLegacy = 1
	// SnapshotVersion is written by NewSnapshot.
	SnapshotVersion = 2
)

// Snapshot is the versioned export/import envelope of a whole roster.
type Snapshot struct {
	Version int      `json:"version"`
	Users   []Record `json:"users"`
}

func NewSnapshot(users []*User) *Snapshot {
	records := make([]Record, 0, len(users))
	for _, u := range users {
		records = append(records, u.ToMap())
	}
	return &Snapshot{Version: SnapshotVersion, Users: records}
}

// DecodeSnapshot parses an envelope or a bare record array.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "empty snapshot")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var records []Record
		if err := dec.Decode(&records); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "malformed snapshot")
		}
		return &Snapshot{Version: SnapshotVersionLegacy, Users: records}, nil
	}

	// users is a pointer so an absent key can be told apart from an empty list
	var env struct {
		Version int       `json:"version"`
		Users   *[]Record `json:"users"`
	}
	if err := dec.Decode(&env); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "malformed snapshot")
	}
	if env.Users == nil {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "snapshot has no users list").
			WithDetail("field", "users")
	}

	s := &Snapshot{Version: env.Version, Users: *env.Users}
	if s.Version == 0 {
		s.Version = SnapshotVersionLegacy
	}
	if s.Version < 0 || s.Version > SnapshotVersion {
		return nil, apperrors.NewValidationError("version", fmt.Sprintf("unsupported snapshot version %d", s.Version))
	}
	return s, nil
}

// Decode converts every record, failing on the first bad one.
func (s *Snapshot) Decode() ([]*User, error) {
	users := make([]*User, 0, len(s.Users))
	for i, rec := range s.Users {
		u, err := FromMap(rec)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}
