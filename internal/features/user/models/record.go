package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	apperrors "picker-backend/internal/common/errors"
)

// Mapping keys of the persisted user representation.
const (
	KeyName               = "name"
	KeyTimesPicked        = "times_picked"
	KeyPickedThisInstance = "picked_this_instance"
	KeyTotalVictories     = "total_victories"
)

// Record is the plain key-value form a User is persisted as.
type Record map[string]any

var (
	// ErrMissingField matches (errors.Is) any FromMap failure caused by an absent required key.
	ErrMissingField = apperrors.New(apperrors.ErrCodeMissingField, "missing required field")
	// ErrInvalidField matches values that cannot be read as the field's type.
	ErrInvalidField = apperrors.New(apperrors.ErrCodeValidation, "invalid field")
)

// ToMap returns all four keys with the user's current values.
func (u *User) ToMap() Record {
	return Record{
		KeyName:               u.Name,
		KeyTimesPicked:        u.TimesPicked,
		KeyPickedThisInstance: u.PickedThisInstance,
		KeyTotalVictories:     u.TotalVictories,
	}
}

// FromMap builds a new User from a Record.
//
// name and times_picked are required. picked_this_instance and
// total_victories default to 0, which is how records written before
// victories were tracked are loaded.
func FromMap(data Record) (*User, error) {
	rawName, ok := data[KeyName]
	if !ok {
		return nil, apperrors.NewMissingFieldError(KeyName)
	}
	name, ok := rawName.(string)
	if !ok {
		return nil, apperrors.NewValidationError(KeyName, fmt.Sprintf("expected string, got %T", rawName))
	}

	rawPicked, ok := data[KeyTimesPicked]
	if !ok {
		return nil, apperrors.NewMissingFieldError(KeyTimesPicked)
	}
	timesPicked, err := toInt(KeyTimesPicked, rawPicked)
	if err != nil {
		return nil, err
	}

	pickedThisInstance, err := optionalInt(data, KeyPickedThisInstance)
	if err != nil {
		return nil, err
	}
	totalVictories, err := optionalInt(data, KeyTotalVictories)
	if err != nil {
		return nil, err
	}

	return NewUser(name,
		WithTimesPicked(timesPicked),
		WithPickedThisInstance(pickedThisInstance),
		WithTotalVictories(totalVictories),
	), nil
}

// RecordFromStrings converts a string hash (as returned by HGETALL) to a Record.
func RecordFromStrings(fields map[string]string) Record {
	rec := make(Record, len(fields))
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}

func optionalInt(data Record, key string) (int, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return 0, nil
	}
	return toInt(key, raw)
}

func toInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, outOfRange(field, v)
		}
		return int(n), nil
	case uint:
		if n > math.MaxInt {
			return 0, outOfRange(field, v)
		}
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return toInt(field, int64(n))
	case uint64:
		if n > math.MaxInt {
			return 0, outOfRange(field, v)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, apperrors.NewValidationError(field, fmt.Sprintf("expected integer, got %v", n))
		}
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive
		if n < math.MinInt || n >= math.MaxInt {
			return 0, outOfRange(field, v)
		}
		return int(n), nil
	case float32:
		return toInt(field, float64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, apperrors.NewValidationError(field, fmt.Sprintf("expected integer, got %q", n.String()))
		}
		return toInt(field, i)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, apperrors.NewValidationError(field, fmt.Sprintf("expected integer, got %q", n))
		}
		return i, nil
	default:
		return 0, apperrors.NewValidationError(field, fmt.Sprintf("expected integer, got %T", v))
	}
}

func outOfRange(field string, v any) error {
	return apperrors.NewValidationError(field, fmt.Sprintf("value %v out of range", v))
}
