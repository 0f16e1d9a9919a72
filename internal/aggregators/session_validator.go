package aggregators

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ocstat/internal/models"
	"ocstat/internal/shared/validators"
)

type recordFields struct {
	Username        string `validate:"required,max=128"`
	BytesIn         string `validate:"required,uintstr"`
	BytesOut        string `validate:"required,uintstr"`
	DurationSeconds string `validate:"required,uintstr"`
}

// SessionValidator turns raw records into usages.
type SessionValidator struct {
	validate          *validators.Validate
	usernameSeparator string
}

func NewSessionValidator(usernameSeparator string) *SessionValidator {
	return &SessionValidator{validate: validators.New(), usernameSeparator: usernameSeparator}
}

// Username returns the account a record is billed to.
func (v *SessionValidator) Username(rec models.SessionRecord) string {
	return models.NormalizeUsername(rec.Username, v.usernameSeparator)
}

// ValidateConnect checks the fields a connect event needs.
func (v *SessionValidator) ValidateConnect(rec models.SessionRecord) error {
	if v.Username(rec) == "" {
		return errors.New("username: required")
	}
	return nil
}

// ValidateDisconnect parses the numeric fields of a disconnect event.
// A zero timestamp is replaced by receivedAt.
func (v *SessionValidator) ValidateDisconnect(rec models.SessionRecord, receivedAt time.Time) (models.SessionUsage, error) {
	fields := recordFields{
		Username:        v.Username(rec),
		BytesIn:         strings.TrimSpace(rec.BytesIn),
		BytesOut:        strings.TrimSpace(rec.BytesOut),
		DurationSeconds: strings.TrimSpace(rec.DurationSeconds),
	}
	if err := v.validate.Struct(&fields); err != nil {
		return models.SessionUsage{}, describe(err)
	}

	// Validation above guarantees these parse.
	bytesIn, _ := validators.ParseUint(fields.BytesIn)
	bytesOut, _ := validators.ParseUint(fields.BytesOut)
	duration, _ := validators.ParseUint(fields.DurationSeconds)

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = receivedAt
	}
	return models.SessionUsage{
		Username:        fields.Username,
		BytesIn:         bytesIn,
		BytesOut:        bytesOut,
		DurationSeconds: duration,
		Timestamp:       ts,
	}, nil
}

// describe renders validation errors as "field: problem" pairs.
func describe(err error) error {
	var ve validators.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	problems := make([]string, 0, len(ve))
	for _, fe := range ve {
		problem := fe.Tag()
		if fe.Tag() == validators.TagUintString {
			problem = fmt.Sprintf("not a non-negative integer: %q", fe.Value())
		}
		problems = append(problems, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), problem))
	}
	return errors.New(strings.Join(problems, "; "))
}
