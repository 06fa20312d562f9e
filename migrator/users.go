package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"toggl2clockify/clockify"
	"toggl2clockify/toggl"
)

// MatchVia names the rule that mapped a Toggl user to a Clockify email.
type MatchVia int

const (
	MatchEmail MatchVia = iota
	MatchUsername
	MatchFallback
	MatchExcluded
)

func (v MatchVia) String() string {
	switch v {
	case MatchEmail:
		return "email"
	case MatchUsername:
		return "username"
	case MatchFallback:
		return "fallback"
	case MatchExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// UserMatch is the Clockify email an entry is attributed to. Email is empty
// when Via is MatchExcluded.
type UserMatch struct {
	Email string
	Via   MatchVia
}

func (m UserMatch) Excluded() bool {
	return m.Via == MatchExcluded
}

func isNotFound(err error) bool {
	return errors.Is(err, toggl.ErrNotFound) || errors.Is(err, clockify.ErrNotFound)
}

// VerifyEmail maps a Toggl user to a Clockify email. It tries the user's
// Toggl email, then a Clockify user with the same display name (looked up on
// Toggl when the report row carries none), then
// exclusion when invalid users are skipped, then the fallback email.
func (m *Migrator) VerifyEmail(ctx context.Context, ws workspace, togglUserID int64, username string) (UserMatch, error) {
	email, err := m.source.UserEmail(ctx, ws.togglID, togglUserID)
	switch {
	case err == nil:
		_, err = m.target.UserIDByEmail(ctx, ws.targetID, email)
		if err == nil {
			return UserMatch{Email: email, Via: MatchEmail}, nil
		}
		if !isNotFound(err) {
			return UserMatch{}, err
		}
	case !isNotFound(err):
		return UserMatch{}, err
	}

	if username == "" {
		username, err = m.source.Username(ctx, ws.togglID, togglUserID)
		if err != nil && !isNotFound(err) {
			return UserMatch{}, err
		}
	}

	userID, err := m.target.UserIDByName(ctx, ws.targetID, username)
	switch {
	case err == nil:
		email, err := m.target.EmailByUserID(ctx, ws.targetID, userID)
		if err != nil {
			return UserMatch{}, err
		}
		m.log.Info("toggl user matched by name",
			slog.Int64("toggl_user", togglUserID),
			slog.String("name", username),
			slog.String("email", email),
		)
		return UserMatch{Email: email, Via: MatchUsername}, nil
	case !isNotFound(err):
		return UserMatch{}, err
	}

	if m.options.SkipInvalidUsers {
		return UserMatch{Via: MatchExcluded}, nil
	}
	if fallback := m.target.FallbackEmail(); fallback != "" {
		m.log.Info("toggl user not found in clockify, using fallback user",
			slog.Int64("toggl_user", togglUserID),
			slog.String("name", username),
			slog.String("fallback", fallback),
		)
		return UserMatch{Email: fallback, Via: MatchFallback}, nil
	}
	return UserMatch{}, fmt.Errorf("toggl user %d (%s): %w", togglUserID, username, ErrUserNotResolvable)
}
