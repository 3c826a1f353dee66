package http

import (
	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/export"
	"team-checkin/backend/internal/domain/reminders"
	"team-checkin/backend/internal/domain/team"
	"team-checkin/backend/internal/domain/user"
)

func mapTeamError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case team.IsErrInvalidInput(err):
		return 400, err.Error()
	case team.IsErrNotAuthenticated(err):
		return 401, err.Error()
	case team.IsErrNotAMember(err), team.IsErrForbidden(err):
		return 403, err.Error()
	case team.IsErrCodeNotFound(err):
		return 404, "invalid join code"
	case team.IsErrNotFound(err):
		return 404, err.Error()
	case team.IsErrCodeInactive(err):
		return 410, err.Error()
	case team.IsErrCorruptCode(err):
		return 409, err.Error()
	case team.IsErrExhaustedAttempts(err):
		return 503, "could not generate a join code, try again"
	default:
		return 500, internalMessage
	}
}

func mapCheckInError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case checkin.IsErrInvalidInput(err):
		return 400, err.Error()
	case checkin.IsErrNotFound(err):
		return 404, err.Error()
	case checkin.IsErrPersistence(err):
		return 500, internalMessage
	default:
		return mapTeamError(err)
	}
}

func mapUserError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case user.IsErrInvalidInput(err):
		return 400, err.Error()
	case user.IsErrNotAuthenticated(err):
		return 401, err.Error()
	case user.IsErrNotFound(err):
		return 404, err.Error()
	default:
		return 500, internalMessage
	}
}

func mapReminderError(err error) (int, string) {
	if reminders.IsErrNotConfigured(err) {
		return 501, err.Error()
	}
	return mapCheckInError(err)
}

func mapExportError(err error) (int, string) {
	switch {
	case export.IsErrNotConfigured(err):
		return 501, err.Error()
	case export.IsErrStorage(err):
		return 502, "export storage unavailable"
	}
	return mapCheckInError(err)
}
