package reminders

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/domain/dashboard"
	"team-checkin/backend/internal/log"
)

var (
	ErrNotConfigured = errors.New("push messaging not configured")
	ErrPersistence   = errors.New("persistence error")
)

func IsErrNotConfigured(err error) bool { return errors.Is(err, ErrNotConfigured) }

// Sender is satisfied by *messaging.Client.
type Sender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Dashboards interface {
	Today(ctx context.Context, coachUID, teamID, dateKey string) (*dashboard.Dashboard, error)
}

type Devices interface {
	Tokens(ctx context.Context, uid string) ([]string, error)
	DropTokens(ctx context.Context, uid string, tokens []string) error
}

type Result struct {
	DateKey  string `json:"dateKey"`
	Missing  int    `json:"missing"`
	Notified int    `json:"notified"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
}

type Service struct {
	dashboards Dashboards
	devices    Devices
	sender     Sender
	isStale    func(error) bool
}

// NewService returns a reminder service. A nil sender disables delivery.
func NewService(dashboards Dashboards, devices Devices, sender Sender) *Service {
	return &Service{
		dashboards: dashboards,
		devices:    devices,
		sender:     sender,
		isStale:    messaging.IsUnregistered,
	}
}

// NudgeMissing pushes a reminder to every athlete without a check-in for
// dateKey. Tokens the provider reports as unregistered are forgotten.
func (s *Service) NudgeMissing(ctx context.Context, coachUID, teamID, dateKey string) (*Result, error) {
	if s.sender == nil {
		return nil, ErrNotConfigured
	}
	d, err := s.dashboards.Today(ctx, coachUID, teamID, dateKey)
	if err != nil {
		return nil, err
	}

	logger := log.GetLogger(ctx).WithFields(logrus.Fields{"teamId": teamID, "dateKey": dateKey})
	res := &Result{DateKey: dateKey, Missing: d.MissingCount}

	for _, a := range d.Missing {
		tokens, err := s.devices.Tokens(ctx, a.UID)
		if err != nil {
			return nil, fmt.Errorf("%w: load device tokens: %w", ErrPersistence, err)
		}
		if len(tokens) == 0 {
			continue
		}

		resp, err := s.sender.SendEachForMulticast(ctx, message(a, teamID, dateKey, tokens))
		if err != nil {
			logger.WithError(err).WithField("uid", a.UID).Warn("reminder not delivered")
			res.Failed += len(tokens)
			continue
		}
		res.Notified++

		var stale []string
		for i, r := range resp.Responses {
			if r.Success {
				res.Sent++
				continue
			}
			res.Failed++
			if i < len(tokens) && s.isStale(r.Error) {
				stale = append(stale, tokens[i])
			}
		}
		if err := s.devices.DropTokens(ctx, a.UID, stale); err != nil {
			logger.WithError(err).WithField("uid", a.UID).Warn("could not drop stale tokens")
		}
	}

	logger.WithFields(logrus.Fields{"sent": res.Sent, "failed": res.Failed}).Info("check-in reminders sent")
	return res, nil
}

func message(a dashboard.Athlete, teamID, dateKey string, tokens []string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: "Daily check-in",
			Body:  fmt.Sprintf("Hi %s, your check-in for %s is still open.", a.Name, dateKey),
		},
		Data: map[string]string{
			"type":    "checkin_reminder",
			"teamId":  teamID,
			"dateKey": dateKey,
		},
	}
}
