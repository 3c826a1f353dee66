package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/dashboard"
	"team-checkin/backend/internal/log"
)

const urlTTL = 15 * time.Minute

var (
	ErrNotConfigured = errors.New("export storage not configured")
	ErrStorage       = errors.New("storage error")
)

func IsErrNotConfigured(err error) bool { return errors.Is(err, ErrNotConfigured) }
func IsErrStorage(err error) bool       { return errors.Is(err, ErrStorage) }

// ObjectWriter stores one object in the export bucket.
type ObjectWriter interface {
	Write(ctx context.Context, object, contentType string, data []byte) error
}

// URLSigner issues a time-limited download link for an object.
type URLSigner interface {
	SignedURL(ctx context.Context, object string, expires time.Time) (string, error)
}

// Dashboards is satisfied by *dashboard.Service.
type Dashboards interface {
	Snapshot(ctx context.Context, coachUID, teamID, dateKey string) (*dashboard.Dashboard, []checkin.CheckIn, error)
}

type Report struct {
	TeamID      string              `json:"teamId"`
	DateKey     string              `json:"dateKey"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Dashboard   dashboard.Dashboard `json:"dashboard"`
	CheckIns    []checkin.CheckIn   `json:"checkIns"`
}

type Result struct {
	Object    string    `json:"object"`
	URL       string    `json:"url,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

type Service struct {
	dashboards Dashboards
	writer     ObjectWriter
	signer     URLSigner
	now        func() time.Time
}

// NewService returns an export service. A nil signer stores the report
// without returning a download link.
func NewService(dashboards Dashboards, writer ObjectWriter, signer URLSigner) *Service {
	return &Service{
		dashboards: dashboards,
		writer:     writer,
		signer:     signer,
		now:        time.Now,
	}
}

func ObjectPath(teamID, dateKey string) string {
	return docstore.Path("teams", teamID, "exports", dateKey) + ".json"
}

// ExportDay writes the coach dashboard and the raw check-ins of dateKey
// as one JSON object.
func (s *Service) ExportDay(ctx context.Context, coachUID, teamID, dateKey string) (*Result, error) {
	if s.writer == nil {
		return nil, ErrNotConfigured
	}
	d, todays, err := s.dashboards.Snapshot(ctx, coachUID, teamID, dateKey)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	body, err := json.MarshalIndent(Report{
		TeamID:      teamID,
		DateKey:     dateKey,
		GeneratedAt: now,
		Dashboard:   *d,
		CheckIns:    todays,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	object := ObjectPath(teamID, dateKey)
	if err := s.writer.Write(context.WithoutCancel(ctx), object, "application/json", body); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrStorage, object, err)
	}
	log.GetLogger(ctx).WithFields(logrus.Fields{"teamId": teamID, "object": object}).Info("day exported")

	res := &Result{Object: object}
	if s.signer == nil {
		return res, nil
	}
	exp := now.Add(urlTTL)
	url, err := s.signer.SignedURL(ctx, object, exp)
	if err != nil {
		return nil, fmt.Errorf("%w: sign url: %w", ErrStorage, err)
	}
	res.URL = url
	res.ExpiresAt = exp
	return res, nil
}
