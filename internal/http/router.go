package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/config"
	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/dashboard"
	"team-checkin/backend/internal/domain/export"
	"team-checkin/backend/internal/domain/reminders"
	"team-checkin/backend/internal/domain/team"
	"team-checkin/backend/internal/domain/user"
	"team-checkin/backend/internal/log"
	"team-checkin/backend/internal/middleware"
)

// TokenRevoker is satisfied by *auth.Client.
type TokenRevoker interface {
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type RouterDeps struct {
	Cfg          config.Config
	Verifier     middleware.TokenVerifier
	Revoker      TokenRevoker
	UserSvc      *user.Service
	TeamSvc      *team.Service
	CheckInSvc   *checkin.Service
	DashboardSvc *dashboard.Service
	ReminderSvc  *reminders.Service
	ExportSvc    *export.Service

	// Now defaults to time.Now; it decides "today" when no date is given.
	Now func() time.Time
	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// Protected routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Verifier, d.Cfg.TokenCacheTTL))

		// ===== Me =====
		pr.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			p, err := d.UserSvc.EnsureProfile(r.Context(), identity(au))
			if err != nil {
				fail(w, r, err, mapUserError)
				return
			}
			WriteJSON(w, 200, map[string]any{
				"uid":     au.UID,
				"email":   au.Email,
				"admin":   middleware.IsAdmin(au.Claims),
				"profile": p,
			})
		})

		pr.Post("/v1/auth/sign-out", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			if d.Revoker == nil {
				Fail(w, 501, "auth client is not configured")
				return
			}
			if err := d.Revoker.RevokeRefreshTokens(context.WithoutCancel(r.Context()), au.UID); err != nil {
				log.GetLogger(r.Context()).WithError(err).Error("revoke refresh tokens")
				Fail(w, 500, "failed to sign out")
				return
			}
			WriteJSON(w, 200, map[string]any{"success": true})
		})

		pr.Get("/v1/me/last-team", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			teamID, err := d.UserSvc.LastTeam(r.Context(), au.UID)
			if err != nil {
				fail(w, r, err, mapUserError)
				return
			}
			WriteJSON(w, 200, map[string]any{"teamId": teamID})
		})

		pr.Post("/v1/me/devices", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in user.RegisterDeviceInput
			if !decodeBody(w, r, &in) {
				return
			}
			in.Trim()

			if err := d.UserSvc.RegisterDevice(r.Context(), au.UID, in.Token); err != nil {
				fail(w, r, err, mapUserError)
				return
			}
			WriteJSON(w, 200, map[string]any{"success": true})
		})

		// ===== Teams =====
		pr.Post("/v1/teams", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in team.CreateTeamInput
			if !decodeBody(w, r, &in) {
				return
			}
			in.Trim()

			out, err := d.TeamSvc.CreateTeam(r.Context(), creator(au), in.Name)
			if err != nil {
				fail(w, r, err, mapTeamError)
				return
			}
			WriteJSON(w, 201, out)
		})

		pr.Post("/v1/teams/join", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in team.JoinTeamInput
			if !decodeBody(w, r, &in) {
				return
			}
			in.Trim()

			teamID, err := d.TeamSvc.JoinTeam(r.Context(), creator(au), in.Code)
			if err != nil {
				fail(w, r, err, mapTeamError)
				return
			}
			WriteJSON(w, 200, map[string]any{"teamId": teamID})
		})

		pr.Route("/v1/teams/{teamId}", func(tr chi.Router) {
			tr.Get("/", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				out, err := d.TeamSvc.GetTeam(r.Context(), au.UID, chi.URLParam(r, "teamId"))
				if err != nil {
					fail(w, r, err, mapTeamError)
					return
				}
				WriteJSON(w, 200, out)
			})

			tr.Post("/join-code/rotate", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				code, err := d.TeamSvc.RotateJoinCode(r.Context(), au.UID, chi.URLParam(r, "teamId"))
				if err != nil {
					fail(w, r, err, mapTeamError)
					return
				}
				WriteJSON(w, 200, map[string]any{"joinCode": code})
			})

			tr.Post("/deactivate", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				if err := d.TeamSvc.DeactivateTeam(r.Context(), au.UID, chi.URLParam(r, "teamId")); err != nil {
					fail(w, r, err, mapTeamError)
					return
				}
				WriteJSON(w, 200, map[string]any{"success": true})
			})

			// ===== Check-ins =====
			tr.Put("/check-ins/{dateKey}", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())

				var in checkin.SubmitInput
				if !decodeBody(w, r, &in) {
					return
				}

				ack, err := d.CheckInSvc.Submit(r.Context(), au.UID, chi.URLParam(r, "teamId"), chi.URLParam(r, "dateKey"), in)
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				WriteJSON(w, 200, ack)
			})

			tr.Get("/check-ins/{dateKey}", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				out, err := d.CheckInSvc.Mine(r.Context(), au.UID, chi.URLParam(r, "teamId"), chi.URLParam(r, "dateKey"))
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				WriteJSON(w, 200, out)
			})

			tr.Get("/athletes/{uid}/check-ins", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				out, err := d.CheckInSvc.History(r.Context(), au.UID, chi.URLParam(r, "teamId"), chi.URLParam(r, "uid"))
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				WriteJSON(w, 200, map[string]any{"checkIns": out})
			})

			// ===== Coach tools =====
			tr.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				dateKey, err := d.dateKey(r)
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				out, err := d.DashboardSvc.Today(r.Context(), au.UID, chi.URLParam(r, "teamId"), dateKey)
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				WriteJSON(w, 200, out)
			})

			tr.Post("/reminders", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				dateKey, err := d.dateKey(r)
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				out, err := d.ReminderSvc.NudgeMissing(r.Context(), au.UID, chi.URLParam(r, "teamId"), dateKey)
				if err != nil {
					fail(w, r, err, mapReminderError)
					return
				}
				WriteJSON(w, 200, out)
			})

			tr.Post("/exports", func(w http.ResponseWriter, r *http.Request) {
				au, _ := middleware.GetAuthUser(r.Context())
				dateKey, err := d.dateKey(r)
				if err != nil {
					fail(w, r, err, mapCheckInError)
					return
				}
				out, err := d.ExportSvc.ExportDay(r.Context(), au.UID, chi.URLParam(r, "teamId"), dateKey)
				if err != nil {
					fail(w, r, err, mapExportError)
					return
				}
				WriteJSON(w, 201, out)
			})
		})
	})

	return r
}

// dateKey reads ?date=, falling back to today in ?tz= or the default zone.
func (d RouterDeps) dateKey(r *http.Request) (string, error) {
	q := r.URL.Query()
	if date := strings.TrimSpace(q.Get("date")); date != "" {
		return date, nil
	}
	tz := strings.TrimSpace(q.Get("tz"))
	if tz == "" {
		tz = d.Cfg.DefaultTimezone
	}
	return checkin.LocalDateKey(d.Now(), tz)
}

func identity(au *middleware.AuthUser) user.Identity {
	return user.Identity{UID: au.UID, Email: au.Email, DisplayName: au.DisplayName}
}

func creator(au *middleware.AuthUser) team.Creator {
	return team.Creator{UID: au.UID, Email: au.Email, DisplayName: au.DisplayName}
}
