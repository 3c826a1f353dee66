package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"team-checkin/backend/internal/config"
	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/team"
	"team-checkin/backend/internal/firebase"
)

func CreateTeamCMD(open opener) *cobra.Command {
	var uid, email, displayName, name string
	cmd := &cobra.Command{
		Use:   "create-team",
		Short: "Create a team with the given user as coach",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.teams.CreateTeam(cmd.Context(), team.Creator{UID: uid, Email: email, DisplayName: displayName}, name)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "coach firebase uid")
	cmd.Flags().StringVar(&email, "email", "", "coach email")
	cmd.Flags().StringVar(&displayName, "display-name", "", "coach display name")
	cmd.Flags().StringVar(&name, "name", "", "team name")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func JoinCMD(open opener) *cobra.Command {
	var uid, email, displayName, code string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Enroll a user as athlete by join code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			teamID, err := svc.teams.JoinTeam(cmd.Context(), team.Creator{UID: uid, Email: email, DisplayName: displayName}, code)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"teamId": teamID})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "athlete firebase uid")
	cmd.Flags().StringVar(&email, "email", "", "athlete email")
	cmd.Flags().StringVar(&displayName, "display-name", "", "athlete display name")
	cmd.Flags().StringVar(&code, "code", "", "join code")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func RotateCodeCMD(open opener) *cobra.Command {
	var uid, teamID string
	cmd := &cobra.Command{
		Use:   "rotate-code",
		Short: "Replace a team's join code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			code, err := svc.teams.RotateJoinCode(cmd.Context(), uid, teamID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"joinCode": code})
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "coach firebase uid")
	cmd.Flags().StringVar(&teamID, "team", "", "team id")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func DashboardCMD(open opener, cfg config.Config) *cobra.Command {
	var uid, teamID, date, tz string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the coach dashboard for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if date == "" {
				if tz == "" {
					tz = cfg.DefaultTimezone
				}
				if date, err = checkin.LocalDateKey(time.Now(), tz); err != nil {
					return err
				}
			}
			d, err := svc.dashboards.Today(cmd.Context(), uid, teamID, date)
			if err != nil {
				return err
			}
			return printJSON(cmd, d)
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "coach firebase uid")
	cmd.Flags().StringVar(&teamID, "team", "", "team id")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD, default today")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA time zone used for today")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func HistoryCMD(open opener) *cobra.Command {
	var uid, teamID, athlete string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print an athlete's recent check-ins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := open(cmd.Context())
			if err != nil {
				return err
			}
			out, err := svc.checkIns.History(cmd.Context(), uid, teamID, athlete)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "coach firebase uid")
	cmd.Flags().StringVar(&teamID, "team", "", "team id")
	cmd.Flags().StringVar(&athlete, "athlete", "", "athlete firebase uid")
	_ = cmd.MarkFlagRequired("uid")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("athlete")
	return cmd
}

func SetClaimsCMD(cfg config.Config) *cobra.Command {
	var uid string
	var admin bool
	cmd := &cobra.Command{
		Use:   "set-claims",
		Short: "Set custom auth claims on a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			authClient, err := firebase.NewAuthClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			claims := map[string]interface{}{"admin": admin}
			if err := authClient.SetCustomUserClaims(cmd.Context(), uid, claims); err != nil {
				return fmt.Errorf("SetCustomUserClaims: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok: claims set for", uid)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "target firebase uid")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin claim")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

// DemoCMD runs a create/join/check-in/dashboard round trip against an
// in-memory store.
func DemoCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a sample team day in memory and print the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := docstore.NewMemory()
			if err != nil {
				return err
			}
			svc := newServices(store)

			res, err := svc.teams.CreateTeam(ctx, team.Creator{UID: "coach", DisplayName: "Coach"}, "Eagles")
			if err != nil {
				return err
			}
			for _, a := range []team.Creator{{UID: "A", DisplayName: "Ari"}, {UID: "B", DisplayName: "Bo"}, {UID: "C"}} {
				if _, err := svc.teams.JoinTeam(ctx, a, res.JoinCode); err != nil {
					return err
				}
			}

			day := time.Now().UTC().Format("2006-01-02")
			lt6, absent := "lt6", false
			if _, err := svc.checkIns.Submit(ctx, "A", res.TeamID, day, checkin.SubmitInput{Habits: &checkin.Habits{SleepBucket: &lt6}}); err != nil {
				return err
			}
			if _, err := svc.checkIns.Submit(ctx, "B", res.TeamID, day, checkin.SubmitInput{Practice: &checkin.Practice{Attended: &absent}}); err != nil {
				return err
			}

			d, err := svc.dashboards.Today(ctx, "coach", res.TeamID, day)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"team": res, "dashboard": d})
		},
	}
}
