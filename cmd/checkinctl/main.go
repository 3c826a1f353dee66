package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"team-checkin/backend/internal/config"
	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/dashboard"
	"team-checkin/backend/internal/domain/joincode"
	"team-checkin/backend/internal/domain/team"
	"team-checkin/backend/internal/firebase"
	"team-checkin/backend/internal/log"
)

// services is the slice of the backend the admin commands drive directly.
type services struct {
	teams      *team.Service
	checkIns   *checkin.Service
	dashboards *dashboard.Service
}

func newServices(store docstore.Store) *services {
	teams := team.NewService(team.NewRepo(store), joincode.NewAllocator(store, nil))
	checkIns := checkin.NewService(checkin.NewRepo(store), teams)
	return &services{
		teams:      teams,
		checkIns:   checkIns,
		dashboards: dashboard.NewService(teams, checkIns),
	}
}

func main() {
	cfg := config.Load()
	log.Setup(cfg.LogLevel, cfg.LogFormat)

	var (
		svc     *services
		clients *firebase.Clients
	)
	open := func(ctx context.Context) (*services, error) {
		if svc != nil {
			return svc, nil
		}
		c, err := firebase.NewClients(ctx, cfg)
		if err != nil {
			return nil, err
		}
		clients = c
		svc = newServices(docstore.NewFirestore(c.Firestore))
		return svc, nil
	}

	rootCmd := &cobra.Command{
		Use:   "checkinctl",
		Short: "Team check-in admin tool",
		Long: `Admin tool for the team check-in backend.
	Configure by environment variables (or .env):
FIREBASE_PROJECT_ID             // example: eagles-prod
FIREBASE_SERVICE_ACCOUNT_JSON   // raw service account json, optional
GOOGLE_APPLICATION_CREDENTIALS  // service account file path, optional
LOG_LEVEL                       // example: debug`,
		SilenceUsage: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			clients.Close()
		},
	}

	rootCmd.AddCommand(
		CreateTeamCMD(open),
		JoinCMD(open),
		RotateCodeCMD(open),
		DashboardCMD(open, cfg),
		HistoryCMD(open),
		SetClaimsCMD(cfg),
		DemoCMD(),
	)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

type opener func(ctx context.Context) (*services, error)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
