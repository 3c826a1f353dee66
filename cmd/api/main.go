package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/config"
	"team-checkin/backend/internal/docstore"
	"team-checkin/backend/internal/domain/checkin"
	"team-checkin/backend/internal/domain/dashboard"
	"team-checkin/backend/internal/domain/export"
	"team-checkin/backend/internal/domain/joincode"
	"team-checkin/backend/internal/domain/reminders"
	"team-checkin/backend/internal/domain/team"
	"team-checkin/backend/internal/domain/user"
	"team-checkin/backend/internal/firebase"
	apihttp "team-checkin/backend/internal/http"
	"team-checkin/backend/internal/log"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	log.Setup(cfg.LogLevel, cfg.LogFormat)

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("firebase init failed")
	}
	defer clients.Close()

	store := docstore.NewFirestore(clients.Firestore)

	// Services
	userSvc := user.NewService(user.NewRepo(store))
	teamSvc := team.NewService(team.NewRepo(store), joincode.NewAllocator(store, nil))
	checkInSvc := checkin.NewService(checkin.NewRepo(store), teamSvc)
	dashboardSvc := dashboard.NewService(teamSvc, checkInSvc)

	// Push reminders are optional.
	var sender reminders.Sender
	if clients.Messaging != nil {
		sender = clients.Messaging
	}
	reminderSvc := reminders.NewService(dashboardSvc, userSvc, sender)

	// Exports are optional; without a signer the report is stored but no link is returned.
	var (
		writer export.ObjectWriter
		signer export.URLSigner
	)
	if clients.Storage != nil && cfg.StorageBucket != "" {
		writer = export.NewBucket(clients.Storage, cfg.StorageBucket)
	}
	if clients.IAM != nil {
		signer = export.NewIAMSigner(clients.IAM, cfg.StorageBucket, cfg.SignedURLServiceAccountEmail)
	}
	exportSvc := export.NewService(dashboardSvc, writer, signer)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Cfg:          cfg,
		Verifier:     clients.Auth,
		Revoker:      clients.Auth,
		UserSvc:      userSvc,
		TeamSvc:      teamSvc,
		CheckInSvc:   checkInSvc,
		DashboardSvc: dashboardSvc,
		ReminderSvc:  reminderSvc,
		ExportSvc:    exportSvc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	go func() {
		logrus.WithFields(logrus.Fields{"port": cfg.Port, "project": cfg.ProjectID}).Info("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("listen failed")
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logrus.Info("shutting down...")
	_ = srv.Shutdown(ctxShutdown)
}
