package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/socialclone/go-social-backend/config"
	"github.com/socialclone/go-social-backend/internal/auth"
	"github.com/socialclone/go-social-backend/internal/auth/session"
	"github.com/socialclone/go-social-backend/internal/bootstrap"
	"github.com/socialclone/go-social-backend/internal/upload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	// The Admin SDK is optional outside the firebase store driver; the
	// identity REST surface alone can run the session lifecycle.
	var firebase *auth.FirebaseClients
	if cfg.Auth.CredentialsPath != "" {
		firebase, err = auth.InitializeFirebase(ctx, cfg.Auth.CredentialsPath, cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	}

	st, err := bootstrap.OpenStore(ctx, cfg, firebase)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	tracker := session.NewTracker()
	identity := auth.NewIdentityClient(cfg.Auth.WebAPIKey)
	var verifier *fbauth.Client
	if firebase != nil {
		verifier = firebase.Auth
	}
	authSvc := auth.NewService(tracker, identity, verifier)

	refresher := auth.NewRefresher(authSvc, cfg.Auth.RefreshSpec)
	if err := refresher.Start(); err != nil {
		log.Fatalf("session refresher: %v", err)
	}
	defer refresher.Stop()

	uploader := upload.NewGateway(cfg.Upload.APIKey, cfg.Upload.Endpoint, cfg.Upload.MaxSizeMB, cfg.Upload.RatePerMin)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "social-backend",
		Version:     cfg.App.Version,
		Cfg:         cfg,
		AuthSvc:     authSvc,
		Store:       st,
		Uploader:    uploader,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s (store driver: %s)", cfg.Server.Port, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
