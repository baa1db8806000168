package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/revisitor/internal/api"
	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/certs"
	"github.com/harrylevesque/revisitor/internal/config"
	"github.com/harrylevesque/revisitor/internal/crypto"
	"github.com/harrylevesque/revisitor/internal/export"
	"github.com/harrylevesque/revisitor/internal/feedback"
	"github.com/harrylevesque/revisitor/internal/files"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/notes"
	"github.com/harrylevesque/revisitor/internal/relays"
	"github.com/harrylevesque/revisitor/internal/review"
	"github.com/harrylevesque/revisitor/internal/utils"
)

const certWarnWindow = 14 * 24 * time.Hour

func main() {
	var configPath string
	root := &cobra.Command{
		Use:           "revisitor-server",
		Short:         "Serve the revisitor API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOnce(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", config.DefaultFile, "path to the YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// masterKey loads the master key only when something needs it.
func masterKey(cfg config.Config) ([]byte, error) {
	if !cfg.Store.Encrypt && (cfg.KeyFile == "" || cfg.NSec != "") {
		return nil, nil
	}
	return crypto.LoadMasterKey(cfg.MasterKeyFile)
}

func loadIdentity(cfg config.Config, master []byte) (*auth.Identity, error) {
	secret := cfg.NSec
	if secret == "" && cfg.KeyFile != "" {
		sk, err := files.LoadSecretKey(cfg.KeyFile, master)
		if err != nil {
			return nil, fmt.Errorf("load key file: %w", err)
		}
		secret = sk
	}
	return auth.FromKeys(secret, cfg.NPub)
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := utils.NewLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	master, err := masterKey(cfg)
	if err != nil {
		return err
	}
	var storeKey []byte
	if cfg.Store.Encrypt {
		if storeKey, err = crypto.DeriveStoreKey(master); err != nil {
			return err
		}
	}
	store, err := files.Open(cfg.Store.Backend, cfg.Store.Path, storeKey)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	id, err := loadIdentity(cfg, master)
	if err != nil {
		return err
	}
	if !id.LoggedIn() {
		logger.Warn("no nostr identity configured; note endpoints will reject requests")
	} else {
		logger.Info("identity loaded", zap.String("npub", id.NPub()), zap.Bool("can_sign", id.CanSign()))
	}

	pool := nostr.NewPool(logger.Named("relays"))
	selection := relays.NewSelection(cfg.DefaultRelay)
	publisher := notes.NewPublisher(pool, id, logger.Named("publisher"))

	svc := &api.Services{
		Identity: id,
		Fetcher: notes.NewFetcher(pool,
			notes.WithTimeout(cfg.QueryTimeout),
			notes.WithTTL(cfg.CacheTTL),
			notes.WithLogger(logger.Named("notes")),
		),
		Profiles:  notes.NewProfiles(pool, []string{cfg.DefaultRelay}, logger.Named("profiles")),
		Publisher: publisher,
		Tracker:   review.NewTracker(store),
		Feedback: feedback.NewService(id, publisher, files.NewSessionStore(), cfg.FeedbackRecipient, cfg.AppURL,
			feedback.WithLogger(logger.Named("feedback"))),
		Exporter: export.New(),
		Relays:   selection,
		Presets:  cfg.PresetRelays,
		Logger:   logger.Named("http"),
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.TLS.Enabled() {
		cm := certs.NewCertManager(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		tlsCfg, leaf, err := cm.TLSConfig()
		if err != nil {
			return err
		}
		if cm.ExpiresWithin(leaf, certWarnWindow) {
			logger.Warn("tls certificate expires soon", zap.Time("not_after", leaf.NotAfter))
		}
		srv.TLSConfig = tlsCfg
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running",
			zap.String("addr", cfg.Listen),
			zap.String("relay", cfg.DefaultRelay),
			zap.Bool("tls", srv.TLSConfig != nil),
		)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
