package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/KajanthanDigitWeb/summery-Dash/dashboard"
	"github.com/KajanthanDigitWeb/summery-Dash/middlewares"
	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/models/reports"
	"github.com/KajanthanDigitWeb/summery-Dash/sheetsync"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const slowRequestThreshold = 2 * time.Second

type services struct {
	session *dashboard.Session
	syncer  *sheetsync.Syncer
}

func accountResolvers(settings config.Settings) (sheet, upload models.AccountResolver) {
	sheet = models.NewMappingResolver(models.ParseAccountMapping(settings.AccountMapping), settings.UnknownAccountLabel)
	kind, ok := models.ParseResolutionKind(settings.UploadResolution)
	if !ok {
		kind = models.ResolveByPrefix
	}
	upload = models.NewUploadResolver(kind, models.ParsePrefixRules(settings.AccountPrefixRules), sheet)
	return sheet, upload
}

func defaultSheetsRequest(settings config.Settings) sheetsync.SheetsLoadRequest {
	req := sheetsync.SheetsLoadRequest{
		Current: sheetsync.SheetsConfig{
			SpreadsheetId: settings.SheetsSpreadsheetID,
			Range:         settings.SheetsRange,
		},
	}
	if settings.SheetsSpreadsheetID != "" && settings.SheetsPriorYearSpreadsheetID != "" {
		req.PriorYear = &sheetsync.SheetsConfig{
			SpreadsheetId: settings.SheetsPriorYearSpreadsheetID,
			Range:         settings.SheetsPriorYearRange,
		}
	}
	return req
}

func newServices(settings config.Settings, logger *logrus.Logger) services {
	sheetResolver, uploadResolver := accountResolvers(settings)
	labels := reports.AccountLabels{
		OtherLabel:   settings.OtherAccountsLabel,
		UnknownLabel: settings.UnknownAccountLabel,
	}

	session := dashboard.NewSession(dashboard.Options{
		Labels: labels,
		Ordering: reports.AccountOrdering{
			Preferred:  lo.Uniq(append(sheetResolver.PreferredOrder(), uploadResolver.PreferredOrder()...)),
			OtherLabel: labels.OtherLabel,
		},
		RotationInterval: settings.RotationInterval,
		DefaultRangeDays: settings.DefaultRangeDays,
		Logger:           logger,
	})

	opts := sheetsync.SyncerOptions{
		Fetcher:        sheetsync.NewSheetsClient(settings.SheetsCacheTTL),
		SheetResolver:  sheetResolver,
		UploadResolver: uploadResolver,
		APIKey:         settings.SheetsAPIKey,
		Defaults:       defaultSheetsRequest(settings),
		Logger:         logger,
	}
	if settings.GCSBucket != "" {
		opts.Archive = utils.GCSArchiver{Bucket: settings.GCSBucket}.Archive
	}

	return services{
		session: session,
		syncer:  sheetsync.NewSyncer(session, opts),
	}
}

func corsMiddleware(settings config.Settings) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	// In production only CORS_ALLOWED_ORIGINS may call the API; everything is allowed otherwise.
	if settings.Production {
		corsConfig.AllowOrigins = utils.SplitAndTrim(settings.CorsAllowedOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.CorrelationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationIdHeader)
	if !corsConfig.AllowAllOrigins {
		corsConfig.AllowCredentials = true
	}
	return cors.New(corsConfig)
}

func newRouter(settings config.Settings, svc services, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationIdMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(corsMiddleware(settings))
	if settings.RateLimitEnabled {
		limiter := middlewares.NewRateLimiter(config.GetRedisDB, int64(settings.RateLimitMaxRequests), settings.RateLimitWindow)
		r.Use(limiter.Middleware())
	}
	r.Use(middlewares.RequestLogger(logger, slowRequestThreshold))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	dashboard.RegisterRoutes(api.Group("/dashboard"), svc.session)
	sheetsync.RegisterRoutes(api.Group("/sources"), svc.syncer, sheetsync.HandlerOptions{
		MaxUploadBytes:     settings.MaxUploadBytes,
		RefreshTopic:       settings.SheetsRefreshTopic,
		CreateRefreshTopic: !settings.Production,
		EnablePushEndpoint: settings.EnablePubSubPushEndpoint,
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
	return r
}

// startupLoad restores the saved spreadsheet and loads it once dependencies are up.
func startupLoad(ctx context.Context, settings config.Settings, syncer *sheetsync.Syncer, logger *logrus.Logger) {
	syncer.RestoreConnection(ctx)
	req := syncer.ActiveRequest()
	if !settings.SheetsAutoConnect || req.Current.IsZero() {
		logger.WithFields(logrus.Fields{"field": "sheets"}).Info("no spreadsheet to auto-connect; serving sample data")
		return
	}
	if _, err := syncer.LoadSheets(ctx, req, models.LoadTriggeredStartup); err != nil {
		config.LogError(logger, "server.go", "startupLoad", "Error loading spreadsheet on startup", req.Current.SpreadsheetId, err)
	}
}

func main() {
	settings := config.LoadSettings()
	logger := config.GetLogger()
	if settings.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	svc := newServices(settings, logger)
	srv := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: newRouter(settings, svc, logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Dependencies are optional and connected after the port is open.
	config.ConnectDatabaseWithRetry(sigCtx, 5)
	config.ConnectRedisWithRetry(sigCtx, 5)
	if !settings.SkipMigrations {
		if err := models.MigrateTable(); err != nil {
			config.LogError(logger, "server.go", "main", "Error migrating tables", nil, err)
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	loadCtx, cancelLoad := context.WithCancel(sigCtx)
	defer cancelLoad()
	go startupLoad(loadCtx, settings, svc.syncer, logger)

	logger.WithFields(logrus.Fields{
		"port":    settings.Port,
		"sheets":  settings.SheetsSpreadsheetID != "",
		"storage": settings.GCSBucket != "",
	}).Info("sales dashboard started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelLoad()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	svc.session.Close()
	config.ClosePubSub()
	config.CloseRedis()
	config.CloseDatabase()
}
