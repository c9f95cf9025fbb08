package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"github.com/bryanwahyu/animal-aid/internal/application"
	appanimals "github.com/bryanwahyu/animal-aid/internal/application/animals"
	appreports "github.com/bryanwahyu/animal-aid/internal/application/reports"
	"github.com/bryanwahyu/animal-aid/internal/config"
	"github.com/bryanwahyu/animal-aid/internal/domain/ai"
	"github.com/bryanwahyu/animal-aid/internal/domain/animals"
	"github.com/bryanwahyu/animal-aid/internal/domain/reports"
	"github.com/bryanwahyu/animal-aid/internal/infra/ai/openai"
	"github.com/bryanwahyu/animal-aid/internal/infra/ai/stub"
	"github.com/bryanwahyu/animal-aid/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/animal-aid/internal/infra/db/mysql"
	"github.com/bryanwahyu/animal-aid/internal/infra/db/postgres"
	"github.com/bryanwahyu/animal-aid/internal/infra/httpserver"
	"github.com/bryanwahyu/animal-aid/internal/infra/storage"
	"github.com/bryanwahyu/animal-aid/internal/middleware"
)

// blobStore is what both services and the health check need from storage.
type blobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Check(ctx context.Context) error
}

type repos struct {
	reports reports.Repository
	animals animals.Repository
	check   middleware.HealthChecker
	db      *sql.DB
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.WithError(err).Fatal("config load error")
	}
	setupLogging(cfg)

	ctx := context.Background()

	rp, err := openRepos(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.Database.Driver).Fatal("database init error")
	}
	if rp.db != nil {
		defer rp.db.Close()
	}

	blobs, mediaDir, err := openStorage(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.Storage.Driver).Fatal("storage init error")
	}

	metrics := middleware.NewMetrics()
	clock := application.SystemClock{}

	reportSvc := &appreports.Service{
		Repo:             rp.reports,
		Blobs:            blobs,
		Analyzer:         newAnalyzer(cfg),
		Clock:            clock,
		Recorder:         metrics,
		DefaultSubmitter: cfg.Reports.DefaultSubmitter,
	}
	animalSvc := &appanimals.Service{
		Repo:   rp.animals,
		Blobs:  blobs,
		Tagger: animals.DefaultTagger,
		Clock:  clock,
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Reports:        reportSvc,
		Animals:        animalSvc,
		Metrics:        metrics,
		Limiter:        middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst),
		Checks:         map[string]middleware.HealthChecker{"database": rp.check, "storage": blobs},
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		MediaDir:       mediaDir,
		MediaPrefix:    cfg.Storage.Local.URLPrefix,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.WithFields(log.Fields{
			"addr":     addr,
			"provider": cfg.Analysis.Provider,
			"model":    cfg.Analysis.Model,
			"database": cfg.Database.Driver,
			"storage":  cfg.Storage.Driver,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Log.Format == "text" {
		log.SetHandler(text.New(os.Stderr))
	} else {
		log.SetHandler(jsonhandler.New(os.Stderr))
	}
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.WithField("level", cfg.Log.Level).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func openRepos(ctx context.Context, cfg *config.Config) (*repos, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := mysqlp.EnsureSchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &repos{
			reports: mysqlp.NewReportRepository(db),
			animals: mysqlp.NewAnimalRepository(db),
			check:   &middleware.DatabaseHealthChecker{DB: db},
			db:      db,
		}, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &repos{
			reports: postgres.NewReportRepository(db),
			animals: postgres.NewAnimalRepository(db),
			check:   &middleware.DatabaseHealthChecker{DB: db},
			db:      db,
		}, nil
	default:
		log.Warn("using in-memory database, data is lost on restart")
		rs := memory.NewReportStore()
		return &repos{reports: rs, animals: memory.NewAnimalStore(), check: rs}, nil
	}
}

// openStorage returns the store and, for local disk, the directory to serve.
func openStorage(ctx context.Context, cfg *config.Config) (blobStore, string, error) {
	if cfg.Storage.Driver == "minio" {
		m := cfg.Storage.Minio
		st, err := storage.New(ctx, storage.MinioOptions{
			Endpoint:   m.Endpoint,
			Region:     m.Region,
			Bucket:     m.BucketName,
			AccessKey:  m.AccessKey,
			SecretKey:  m.SecretKey,
			UseSSL:     m.UseSSL,
			PresignTTL: m.PresignTTL,
		})
		return st, "", err
	}
	st, err := storage.NewLocalStore(cfg.Storage.Local.Path, cfg.Storage.Local.URLPrefix)
	if err != nil {
		return nil, "", err
	}
	return st, st.BasePath(), nil
}

func newAnalyzer(cfg *config.Config) ai.Analyzer {
	a := cfg.Analysis
	if a.Provider == config.ProviderStub {
		log.WithField("fail", a.StubFail).Warn("using stub analysis provider")
		return stub.NewClient(a.StubFail)
	}
	if a.APIKey == "" {
		log.Warn("GENAI_API_KEY is not set, analysis requests will fail")
	}
	return openai.NewClient(openai.Config{
		APIKey:    a.APIKey,
		Model:     a.Model,
		BaseURL:   a.BaseURL,
		MaxTokens: a.MaxTokens,
		Timeout:   a.Timeout,
	})
}
