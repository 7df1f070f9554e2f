package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"dashgen-backend/config"
	_ "dashgen-backend/docs"
	"dashgen-backend/internal/controller"
	"dashgen-backend/internal/database"
	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/elasticsearch"
	"dashgen-backend/internal/filestore"
	"dashgen-backend/internal/kafka"
	"dashgen-backend/internal/metrics"
	"dashgen-backend/internal/parser"
	"dashgen-backend/internal/render"
	"dashgen-backend/internal/repository"
	"dashgen-backend/internal/scheduler"
	"dashgen-backend/internal/service"
	"dashgen-backend/internal/store"
	"dashgen-backend/internal/timescaledb"
)

// @title           Dashboard Generator API
// @version         1.0
// @description     Uploads tabular datasets, plans and renders dashboards, and cross-filters them in place.

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         sessions
// @tag.description  Per-user dashboard sessions: upload, generate, filter, export

// @tag.name         dashboards
// @tag.description  Saved dashboard history

// @tag.name         activity
// @tag.description  Dashboard activity search and metrics

func main() {
	var wg sync.WaitGroup

	app := fx.New(
		// Core Dependencies
		fx.Provide(
			NewConfig,
		),
		// Infrastructure Dependencies
		fx.Provide(
			NewGinEngine,
			NewDatasetLoader,
			NewRenderer,
			NewDashboardRepository,
			parser.NewTableParser,
			render.NewPNGExporter,
			store.NewInMemorySessionStore,
			kafka.NewKafkaActivityProducer,
			kafka.NewKafkaActivityConsumer,
			elasticsearch.NewElasticActivityStore,
			elasticsearch.NewElasticsearchActivityRepository,
			timescaledb.ProvideTimescaleDBPool,
			timescaledb.NewTimescaleMetricRepository,
			metrics.NewActivityExtractor,
		),
		// Services & controllers
		fx.Provide(
			service.NewPlanner,
			service.NewUploadService,
			service.NewActivityPublisher,
			service.NewDashboardService,
			service.NewHistoryService,
			service.NewMaintenanceService,
			service.NewActivityConsumerService,
			service.NewActivityQueryService,
			controller.NewSessionController,
			controller.NewDashboardController,
			controller.NewActivityController,
		),
		fx.Invoke(RegisterAPIRoutes,
			RegisterScheduler,
			func(lc fx.Lifecycle, consumerService service.ActivityConsumerService) {
				startActivityConsumer(lc, &wg, consumerService)
			},
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}

	log.Info().Msg("Waiting for background goroutines to finish...")
	wg.Wait()
	log.Info().Msg("All background processes finished. Exiting.")
}

func NewConfig() (*config.Config, error) {
	return config.NewConfig()
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	sessionController *controller.SessionController,
	dashboardController *controller.DashboardController,
	activityController *controller.ActivityController,
) {
	controller.RegisterSessionRoutes(router, sessionController)
	controller.RegisterDashboardRoutes(router, dashboardController)
	if activityController != nil {
		controller.RegisterActivityRoutes(router, activityController)
	} else {
		log.Warn().Msg("Activity pipeline disabled, skipping activity API routes.")
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

// --- Factory Functions ---

func NewDatasetLoader(cfg *config.Config, tableParser parser.TableParser) (dataset.Loader, error) {
	return dataset.NewLoader(cfg.Upload.Dir, tableParser, cfg.Dataset.CacheSize)
}

func NewRenderer(cfg *config.Config) *render.Renderer {
	return render.NewRenderer(render.Options{Locale: cfg.Render.Locale, TileURL: cfg.Render.TileURL})
}

// NewDashboardRepository picks the history backend. MySQL is only dialled
// when selected.
func NewDashboardRepository(lc fx.Lifecycle, cfg *config.Config) (repository.DashboardRepository, error) {
	switch cfg.History.Backend {
	case config.HistoryBackendFile, "":
		log.Info().Str("dir", cfg.History.Dir).Msg("Using file history backend")
		return filestore.NewDashboardRepository(cfg.History.Dir)
	case config.HistoryBackendMySQL:
		db, err := database.NewDB(lc, cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.Database.Host).Msg("Using MySQL history backend")
		return database.NewDashboardRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown HISTORY_BACKEND %q", cfg.History.Backend)
	}
}

// --- Invoker Functions ---

func RegisterScheduler(lc fx.Lifecycle, cfg *config.Config, maintenance service.MaintenanceService) error {
	_, err := scheduler.NewScheduler(lc, cfg, maintenance)
	return err
}

// startActivityConsumer runs the consumer loop for the lifetime of the app.
func startActivityConsumer(lc fx.Lifecycle, wg *sync.WaitGroup, consumerService service.ActivityConsumerService) {
	if consumerService == nil {
		log.Info().Msg("Activity pipeline disabled, not starting consumer")
		return
	}
	wg.Add(1)
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Msg("Starting activity consumer goroutine")
			go consumerService.Run(ctx, wg)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info().Msg("Signaling activity consumer goroutine to stop...")
			cancel()
			return nil
		},
	})
}
