package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sitecrew-hq/siteops-backend-go/internal/config"
	appHTTP "github.com/sitecrew-hq/siteops-backend-go/internal/handler/http"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/cron"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/database"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/email"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/geotrack"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/jwt"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/storage"
	"github.com/sitecrew-hq/siteops-backend-go/internal/repository/postgresql"
	attendanceService "github.com/sitecrew-hq/siteops-backend-go/internal/service/attendance"
	serviceAuth "github.com/sitecrew-hq/siteops-backend-go/internal/service/auth"
	geofenceService "github.com/sitecrew-hq/siteops-backend-go/internal/service/geofence"
	"github.com/sitecrew-hq/siteops-backend-go/internal/service/reconcile"
	sitePhotoService "github.com/sitecrew-hq/siteops-backend-go/internal/service/sitephoto"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, int32(cfg.Database.MaxConns), int32(cfg.Database.MinConns))
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	userRepo := postgresql.NewUserRepository(db)
	tenantRepo := postgresql.NewTenantRepository(db)
	eventRepo := postgresql.NewGeofenceEventRepository(db)
	shiftRepo := postgresql.NewScheduledShiftRepository(db)
	sitePhotoRepo := postgresql.NewSitePhotoRepository(db)
	summaryRepo := postgresql.NewAttendanceSummaryRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage type: ", cfg.Storage.Type)
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}

	engine := reconcile.NewEngine(reconcile.Options{
		DebounceWindow: cfg.Reconcile.DebounceWindow,
		GracePeriod:    cfg.Reconcile.GracePeriod,
	})
	runner := reconcile.NewBatchRunner(
		tenantRepo,
		eventRepo,
		shiftRepo,
		sitePhotoRepo,
		summaryRepo,
		engine,
		cfg.Reconcile.WorkerCount,
	)

	authService := serviceAuth.NewAuthService(userRepo, JWTService)
	ingestService := geofenceService.NewIngestService(eventRepo)
	confirmationService := sitePhotoService.NewConfirmationService(sitePhotoRepo, fileStorage)
	summaryService := attendanceService.NewSummaryService(summaryRepo, runner)

	var providerClient *geotrack.Client
	if cfg.Provider.BaseURL != "" {
		providerClient = geotrack.NewClient(cfg.Provider)
	}

	scheduler := cron.NewScheduler()
	reconciliationJobs := cron.NewReconciliationJobs(
		runner,
		tenantRepo,
		ingestService,
		providerClient,
		emailService,
		cfg.SMTP.ReportRecipient,
		cfg.Reconcile.RunHour,
	)
	reconciliationJobs.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	authHandler := appHTTP.NewAuthHandler(JWTService, authService)
	geofenceHandler := appHTTP.NewGeofenceHandler(ingestService)
	attendanceHandler := appHTTP.NewAttendanceHandler(summaryService)
	sitePhotoHandler := appHTTP.NewSitePhotoHandler(confirmationService)

	router := appHTTP.NewRouter(
		JWTService,
		authHandler,
		geofenceHandler,
		attendanceHandler,
		sitePhotoHandler,
		cfg.Storage.BasePath,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	_ = server.Close()
	db.Close()
}
