package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/config"
	appHTTP "github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/handler/http"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/cron"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/database"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/dump"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/erpnext"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/jwt"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/pkg/sse"
	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/repository/postgresql"
	attendanceService "github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/attendance"
	ingestService "github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/ingest"
	watermarkService "github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/service/watermark"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	statusRepo := postgresql.NewSyncStatusRepository(db)
	watermarkRepo := postgresql.NewWatermarkRepository(db)

	dumpStore, err := dump.NewStore(cfg.Sync.DumpDir)
	if err != nil {
		log.Fatal("Failed to initialize dump store:", err)
	}
	gateway := dump.NewGateway(dumpStore)

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)

	normalizer := ingestService.NewNormalizer(cfg.Policy.ClockSkewOffset)
	var classifier ingestService.Classifier
	switch cfg.Policy.DirectionStrategy {
	case "codes":
		classifier = ingestService.NewCodeClassifier(cfg.Policy.PunchInCodes, cfg.Policy.PunchOutCodes)
	default:
		classifier = ingestService.NewPositionalClassifier()
	}

	aggregator := attendanceService.NewAggregator(employeeRepo, cfg.Policy.ShiftStart, cfg.Policy.ShiftEnd)
	writer := attendanceService.NewWriter(db, attendanceRepo, hub, cfg.Policy.ChunkSize)
	ingestSvc := ingestService.NewService(
		cfg.Sync.Devices,
		gateway,
		statusRepo,
		normalizer,
		classifier,
		cfg.Policy.OvernightCutoffHour,
		aggregator,
		writer,
		hub,
	)

	erpClient := erpnext.NewClient(cfg.ERPNext)
	watermarkSvc := watermarkService.NewService(cfg.Sync.ShiftDeviceMap, statusRepo, watermarkRepo, erpClient)

	scheduler := cron.NewScheduler()
	cron.NewSyncJobs(watermarkSvc, cfg.Sync.CycleInterval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	syncHandler := appHTTP.NewSyncHandler(ingestSvc, watermarkSvc, statusRepo, hub, JWTService)
	router := appHTTP.NewRouter(cfg.App.Env, JWTService, syncHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
