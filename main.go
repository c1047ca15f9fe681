package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"arena-tournament-service/handlers"
	"arena-tournament-service/middleware"
	"arena-tournament-service/models"
	"arena-tournament-service/services"
	"arena-tournament-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// Only gateway traffic is allowed — no exceptions.
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Tournament{},
		&models.Participant{},
		&models.EsportsProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	profileServiceURL := os.Getenv("PROFILE_SYNC_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SYNC_URL environment variable not set")
	}
	serviceToken := os.Getenv("TOURNAMENT_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("TOURNAMENT_SERVICE_TOKEN environment variable not set")
	}

	events := services.NewBroadcaster()
	profiles := &services.GormProfileStore{DB: db}
	tournamentService := services.NewTournamentService(db, clockwork.NewRealClock(), profiles, events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := workers.NewEsportsProfileSyncWorker(db, profileServiceURL, "/api/v1/public/esports-profiles", serviceToken)
	if err := syncWorker.Start(ctx); err != nil {
		log.Fatal("failed to start profile sync worker:", err)
	}

	handlers.SetupTournamentRoutes(app, tournamentService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("server error: %v", err)
		}
	}()
	log.Printf("tournament service running on :%s", port)

	<-ctx.Done()
	log.Println("shutting down server...")
	_ = app.Shutdown()
}
