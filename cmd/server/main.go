package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/kavyarc11/postpilot/configs"
	"github.com/kavyarc11/postpilot/internal/api/handlers"
	"github.com/kavyarc11/postpilot/internal/api/middleware"
	"github.com/kavyarc11/postpilot/internal/engine"
	job "github.com/kavyarc11/postpilot/internal/jobs"
	"github.com/kavyarc11/postpilot/internal/publisher"
	"github.com/kavyarc11/postpilot/internal/queue"
	"github.com/kavyarc11/postpilot/internal/repository"
	"github.com/kavyarc11/postpilot/internal/service"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Trigger-Secret",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	postLogRepo := repository.NewPostLogRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)

	mediaService := service.NewMediaService(*cfg)

	registry := publisher.NewRegistry(
		publisher.NewInstagramPublisher(http.DefaultClient),
		publisher.NewTiktokPublisher(http.DefaultClient),
	)

	eng := engine.New(postRepo, postLogRepo, mediaService, registry,
		cfg.SecretKey, cfg.BatchLimit, cfg.PlatformCallTimeout)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	publish := handlers.NewPublishHandler(eng, postLogRepo)
	account := handlers.NewAccountHandler(socialAccountRepo)

	internal := app.Group("/internal")
	internal.Use(authMiddleware.TriggerAuth())
	internal.Post("/publish/run", publish.RunBatch)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())
	api.Post("/posts/publish", publish.PublishNow)
	api.Get("/posts/logs", publish.ListLogs)
	api.Get("/accounts", account.ListSocialAccounts)

	// cron jobs
	sweepJob := job.NewPublishSweepJob(client)

	// queue
	queueW := queue.NewQueue(eng)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", sweepJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 1,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishBatch, queueW.HandlePublishBatchTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
