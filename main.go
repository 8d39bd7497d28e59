package main

import (
	"context"
	"log"

	"xaistudy/internal"
	"xaistudy/internal/config"
	"xaistudy/internal/container"
	"xaistudy/internal/errors"
	"xaistudy/internal/migration"
	"xaistudy/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and brings the schema up to date
func initDatabase(appConfig *config.Config, logger *internal.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	migrator := migration.NewRunner(logger)
	if err := migrator.Run(context.Background(), db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	for _, key := range appConfig.Missing() {
		logger.Warn("[Config] %s is not set", key)
	}

	db, err := initDatabase(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitWithDatabase(context.Background(), db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	gin.SetMode(appConfig.Server.GinMode)
	server := ui.NewServer(appContainer.ServerDependencies())

	logger.Info("[Main] starting study server on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
