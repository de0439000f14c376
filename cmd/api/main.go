package main

import (
	"context"
	"net/http"

	"address-etl/internal/config"
	"address-etl/internal/handler"
	"address-etl/internal/repository"
	"address-etl/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load(".env")

	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	// Database connection
	conn, err := pgxpool.New(context.Background(), config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	// Initialize layers
	repo := repository.NewRepository(conn)

	issueService := service.NewIssueService(repo)
	issueHandler := handler.NewIssueHandler(issueService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/issues", issueHandler.List)
	r.GET("/issues/summary", issueHandler.Summary)

	r.Run(config.ServerAddress)
}
