package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"address-etl/internal/config"
	"address-etl/internal/geometry"
	"address-etl/internal/pipeline"
	"address-etl/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "./configs", "Directory containing app.env")
	taxYear := flag.Int("tax-year", 0, "Override the configured tax year")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: etl [flags] pipeline [pipeline...]\n\npipelines:\n  %s\n  %s\n",
			pipeline.AddressValidation, pipeline.AccountResolution)
		os.Exit(2)
	}

	_ = godotenv.Load(".env")

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if *taxYear != 0 {
		cfg.TaxYear = *taxYear
	}

	ctx := context.Background()

	conn, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to feature store")
	}
	defer conn.Close()
	repo := repository.NewRepository(conn)

	accounts, err := repository.NewAccountRepository(cfg.OracleSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to A&T warehouse")
	}
	defer accounts.Close()

	var geo geometry.Service
	switch cfg.GeometryBackend {
	case "shapefile":
		geo = geometry.NewShapefileService(cfg.ShapefileDir)
	default:
		geo = repo
	}

	run := &pipeline.Context{
		Log:      log,
		Config:   cfg,
		Store:    repo,
		Accounts: accounts,
		Geometry: geo,
	}

	if err := run.Run(ctx, flag.Args()); err != nil {
		os.Exit(1)
	}
}
