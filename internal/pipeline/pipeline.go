// Package pipeline wires the Core's batch pipelines: building the reference
// catalog, running the rule set and issue writer, and running the account
// resolver with its ordered write-back. Pipelines execute strictly
// sequentially; the first hard failure aborts the invocation.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"address-etl/internal/catalog"
	"address-etl/internal/config"
	"address-etl/internal/geometry"
	"address-etl/internal/issues"
	"address-etl/internal/models"
	"address-etl/internal/resolver"
)

// Pipeline identifiers accepted on the command line.
const (
	AddressValidation = "address-validation"
	AccountResolution = "account-resolution"
)

// ErrUnknownPipeline names an identifier with no registered pipeline.
var ErrUnknownPipeline = errors.New("pipeline: unknown pipeline")

// FeatureStore is everything the pipelines need from the Postgres warehouse.
type FeatureStore interface {
	catalog.ReferenceSource
	issues.Store
	resolver.InfoStore
	resolver.AddressStore
	Addresses(ctx context.Context, where string) ([]models.Address, error)
}

// Context carries the explicit execution state every pipeline step gets:
// logger, configuration and the external collaborators. Nothing is module
// level.
type Context struct {
	Log      zerolog.Logger
	Config   config.Config
	Store    FeatureStore
	Accounts catalog.AccountSource
	Geometry geometry.Service
}

// Run executes the named pipelines in order. Each pipeline runs to
// completion or hard failure; a failure aborts the remainder.
func (c *Context) Run(ctx context.Context, names []string) error {
	for _, name := range names {
		c.Log.Info().Str("pipeline", name).Msg("pipeline: starting")
		var err error
		switch name {
		case AddressValidation:
			err = c.ValidateAddresses(ctx)
		case AccountResolution:
			err = c.ResolveAccounts(ctx)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
		}
		if err != nil {
			c.Log.Error().Err(err).Str("pipeline", name).Msg("pipeline: failed")
			return err
		}
		c.Log.Info().Str("pipeline", name).Msg("pipeline: complete")
	}
	return nil
}

// buildCatalog materializes the reference catalog for one run.
func (c *Context) buildCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := catalog.Build(ctx, c.Store, c.Accounts, c.Config.TaxYear)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build reference catalog: %w", err)
	}
	return cat, nil
}
