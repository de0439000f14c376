package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"address-etl/internal/issues"
	"address-etl/internal/repository"
	"address-etl/internal/rules"
)

// ValidateAddresses runs every validator over the unarchived address
// snapshot and replaces the published issues dataset, preserving operator
// maintenance notes.
func (c *Context) ValidateAddresses(ctx context.Context) error {
	cat, err := c.buildCatalog(ctx)
	if err != nil {
		return err
	}

	addrs, err := c.Store.Addresses(ctx, "")
	if err != nil {
		return fmt.Errorf("pipeline: read address snapshot: %w", err)
	}
	c.Log.Info().Int("addresses", len(addrs)).Msg("pipeline: validating addresses")

	found := rules.All(addrs, cat, time.Now())

	writer := issues.NewWriter(c.Store, c.Log)
	if err := writer.Write(ctx, found); err != nil {
		if c.Config.FailOnLockOK && errors.Is(err, repository.ErrLocked) {
			c.Log.Warn().Err(err).Msg("pipeline: issues dataset locked, counting step as success")
			return nil
		}
		return err
	}
	return nil
}
