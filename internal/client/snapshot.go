package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// SnapshotTables implements fmc.Client.SnapshotTables. Empty tables are
// not saved.
func (c *Client) SnapshotTables(ctx context.Context, store fmc.TableStore) error {
	err := c.checkOpen()
	if err != nil {
		return err
	}

	saved := 0

	for _, objType := range fmc.ObjectTypes() {
		table, err := c.table(objType)
		if err != nil {
			return err
		}

		if table.Len() == 0 {
			continue
		}

		err = store.Save(ctx, &fmc.TableSnapshot{
			Server:  c.baseURL,
			Type:    objType,
			Entries: table.Entries(),
			SavedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("saving %s table: %w", objType, err)
		}

		saved++
	}

	c.logger.Debug("Saved table snapshots", map[string]interface{}{
		"server": c.baseURL,
		"tables": saved,
	})

	return nil
}

// RestoreTables implements fmc.Client.RestoreTables. Types without a
// snapshot keep their current content.
func (c *Client) RestoreTables(ctx context.Context, store fmc.TableStore) error {
	err := c.checkOpen()
	if err != nil {
		return err
	}

	restored := 0

	for _, objType := range fmc.ObjectTypes() {
		snapshot, err := store.Load(ctx, c.baseURL, objType)

		switch {
		case errors.Is(err, fmc.ErrStoreDisabled):
			return nil
		case errors.Is(err, fmc.ErrSnapshotNotFound):
			continue
		case err != nil:
			return fmt.Errorf("loading %s table: %w", objType, err)
		}

		table, err := c.table(objType)
		if err != nil {
			return err
		}

		table.Restore(snapshot.Entries)
		restored++
	}

	c.logger.Debug("Restored table snapshots", map[string]interface{}{
		"server": c.baseURL,
		"tables": restored,
	})

	return nil
}
