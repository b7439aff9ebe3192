// SPDX-License-Identifier: MIT

//go:build !windows

package jobs

import (
	"context"
	"fmt"
	"os"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/epgconv/internal/log"
)

// writeAtomic writes data with full durability guarantees using renameio:
// fsync before rename, so a crash leaves either the old or the new file.
func writeAtomic(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	logger := log.WithComponentFromContext(ctx, "jobs")

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(log.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace file: %w", err)
	}
	return nil
}
