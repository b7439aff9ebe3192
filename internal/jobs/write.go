// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter writes files so that readers never observe partial content.
type AtomicWriter struct {
	Perm os.FileMode
}

func (w AtomicWriter) perm() os.FileMode {
	if w.Perm == 0 {
		return 0o644
	}
	return w.Perm
}

// WriteAtomic implements FileWriter.
func (w AtomicWriter) WriteAtomic(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return writeAtomic(ctx, path, data, w.perm())
}
