// SPDX-License-Identifier: MIT

package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/epgconv/internal/config"
	"github.com/ManuGH/epgconv/internal/diag"
	"github.com/ManuGH/epgconv/internal/source"
)

func TestDepsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.OffsetHours = 1

	deps, err := DepsFromConfig(cfg, "", &diag.Journal{})
	require.NoError(t, err)
	assert.Equal(t, "classcnbc", deps.Channel)
	assert.Equal(t, source.KindRowStream, deps.Adapter.Kind())
	assert.Equal(t, "ClassCNBC", deps.Params.ChannelID)
	assert.InDelta(t, 1.0, deps.Params.OffsetHours, 1e-9)
	assert.True(t, deps.Params.FillGaps)
	assert.NotNil(t, deps.Icons)
	assert.NotNil(t, deps.Writer)
	assert.NotNil(t, deps.Metrics)

	deps, err = DepsFromConfig(cfg, "tvmoda", nil)
	require.NoError(t, err)
	assert.Equal(t, source.KindGrid, deps.Adapter.Kind())
	assert.Equal(t, "Fashion", deps.Adapter.Filler().Category)

	_, err = DepsFromConfig(cfg, "nope", nil)
	assert.ErrorIs(t, err, config.ErrUnknownChannel)

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "xmltv", opts.OutputDir)
	assert.Equal(t, 4, opts.Parallelism)
	assert.False(t, opts.DryRun)
}
