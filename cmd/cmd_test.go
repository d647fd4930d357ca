package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/mtstation/config"
)

func TestGetFilterExpression(t *testing.T) {
	cfg = &config.Config{
		Filter: config.FilterConfig{
			Default: `Seeders > 0`,
			Presets: map[string]string{"large-free": `Discount == "FREE" && Size > GiB(10)`},
		},
	}
	t.Cleanup(func() { cfg = nil })

	tests := []struct {
		name    string
		filter  string
		preset  string
		want    string
		wantErr bool
	}{
		{name: "filter wins", filter: `Size < GiB(1)`, preset: "large-free", want: `Size < GiB(1)`},
		{name: "preset", preset: "Large-Free", want: `Discount == "FREE" && Size > GiB(10)`},
		{name: "default", want: `Seeders > 0`},
		{name: "unknown preset", preset: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getFilterExpression(tt.filter, tt.preset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestOptions(t *testing.T) {
	cfg = &config.Config{}
	t.Cleanup(func() { cfg = nil })

	filterExpr, preset, freeOnly = "", "", false
	opts, err := latestOptions()
	require.NoError(t, err)
	assert.True(t, opts.RequireDetail)
	assert.False(t, opts.Free)
	assert.Nil(t, opts.Filter)

	opts, err = downloadOptions()
	require.NoError(t, err)
	assert.False(t, opts.RequireDetail)
}

func TestApplyOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "grab"}
	addTrackerFlags(cmd)
	addStationFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--key", "override", "--ip", "10.0.0.2", "--port", "5001"}))

	c := &config.Config{}
	c.Tracker.APIKey = "from-file"
	c.Tracker.Output = "/data/torrents"
	c.Station.Synology.Port = 5000
	c.Station.Synology.Account = "admin"

	applyOverrides(cmd, c)

	assert.Equal(t, "override", c.Tracker.APIKey)
	assert.Equal(t, "/data/torrents", c.Tracker.Output)
	assert.Equal(t, "10.0.0.2", c.Station.Synology.IP)
	assert.Equal(t, 5001, c.Station.Synology.Port)
	assert.Equal(t, "admin", c.Station.Synology.Account)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "1.5 MiB", formatBytes(1536*1024))
	assert.Equal(t, "2.0 TiB", formatBytes(2<<40))
}
