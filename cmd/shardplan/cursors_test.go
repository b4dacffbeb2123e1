package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pg-sharding/shardplan/pkg/config"
	"github.com/pg-sharding/shardplan/router/merge"
	mock "github.com/pg-sharding/shardplan/router/mock/merge"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestOpenCursorsClosesOpenedOnFailure(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	first := mock.NewMockShardCursor(ctrl)
	second := mock.NewMockShardCursor(ctrl)
	first.EXPECT().Close().Return(nil).Times(1)
	second.EXPECT().Close().Return(nil).Times(1)

	sources := []config.DataSourceCfg{
		{Name: "ds_0", DSN: "dsn0"},
		{Name: "ds_1"},
		{Name: "ds_2", DSN: "dsn2"},
		{Name: "ds_3", DSN: "dsn3"},
	}
	opened := map[string]merge.ShardCursor{"ds_0": first, "ds_2": second}

	var calls []string
	cursors, err := openCursors(context.Background(), sources, func(_ context.Context, ds config.DataSourceCfg) (merge.ShardCursor, error) {
		calls = append(calls, ds.Name)
		if c, ok := opened[ds.Name]; ok {
			return c, nil
		}
		return nil, fmt.Errorf("relation does not exist")
	})
	assert.Nil(cursors)
	assert.ErrorContains(err, "query failed on ds_3")
	assert.Equal([]string{"ds_0", "ds_2", "ds_3"}, calls)
}

func TestOpenCursorsSkipsSourcesWithoutDSN(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	c := mock.NewMockShardCursor(ctrl)
	cursors, err := openCursors(context.Background(), []config.DataSourceCfg{
		{Name: "ds_0"},
		{Name: "ds_1", DSN: "dsn1"},
	}, func(context.Context, config.DataSourceCfg) (merge.ShardCursor, error) {
		return c, nil
	})
	assert.NoError(err)
	assert.Equal([]merge.ShardCursor{c}, cursors)
}

func TestMergeCommandUnknownProtocol(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	assert.NoError(t, os.WriteFile(cfgFile, []byte(testConfig), 0600))

	defer func() { protocol = protocolSQL }()
	rootCmd.SetArgs([]string{"merge", "-c", cfgFile, "-q", "SELECT 1", "--protocol", "carrier-pigeon"})
	assert.ErrorContains(t, rootCmd.Execute(), "unknown protocol")
}
