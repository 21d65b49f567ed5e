package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	migrations, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "0001_kv_entries", migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "kv_entries")
}

func TestLoad_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql":   {Data: []byte("SELECT 2;")},
		"m/0001_a.sql":   {Data: []byte("SELECT 1;")},
		"m/README.md":    {Data: []byte("notes")},
		"m/sub/0003.sql": {Data: []byte("SELECT 3;")},
	}

	migrations, err := load(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001_a", migrations[0].Version)
	assert.Equal(t, "0002_b", migrations[1].Version)
}

func TestLoad_RejectsEmptyFile(t *testing.T) {
	fsys := fstest.MapFS{"m/0001_empty.sql": {Data: []byte("  \n")}}

	_, err := load(fsys, "m")
	assert.ErrorContains(t, err, "0001_empty.sql is empty")
}

func TestPendingVersions(t *testing.T) {
	migrations := []Migration{{Version: "0001"}, {Version: "0002"}, {Version: "0003"}}

	assert.Equal(t, []string{"0001", "0002", "0003"}, pendingVersions(migrations, map[string]bool{}))
	assert.Equal(t, []string{"0003"}, pendingVersions(migrations, map[string]bool{"0001": true, "0002": true}))
	assert.Empty(t, pendingVersions(migrations, map[string]bool{"0001": true, "0002": true, "0003": true}))
}
