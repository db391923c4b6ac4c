package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func writeDataset(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "mp_270126_p1_1_1_2.csv",
		"mp_id,municipality_name,district_name,p1_1_3_4_tot_25_no\n"+
			"ulb_002,Ambur Municipality,Tirupattur,45000\n"+
			"ulb_001,Chennai Municipal Corporation,Chennai,150000\n"+
			"ulb_003,Pallavaram Municipality,Chengalpattu,n/a\n")
	writeFile(t, dir, "mp_270126_p8_1_1.csv",
		"mp_id,revenue,expenditure\n"+
			"ulb_001,1200,800\n"+
			"ulb_001,300,100\n"+
			"ulb_002,500,450\n")
	writeFile(t, dir, "mp_270126_district_codes.csv",
		"district_name,code\nChennai,TN01\nTirupattur,TN31\n")
	return dir
}

func TestLoad(t *testing.T) {
	store, err := Load(writeDataset(t), DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	t.Run("registry sorted by id", func(t *testing.T) {
		entities := store.Entities()
		require.Len(t, entities, 3)
		assert.Equal(t, []string{"ulb_001", "ulb_002", "ulb_003"}, store.EntityIDs())
		assert.Equal(t, "Chennai Municipal Corporation", entities[0].Name)
		assert.Equal(t, "Tirupattur", entities[1].District)
	})

	t.Run("population parsed when numeric", func(t *testing.T) {
		e, ok := store.Entity("ulb_002")
		require.True(t, ok)
		require.NotNil(t, e.Population)
		assert.InDelta(t, 45000, *e.Population, 1e-9)

		// Non-numeric population stays nil rather than zero.
		e, ok = store.Entity("ulb_003")
		require.True(t, ok)
		assert.Nil(t, e.Population)
	})

	t.Run("file prefix stripped from table names", func(t *testing.T) {
		assert.True(t, store.HasTable("p8_1_1"))
		assert.False(t, store.HasTable("mp_270126_p8_1_1"))
	})

	t.Run("rows partitioned by entity", func(t *testing.T) {
		rows := store.Rows("ulb_001", "p8_1_1")
		require.Len(t, rows, 2)
		assert.Equal(t, "1200", rows[0]["revenue"])
		assert.Empty(t, store.Rows("ulb_003", "p8_1_1"))
	})

	t.Run("tables without id column are shared", func(t *testing.T) {
		require.True(t, store.HasTable("district_codes"))
		rows := store.Rows("ulb_001", "district_codes")
		require.Len(t, rows, 2)
		assert.Equal(t, store.Rows("ulb_002", "district_codes"), rows)
	})

	t.Run("unknown lookups", func(t *testing.T) {
		_, ok := store.Entity("ulb_999")
		assert.False(t, ok)
		assert.Nil(t, store.Rows("ulb_001", "no_such_table"))
	})
}

func TestLoad_BOMHeader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1_1_1_2.csv",
		"\ufeffmp_id,municipality_name,district_name,p1_1_3_4_tot_25_no\n"+
			"ulb_001,Chennai Municipal Corporation,Chennai,150000\n")

	store, err := Load(dir, DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, store.Entities(), 1)
	assert.Equal(t, "ulb_001", store.Entities()[0].ID)
}

func TestLoad_SkipsBrokenPartition(t *testing.T) {
	dir := writeDataset(t)
	// Unbalanced quotes make this file unparseable; loading must continue.
	writeFile(t, dir, "mp_270126_p9_9_9.csv", "mp_id,x\nulb_001,\"broken\n")

	store, err := Load(dir, DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, store.HasTable("p9_9_9"))
	assert.True(t, store.HasTable("p8_1_1"))
}

func TestLoad_MissingRegistryFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p8_1_1.csv", "mp_id,revenue\nulb_001,100\n")

	_, err := Load(dir, DefaultConfig(), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry partition")
}

func TestLoad_EmptyDir(t *testing.T) {
	_, err := Load(t.TempDir(), DefaultConfig(), zerolog.Nop())
	assert.Error(t, err)
}

func TestLoad_RaggedRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1_1_1_2.csv",
		"mp_id,municipality_name,district_name,p1_1_3_4_tot_25_no\n"+
			"ulb_001,Short Row Municipality\n")

	store, err := Load(dir, DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)
	e, ok := store.Entity("ulb_001")
	require.True(t, ok)
	assert.Equal(t, "Short Row Municipality", e.Name)
	assert.Empty(t, e.District)
	assert.Nil(t, e.Population)
}
