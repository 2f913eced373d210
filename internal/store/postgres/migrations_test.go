package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		migrations, err := loadMigrations(migrationsFS)
		require.NoError(t, err)
		require.NotEmpty(t, migrations)
		require.Equal(t, 1, migrations[0].version)
		require.Contains(t, migrations[0].content, "issued_certificates")
	})

	t.Run("ordered and filtered", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/10_later.sql":   {Data: []byte("SELECT 10")},
			"migrations/2_second.sql":   {Data: []byte("SELECT 2")},
			"migrations/1_first.sql":    {Data: []byte("SELECT 1")},
			"migrations/readme.md":      {Data: []byte("notes")},
			"migrations/noversion.sql":  {Data: []byte("SELECT 0")},
			"migrations/x_bad_name.sql": {Data: []byte("SELECT 0")},
		}

		migrations, err := loadMigrations(fsys)
		require.NoError(t, err)

		versions := make([]int, 0, len(migrations))
		for _, m := range migrations {
			versions = append(versions, m.version)
		}
		require.Equal(t, []int{1, 2, 10}, versions)
	})
}
