package migration

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invsync/backend/migrations"
)

func TestSource_String(t *testing.T) {
	assert.Equal(t, "embedded", EmbeddedSource().String())
	assert.Equal(t, "file://db/migrations", DirSource("db/migrations").String())
}

func TestEmbeddedSource_Driver(t *testing.T) {
	driver, err := EmbeddedSource().driver()
	require.NoError(t, err)
	require.NotNil(t, driver)
	defer driver.Close()

	first, err := driver.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	var versions []uint
	for v := first; ; {
		versions = append(versions, v)

		up, ident, err := driver.ReadUp(v)
		require.NoError(t, err, "version %d", v)
		body, err := io.ReadAll(up)
		up.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, body, "up migration %s is empty", ident)

		down, _, err := driver.ReadDown(v)
		require.NoError(t, err, "version %d has no down migration", v)
		down.Close()

		next, err := driver.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		v = next
	}

	entries, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Len(t, versions, len(entries))
}

func TestDirSource_UsesURL(t *testing.T) {
	driver, err := DirSource("migrations").driver()
	require.NoError(t, err)
	assert.Nil(t, driver)
}

func TestIOFSAcceptsEmbeddedFS(t *testing.T) {
	driver, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	assert.NoError(t, driver.Close())
}
