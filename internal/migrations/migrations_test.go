package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			fsys, err := For(driver)
			require.NoError(t, err)

			up, err := fs.ReadFile(fsys, "000001_init.up.sql")
			require.NoError(t, err)
			assert.Contains(t, string(up), "session_summaries")

			_, err = fs.Stat(fsys, "000001_init.down.sql")
			assert.NoError(t, err)
		})
	}

	_, err := For("oracle")
	assert.Error(t, err)
}
