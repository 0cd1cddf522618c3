package command

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoCommand(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	writeArchive(t, in, 4)

	stdout, _, err := run(t, "info", "--in", in)
	require.NoError(t, err)

	assert.Contains(t, stdout, "objects:     2")
	assert.Contains(t, stdout, "/shot/grid")
	assert.Contains(t, stdout, "polymesh")
	assert.Contains(t, stdout, "arbGeomParams/Cd")
	assert.Contains(t, stdout, "color")

	// The positional form is equivalent.
	again, _, err := run(t, "info", in)
	require.NoError(t, err)
	assert.Equal(t, stdout, again)
}

func TestInfoCommandErrors(t *testing.T) {
	_, _, err := run(t, "info")
	assert.ErrorIs(t, err, ErrUsage)

	_, _, err = run(t, "info", "--in", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, _, err = run(t, "info", "--in", "ftp://host/x")
	assert.Error(t, err)
}
