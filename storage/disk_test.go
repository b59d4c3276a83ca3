package storage_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanline/transport/storage"
)

func TestDiskSaveAndOpen(t *testing.T) {
	d, err := storage.NewDisk(t.TempDir(), "/files")
	require.NoError(t, err)

	url, err := d.Save("student-1", "contrato.pdf", strings.NewReader("signed contract bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/files/contracts/student-1/contrato.pdf", url)

	f, err := d.Open(url)
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "signed contract bytes", string(content))
}

func TestDiskSanitizesFilenames(t *testing.T) {
	d, err := storage.NewDisk(t.TempDir(), "/files")
	require.NoError(t, err)

	url, err := d.Save("student-1", "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/files/contracts/student-1/passwd", url)
}

func TestDiskRejectsTraversalOnOpen(t *testing.T) {
	d, err := storage.NewDisk(t.TempDir(), "/files")
	require.NoError(t, err)

	_, err = d.Open("/files/../outside")
	assert.Error(t, err)
}
