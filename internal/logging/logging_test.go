package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToOutAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "newsfind.log")

	log, closeLog, err := New("debug", &buf, path)
	require.NoError(t, err)

	log.WithField("query", "cat").Debug("dispatching search")
	require.NoError(t, closeLog())

	assert.Contains(t, buf.String(), "dispatching search")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "query=cat")
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	log, _, err := New("loud", nil, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewUnwritableFile(t *testing.T) {
	_, closeLog, err := New("info", nil, filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
	assert.NotNil(t, closeLog)
}
