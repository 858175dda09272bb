package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHistory(t *testing.T) {
	h := Default()
	require.Len(t, h.Rounds, 3)
	assert.Equal(t, 1, h.Rounds[0].Round)
	assert.InDelta(t, 0.92, h.Rounds[2].Accuracy, 1e-9)
	assert.Equal(t, "hospital_A", h.Rounds[0].Clients[0].Client)
}

func TestStatusDerivedFromLastRound(t *testing.T) {
	s := Default().Status()

	assert.Equal(t, 3, s.Round)
	assert.InDelta(t, 0.92, s.GlobalAccuracy, 1e-9)
	assert.Equal(t, 0, s.ConnectedClients)
	assert.Equal(t, 3, s.TotalRounds)
	assert.True(t, s.CloudMode)
	assert.False(t, s.FederatedLearning)
	assert.Equal(t, "Trained and deployed", s.ModelStatus)
	assert.Equal(t, "Training completed locally", s.LastUpdate)
}

func TestStatusEmptyHistory(t *testing.T) {
	s := History{}.Status()

	assert.Equal(t, 0, s.Round)
	assert.Equal(t, 0, s.TotalRounds)
	assert.InDelta(t, 0.0, s.GlobalAccuracy, 1e-9)
	assert.True(t, s.CloudMode)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	h, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), h)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	payload := `{"history":[{"round":1,"accuracy":0.8,"clients":[{"client":"hospital_A","accuracy":0.79}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	h, err := Load(path)
	require.NoError(t, err)
	require.Len(t, h.Rounds, 1)
	assert.InDelta(t, 0.8, h.Rounds[0].Accuracy, 1e-9)

	s := h.Status()
	assert.Equal(t, 1, s.TotalRounds)
	assert.InDelta(t, 0.8, s.GlobalAccuracy, 1e-9)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"history":[]}`), 0644))
	_, err = Load(empty)
	assert.Error(t, err)
}
