package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehiy/modem-connect/models"
)

func TestStatusOverview(t *testing.T) {
	s := NewStatus()
	assert.Equal(t, models.StateDiscovering, s.State())

	s.setState(models.StateConnected)
	s.setEndpoints("/dev/ttyACM0", "wwan0")
	s.setIdentity(models.ModemIdentity{Model: "L850-GL"})
	s.setNetwork(&models.NetworkConfig{Address: "10.0.0.5"})

	ov := s.Overview()
	assert.Equal(t, models.StateConnected, ov.State)
	assert.Equal(t, "/dev/ttyACM0", ov.Port)
	assert.Equal(t, "wwan0", ov.Interface)
	assert.Equal(t, "L850-GL", ov.Identity.Model)
	require.NotNil(t, ov.Network)
	assert.Equal(t, "10.0.0.5", ov.Network.Address)
}

func TestStatusMarkStalePreservesSnapshot(t *testing.T) {
	s := NewStatus()
	s.setSnapshot(models.SignalSnapshot{Operator: "TestNet", FetchedAt: time.Now()})

	s.markStale("command timeout")

	got := s.Snapshot()
	assert.Equal(t, "TestNet", got.Operator)
	assert.True(t, got.Stale)
	assert.Equal(t, "command timeout", got.FetchError)
	assert.False(t, got.FetchedAt.IsZero())
}

func TestStatusFreshSnapshotClearsStale(t *testing.T) {
	s := NewStatus()
	s.setSnapshot(models.SignalSnapshot{Operator: "TestNet"})
	s.markStale("serial i/o failure")

	s.setSnapshot(models.SignalSnapshot{Operator: "TestNet", FetchedAt: time.Now()})

	got := s.Snapshot()
	assert.False(t, got.Stale)
	assert.Empty(t, got.FetchError)
}
