package netconf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehiy/modem-connect/models"
)

// fakeRunner 记录命令，按前缀脚本化失败。
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: map[string]error{}}
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := name + " " + strings.Join(args, " ")
	r.calls = append(r.calls, call)
	for prefix, err := range r.fail {
		if strings.HasPrefix(call, prefix) {
			return "", err
		}
	}
	return "", nil
}

func (r *fakeRunner) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func validConfig() *models.NetworkConfig {
	return &models.NetworkConfig{
		Address: "10.0.0.5",
		Netmask: "255.255.255.0",
		Gateway: "10.0.0.1",
		DNS:     []string{"8.8.8.8", "8.8.4.4"},
	}
}

func TestApplyCommandSequence(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)

	require.NoError(t, a.Apply(context.Background(), validConfig(), "wwan0"))
	assert.Equal(t, []string{
		"ip link set dev wwan0 up",
		"ip addr replace 10.0.0.5/24 dev wwan0",
		"ip route replace default via 10.0.0.1 dev wwan0",
		"resolvectl dns wwan0 8.8.8.8 8.8.4.4",
	}, runner.commands())
}

func TestApplyIsIdempotent(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	cfg := validConfig()

	require.NoError(t, a.Apply(context.Background(), cfg, "wwan0"))
	first := runner.commands()
	require.NoError(t, a.Apply(context.Background(), cfg, "wwan0"))

	// replace 语义：重复应用产生完全相同的命令
	assert.Equal(t, append(first, first...), runner.commands())
}

func TestApplyPointToPointRoute(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	cfg := &models.NetworkConfig{
		Address: "10.64.12.3",
		Netmask: "255.255.255.255",
		Gateway: "10.64.12.3",
		DNS:     []string{"8.8.8.8"},
	}

	require.NoError(t, a.Apply(context.Background(), cfg, "wwan0"))
	assert.Contains(t, runner.commands(), "ip route replace default dev wwan0")
	assert.NotContains(t, runner.commands(), "ip route replace default via 10.64.12.3 dev wwan0")
}

func TestApplySetsMTU(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	cfg := validConfig()
	cfg.MTU = 1430

	require.NoError(t, a.Apply(context.Background(), cfg, "wwan0"))
	assert.Contains(t, runner.commands(), "ip link set dev wwan0 mtu 1430")
}

func TestApplyRejectsIncompleteConfig(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	cfg := validConfig()
	cfg.DNS = nil

	err := a.Apply(context.Background(), cfg, "wwan0")
	assert.ErrorIs(t, err, ErrApply)
	// 不完整配置绝不触碰主机
	assert.Empty(t, runner.commands())
}

func TestApplyRejectsBadNetmask(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	cfg := validConfig()
	cfg.Netmask = "255.0.255.0"

	assert.ErrorIs(t, a.Apply(context.Background(), cfg, "wwan0"), ErrApply)
	assert.Empty(t, runner.commands())
}

func TestApplyRejectsBadAddress(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	cfg := validConfig()
	cfg.Address = "not-an-ip"

	assert.ErrorIs(t, a.Apply(context.Background(), cfg, "wwan0"), ErrApply)
	assert.Empty(t, runner.commands())
}

func TestApplyPropagatesRouteFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.fail["ip route"] = errors.New("RTNETLINK answers: operation not permitted")
	a := NewApplier(runner)

	assert.ErrorIs(t, a.Apply(context.Background(), validConfig(), "wwan0"), ErrApply)
}

func TestApplyToleratesDNSFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.fail["resolvectl"] = errors.New("resolvectl not found")
	a := NewApplier(runner)

	assert.NoError(t, a.Apply(context.Background(), validConfig(), "wwan0"))
}

func TestReachable(t *testing.T) {
	runner := newFakeRunner()
	a := NewApplier(runner)
	assert.True(t, a.Reachable(context.Background(), "8.8.8.8"))
	assert.Contains(t, runner.commands(), "ping -c 1 -W 1 8.8.8.8")

	runner.fail["ping"] = errors.New("100% packet loss")
	assert.False(t, a.Reachable(context.Background(), "8.8.8.8"))
}

func TestMaskToPrefix(t *testing.T) {
	cases := []struct {
		mask   string
		prefix int
		ok     bool
	}{
		{"255.255.255.255", 32, true},
		{"255.255.255.0", 24, true},
		{"255.255.255.252", 30, true},
		{"0.0.0.0", 0, true},
		{"255.0.255.0", 0, false},
		{"garbage", 0, false},
	}
	for _, c := range cases {
		prefix, err := maskToPrefix(c.mask)
		if !c.ok {
			assert.Error(t, err, "mask %s", c.mask)
			continue
		}
		require.NoError(t, err, "mask %s", c.mask)
		assert.Equal(t, c.prefix, prefix, fmt.Sprintf("mask %s", c.mask))
	}
}
