package netconf

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/rehiy/modem-connect/logger"
	"github.com/rehiy/modem-connect/models"
)

// ErrApply 主机拒绝网络配置（权限不足、接口不存在、地址非法）。
var ErrApply = errors.New("failed to apply network config")

// Runner 执行一条带超时的系统命令，返回合并输出。
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner 基于 os/exec 的默认实现。
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	output := strings.TrimSpace(string(out))
	logger.App.Debugf("exec: %s %s -> %s", name, strings.Join(args, " "), output)
	if err != nil {
		return output, fmt.Errorf("%s %s: %v: %s", name, strings.Join(args, " "), err, output)
	}
	return output, nil
}

// Applier 将解析出的网络参数下发到主机接口。
// 使用 ip 的 replace 语义保证幂等：重复应用同一配置不会产生重复地址或路由。
type Applier struct {
	run Runner
}

// NewApplier 创建应用器，runner 为 nil 时使用 ExecRunner。
func NewApplier(runner Runner) *Applier {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Applier{run: runner}
}

// Apply 配置地址、默认路由、DNS 与可选 MTU。
// 失败直接上报，不在内部重试；是否重跑整个连接周期由看门狗决定。
func (a *Applier) Apply(ctx context.Context, cfg *models.NetworkConfig, iface string) error {
	if !cfg.Complete() {
		return fmt.Errorf("%w: incomplete config", ErrApply)
	}

	prefix, err := maskToPrefix(cfg.Netmask)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApply, err)
	}
	if net.ParseIP(cfg.Address) == nil {
		return fmt.Errorf("%w: invalid address %q", ErrApply, cfg.Address)
	}

	logger.App.Infof("Applying network config on %s: %s/%d via %s dns=%v",
		iface, cfg.Address, prefix, cfg.Gateway, cfg.DNS)

	if _, err := a.run.Run(ctx, "ip", "link", "set", "dev", iface, "up"); err != nil {
		return fmt.Errorf("%w: %v", ErrApply, err)
	}
	addr := fmt.Sprintf("%s/%d", cfg.Address, prefix)
	if _, err := a.run.Run(ctx, "ip", "addr", "replace", addr, "dev", iface); err != nil {
		return fmt.Errorf("%w: %v", ErrApply, err)
	}
	if cfg.MTU > 0 {
		if _, err := a.run.Run(ctx, "ip", "link", "set", "dev", iface, "mtu", fmt.Sprint(cfg.MTU)); err != nil {
			return fmt.Errorf("%w: %v", ErrApply, err)
		}
	}

	// 点对点链路上网关可能就是本机地址，此时路由直接走接口
	routeArgs := []string{"route", "replace", "default", "via", cfg.Gateway, "dev", iface}
	if cfg.Gateway == cfg.Address {
		routeArgs = []string{"route", "replace", "default", "dev", iface}
	}
	if _, err := a.run.Run(ctx, "ip", routeArgs...); err != nil {
		return fmt.Errorf("%w: %v", ErrApply, err)
	}

	dnsArgs := append([]string{"dns", iface}, cfg.DNS...)
	if _, err := a.run.Run(ctx, "resolvectl", dnsArgs...); err != nil {
		// DNS 设置失败不影响路由可用性
		logger.App.Warnf("Failed to set DNS servers: %v", err)
	}
	return nil
}

// Reachable 对目标做一次 ping 探测验证主机连通性。
func (a *Applier) Reachable(ctx context.Context, target string) bool {
	_, err := a.run.Run(ctx, "ping", "-c", "1", "-W", "1", target)
	return err == nil
}

// maskToPrefix 点分掩码转前缀长度。
func maskToPrefix(mask string) (int, error) {
	ip := net.ParseIP(mask)
	if ip == nil || ip.To4() == nil {
		return 0, fmt.Errorf("invalid netmask %q", mask)
	}
	prefix, bits := net.IPMask(ip.To4()).Size()
	if bits != 32 || (prefix == 0 && mask != "0.0.0.0") {
		return 0, fmt.Errorf("non-contiguous netmask %q", mask)
	}
	return prefix, nil
}
