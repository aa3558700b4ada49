package watchdog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rehiy/modem-connect/config"
	"github.com/rehiy/modem-connect/database"
	"github.com/rehiy/modem-connect/events"
	"github.com/rehiy/modem-connect/logger"
	"github.com/rehiy/modem-connect/modem"
	"github.com/rehiy/modem-connect/models"
	"github.com/rehiy/modem-connect/netconf"
)

// Watchdog 监督整个连接生命周期：发现、拨号、下发网络配置、
// 健康轮询与自动恢复。ConnectionState 由它唯一持有。
type Watchdog struct {
	cfg      *config.Config
	applier  *netconf.Applier
	status   *Status
	listener *events.EventListener

	// 可注入项，测试替换真实串口与系统调用
	newDialer     func(path string) modem.Dialer
	discoverPort  func(keyword string) (string, error)
	discoverIface func(mac string) (string, error)
	portPresent   func(path string) bool
	dialect       modem.Dialect
}

// New 创建看门狗。
func New(cfg *config.Config, applier *netconf.Applier) *Watchdog {
	return &Watchdog{
		cfg:      cfg,
		applier:  applier,
		status:   NewStatus(),
		listener: events.GetEventListener(),
		newDialer: func(path string) modem.Dialer {
			return modem.SerialDialer{Path: path, Baud: cfg.BaudRate}
		},
		discoverPort:  modem.FindSerialPort,
		discoverIface: modem.FindInterfaceByMAC,
		portPresent: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		dialect: &modem.FibocomDialect{LongTimeout: cfg.ATLongTimeout},
	}
}

// Status 返回只读状态视图，供状态接口与页面消费。
func (w *Watchdog) Status() *Status {
	return w.status
}

// Run 主循环：连接周期失败后退避重试，直到上下文取消或超过重试上限。
// 返回非 nil 表示不可恢复，进程应以非零状态退出。
func (w *Watchdog) Run(ctx context.Context) error {
	attempts := 0

	for {
		if ctx.Err() != nil {
			w.shutdown()
			return nil
		}

		port, iface, err := w.discover()
		if err == nil {
			var session *modem.Session
			session, err = w.connect(ctx, port, iface)
			if err == nil {
				attempts = 0
				reason := w.poll(ctx, session, port)
				session.Close()
				if ctx.Err() != nil {
					w.shutdown()
					return nil
				}
				w.transition(models.StateReconnecting, reason)
				w.status.markStale(reason)
			}
		}

		if err != nil {
			attempts++
			if w.cfg.RetryMax > 0 && attempts >= w.cfg.RetryMax {
				w.transition(models.StateDisconnected, "retry limit reached")
				return fmt.Errorf("giving up after %d failed connect cycles: %w", attempts, err)
			}
			logger.App.Warnf("Connect cycle failed (attempt %d): %v; retrying in %s",
				attempts, err, w.cfg.RetryDelay)
		}

		select {
		case <-ctx.Done():
			w.shutdown()
			return nil
		case <-time.After(w.cfg.RetryDelay):
		}
	}
}

// discover 解析串口设备与主机接口。失败快速返回，重试由主循环负责。
func (w *Watchdog) discover() (string, string, error) {
	w.transition(models.StateDiscovering, "")

	port, err := w.discoverPort(w.cfg.SerialPortKeyword)
	if err != nil {
		return "", "", err
	}
	logger.App.Infof("Modem control port: %s", port)

	iface := ""
	if !w.cfg.OnlyMonitor {
		iface, err = w.discoverIface(w.cfg.ModemMACAddress)
		if err != nil {
			return "", "", err
		}
		logger.App.Infof("Modem network interface: %s", iface)
	}
	w.status.setEndpoints(port, iface)
	return port, iface, nil
}

// connect 执行一次拨号并把网络参数下发到主机。
// 监控模式只打开串口，不触碰调制解调器连接状态与主机网络。
func (w *Watchdog) connect(ctx context.Context, port, iface string) (*modem.Session, error) {
	session := modem.NewSession(w.newDialer(port), w.dialect, w.cfg.ATTimeout)

	if w.cfg.OnlyMonitor {
		if err := session.Open(ctx); err != nil {
			return nil, err
		}
		w.status.setIdentity(session.Identity())
		w.transition(models.StateConnected, "monitor only")
		return session, nil
	}

	w.transition(models.StateConnecting, "")
	netcfg, err := session.Connect(ctx, w.cfg.APN, w.cfg.APNUser, w.cfg.APNPass)
	if err != nil {
		session.Close()
		return nil, err
	}
	w.status.setIdentity(session.Identity())

	// DNS 覆盖在下发之前替换运营商 DNS，应用器对此无感知
	if len(w.cfg.DNSOverride) > 0 {
		netcfg.DNS = append([]string(nil), w.cfg.DNSOverride...)
	}

	if err := w.applier.Apply(ctx, netcfg, iface); err != nil {
		session.Close()
		return nil, err
	}
	w.status.setNetwork(netcfg)
	w.transition(models.StateConnected, "")
	return session, nil
}

// poll 周期性验证串口、连通性并刷新信号快照。
// 返回触发重连的原因；上下文取消时返回空串。
func (w *Watchdog) poll(ctx context.Context, session *modem.Session, port string) string {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	degraded := false
	for {
		select {
		case <-ctx.Done():
			return ""
		case <-ticker.C:
		}

		// 串口消失立即触发重连
		if !w.portPresent(port) {
			logger.App.Warnf("Serial port %s disappeared", port)
			return "serial port lost"
		}

		snap, err := session.PollSignal(ctx)
		switch {
		case err == nil:
			w.status.setSnapshot(snap)
			w.listener.Broadcast(events.StatusEvent{
				Type: "signal", Snapshot: &snap, Time: time.Now(),
			})
			if err := database.CreateSignalSample(&models.SignalSample{
				Operator: snap.Operator,
				Mode:     snap.Mode,
				RSSI:     snap.RSSI,
				RSRP:     snap.RSRP,
				RSRQ:     snap.RSRQ,
				SINR:     snap.SINR,
				Band:     snap.Band,
			}); err != nil {
				logger.App.Warnf("Failed to journal signal sample: %v", err)
			}
		case errors.Is(err, modem.ErrIO), errors.Is(err, modem.ErrPortUnavailable):
			logger.App.Warnf("Signal poll i/o failure: %v", err)
			return "serial i/o failure"
		case errors.Is(err, context.Canceled):
			return ""
		default:
			// 超时等瞬态失败：保留旧快照，标记过期
			logger.App.Warnf("Signal poll failed: %v", err)
			w.status.markStale(err.Error())
		}

		// 主机连通性检查
		if !w.applier.Reachable(ctx, w.cfg.PingTarget) {
			if degraded {
				logger.App.Warnf("Connectivity to %s lost", w.cfg.PingTarget)
				return "connectivity lost"
			}
			degraded = true
			w.transition(models.StateDegraded, "ping failed")
		} else if degraded {
			degraded = false
			w.transition(models.StateConnected, "ping recovered")
		}
	}
}

// transition 状态变更：记录日志、广播事件并写入连接日志。
func (w *Watchdog) transition(state models.ConnectionState, reason string) {
	if w.status.State() == state {
		return
	}
	w.status.setState(state)
	if reason != "" {
		logger.App.Infof("Connection state: %s (%s)", state, reason)
	} else {
		logger.App.Infof("Connection state: %s", state)
	}

	w.listener.Broadcast(events.StatusEvent{
		Type: "state", State: state, Reason: reason, Time: time.Now(),
	})
	if err := database.CreateConnectionEvent(&models.ConnectionEvent{
		State: state, Reason: reason,
	}); err != nil {
		logger.App.Warnf("Failed to journal state transition: %v", err)
	}
}

func (w *Watchdog) shutdown() {
	w.transition(models.StateDisconnected, "shutdown requested")
	logger.App.Info("Watchdog stopped")
}
