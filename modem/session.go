package modem

import (
	"context"
	"fmt"
	"time"

	"github.com/rehiy/modem-connect/logger"
	"github.com/rehiy/modem-connect/models"
)

// SessionState 会话状态机的状态。
type SessionState string

const (
	SessionIdle           SessionState = "idle"
	SessionInitializing   SessionState = "initializing"
	SessionAuthenticating SessionState = "authenticating_apn"
	SessionAttaching      SessionState = "attaching"
	SessionUp             SessionState = "session_up"
	SessionFailed         SessionState = "failed"
)

const (
	regPollInterval = 2 * time.Second
	regTimeout      = 30 * time.Second
)

// Session 驱动一次完整的拨号序列并解析响应。
// 可重复调用 Connect：每次都从 Idle 重新开始，旧串口句柄先关闭再重开，
// 绝不在陈旧连接上叠加命令。
type Session struct {
	dialer  Dialer
	dialect Dialect
	timeout time.Duration

	tr       *Transport
	state    SessionState
	identity models.ModemIdentity
}

// NewSession 创建会话。dialer 决定串口来源，dialect 决定命令方言。
func NewSession(dialer Dialer, dialect Dialect, defaultTimeout time.Duration) *Session {
	return &Session{
		dialer:  dialer,
		dialect: dialect,
		timeout: defaultTimeout,
		state:   SessionIdle,
	}
}

// State 返回当前状态。
func (s *Session) State() SessionState {
	return s.state
}

// Identity 返回最近一次读取的调制解调器身份信息。
func (s *Session) Identity() models.ModemIdentity {
	return s.identity
}

// Alive 判断串口句柄是否仍被持有。
func (s *Session) Alive() bool {
	return s.tr != nil
}

// Close 释放串口句柄。
func (s *Session) Close() {
	if s.tr != nil {
		_ = s.tr.Close()
		s.tr = nil
	}
	s.state = SessionIdle
}

// Open 重新建立串口连接并完成基础初始化与身份读取。
// 监控模式下单独使用：不改动调制解调器的连接状态。
func (s *Session) Open(ctx context.Context) error {
	s.Close()

	port, err := s.dialer.Dial()
	if err != nil {
		return err
	}
	s.tr = NewTransport(port, s.timeout)
	s.state = SessionInitializing

	if err := s.runSteps(ctx, s.dialect.InitSteps()); err != nil {
		s.fail(err)
		return err
	}
	if err := s.readIdentity(ctx); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// Connect 执行完整拨号序列，成功返回完整的网络配置。
// 任何一步出现错误终止符或超时都转入 Failed 并放弃剩余步骤，
// 绝不产出部分配置。
func (s *Session) Connect(ctx context.Context, apn, user, pass string) (*models.NetworkConfig, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}

	// SIM 就绪门限
	if err := s.runSteps(ctx, []Step{s.dialect.SIMReadyStep()}); err != nil {
		s.fail(err)
		return nil, err
	}

	s.state = SessionAuthenticating
	logger.App.Infof("Configuring APN context: %s", apn)
	if err := s.runSteps(ctx, s.dialect.AuthSteps(apn, user, pass)); err != nil {
		s.fail(err)
		return nil, err
	}

	s.state = SessionAttaching
	logger.App.Info("Attaching to packet service...")
	if err := s.runSteps(ctx, s.dialect.AttachSteps()); err != nil {
		s.fail(err)
		return nil, err
	}
	if err := s.waitRegistered(ctx); err != nil {
		s.fail(err)
		return nil, err
	}

	lines, err := s.collect(ctx, s.dialect.AddressSteps())
	if err != nil {
		s.fail(err)
		return nil, err
	}
	cfg := s.dialect.ParseNetworkConfig(lines)

	// 即使每条命令都返回 OK，配置不完整同样视为失败
	if !cfg.Complete() {
		err := &ProtocolError{Step: "network config", Lines: lines}
		s.fail(err)
		return nil, fmt.Errorf("incomplete network config: %w", err)
	}

	s.state = SessionUp
	logger.App.Infof("Session up: addr=%s gw=%s dns=%v", cfg.Address, cfg.Gateway, cfg.DNS)
	return cfg, nil
}

// PollSignal 拉取一次信号与注册快照。
// 传输层错误上抛；单条命令的错误终止符只导致相应指标缺失。
func (s *Session) PollSignal(ctx context.Context) (models.SignalSnapshot, error) {
	if s.tr == nil {
		return models.SignalSnapshot{}, ErrPortUnavailable
	}

	var lines []string
	for _, st := range s.dialect.SignalSteps() {
		resp, err := s.tr.Send(ctx, st.Cmd)
		if err != nil {
			return models.SignalSnapshot{}, err
		}
		if resp.Status != StatusSuccess {
			continue
		}
		lines = append(lines, resp.Lines...)
	}

	snap := s.dialect.ParseSignal(lines)
	snap.FetchedAt = time.Now()
	return snap, nil
}

func (s *Session) readIdentity(ctx context.Context) error {
	lines, err := s.collect(ctx, s.dialect.IdentitySteps())
	if err != nil {
		return err
	}
	s.identity = s.dialect.ParseIdentity(lines)
	logger.App.Infof("Modem: %s %s (fw %s, imei %s)",
		s.identity.Manufacturer, s.identity.Model, s.identity.Firmware, s.identity.IMEI)
	return nil
}

// waitRegistered 轮询网络注册状态直至注册成功或超时。
func (s *Session) waitRegistered(ctx context.Context) error {
	deadline := time.Now().Add(regTimeout)
	for {
		resp, err := s.tr.Send(ctx, s.dialect.RegistrationStep().Cmd)
		if err == nil && resp.Status == StatusSuccess && s.dialect.Registered(resp) {
			logger.App.Info("Registered on network")
			return nil
		}
		if time.Now().After(deadline) {
			return &ProtocolError{Step: "network registration", Lines: resp.Lines}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(regPollInterval):
		}
	}
}

// runSteps 顺序执行步骤。宽容步骤的错误终止符仅记录告警。
func (s *Session) runSteps(ctx context.Context, steps []Step) error {
	for i := 0; i < len(steps); i++ {
		st := steps[i]
		resp, err := s.tr.Send(ctx, st.Cmd)
		if err != nil {
			return err
		}
		if resp.Status != StatusSuccess {
			if !st.Tolerant {
				return &ProtocolError{Step: st.Cmd.Text, Lines: resp.Lines}
			}
			logger.App.Warnf("Command %q failed, proceeding: %v", st.Cmd.Text, resp.Lines)
			continue
		}
		if st.Verify != nil {
			if err := st.Verify(resp); err != nil {
				return &ProtocolError{Step: st.Cmd.Text, Lines: resp.Lines}
			}
		}
		if st.Follow != nil {
			steps = append(steps[:i+1], append(st.Follow(resp), steps[i+1:]...)...)
		}
	}
	return nil
}

// collect 执行步骤并汇总所有成功响应的行。
func (s *Session) collect(ctx context.Context, steps []Step) ([]string, error) {
	var lines []string
	for _, st := range steps {
		resp, err := s.tr.Send(ctx, st.Cmd)
		if err != nil {
			return nil, err
		}
		if resp.Status != StatusSuccess {
			if !st.Tolerant {
				return nil, &ProtocolError{Step: st.Cmd.Text, Lines: resp.Lines}
			}
			continue
		}
		lines = append(lines, resp.Lines...)
	}
	return lines, nil
}

func (s *Session) fail(err error) {
	s.state = SessionFailed
	logger.App.Errorf("Modem session failed: %v", err)
	if s.tr != nil {
		_ = s.tr.Close()
		s.tr = nil
	}
}
