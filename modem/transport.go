package modem

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/rehiy/modem-connect/logger"
)

const (
	readBufferSize   = 256
	readPollInterval = 50 * time.Millisecond
	serialReadTick   = 200 * time.Millisecond
)

// Port 调制解调器的双向字节流。串口之外，测试可注入内存实现。
type Port interface {
	io.ReadWriteCloser
}

// Dialer 负责建立 Port 连接。
type Dialer interface {
	Dial() (Port, error)
}

// SerialDialer 通过 tarm/serial 打开串口控制通道。
type SerialDialer struct {
	Path string
	Baud int
}

// Dial 独占打开串口。打开失败归类为 ErrPortUnavailable。
func (d SerialDialer) Dial() (Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        d.Path,
		Baud:        d.Baud,
		ReadTimeout: serialReadTick,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPortUnavailable, d.Path, err)
	}
	return port, nil
}

// Transport 持有串口连接，逐条发送命令并读取行响应。
// 不解释响应内容，所有收发字节写入 AT 流量日志。
type Transport struct {
	port       Port
	defTimeout time.Duration
}

// NewTransport 用已打开的端口创建传输层。
func NewTransport(port Port, defaultTimeout time.Duration) *Transport {
	return &Transport{port: port, defTimeout: defaultTimeout}
}

// Close 关闭底层端口。
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// Send 写入一条命令并读取响应，直到出现期望终止符、错误终止符或超时。
// 超时与 I/O 错误原样上抛，从不在内部重试。
func (t *Transport) Send(ctx context.Context, cmd Command) (Response, error) {
	if t.port == nil {
		return Response{Status: StatusError}, ErrPortUnavailable
	}

	// 清理历史未读数据，避免旧响应干扰
	if f, ok := t.port.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}

	logger.TrafficTX(cmd.Text)
	if _, err := t.port.Write([]byte(cmd.Text + eol)); err != nil {
		logger.TrafficNote("write failed for %q: %v", cmd.Text, err)
		return Response{Status: StatusError}, fmt.Errorf("%w: write %q: %v", ErrIO, cmd.Text, err)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = t.defTimeout
	}
	deadline := time.Now().Add(timeout)

	done := cmd.Done
	if len(done) == 0 {
		done = []string{respOK}
	}

	var raw strings.Builder
	buf := make([]byte, readBufferSize)
	logged := 0

	for {
		select {
		case <-ctx.Done():
			logger.TrafficNote("canceled while waiting for %q", cmd.Text)
			return Response{Lines: splitLines(raw.String(), cmd.Text), Status: StatusTimeout}, ctx.Err()
		default:
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			raw.Write(buf[:n])
			lines := splitLines(raw.String(), cmd.Text)
			for ; logged < len(lines); logged++ {
				logger.TrafficRX(lines[logged])
			}
			if status, terminal := terminalStatus(lines, done); terminal {
				return Response{Lines: lines, Status: status}, nil
			}
		}
		if err != nil && err != io.EOF {
			logger.TrafficNote("read failed for %q: %v", cmd.Text, err)
			return Response{Lines: splitLines(raw.String(), cmd.Text), Status: StatusError},
				fmt.Errorf("%w: read after %q: %v", ErrIO, cmd.Text, err)
		}

		if time.Now().After(deadline) {
			lines := splitLines(raw.String(), cmd.Text)
			logger.TrafficNote("timeout waiting for %q, buffer: %s", cmd.Text, strings.Join(lines, " | "))
			return Response{Lines: lines, Status: StatusTimeout}, fmt.Errorf("%w: %q", ErrTimeout, cmd.Text)
		}
		if n == 0 {
			time.Sleep(readPollInterval)
		}
	}
}

// splitLines 归一化换行并去掉空行与命令回显。
func splitLines(raw, echo string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == echo {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// terminalStatus 检查最后一行是否为终止符。
func terminalStatus(lines, done []string) (ResponseStatus, bool) {
	if len(lines) == 0 {
		return "", false
	}
	last := lines[len(lines)-1]

	if last == respError ||
		strings.HasPrefix(last, respCMEError) ||
		strings.HasPrefix(last, respCMSError) ||
		last == respNoCarrier {
		return StatusError, true
	}
	for _, token := range done {
		if strings.HasPrefix(last, token) {
			return StatusSuccess, true
		}
	}
	return "", false
}
