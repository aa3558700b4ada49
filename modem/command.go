package modem

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// 特殊字符
	eol = "\r\n"

	// 常用响应终止符
	respOK        = "OK"
	respError     = "ERROR"
	respCMEError  = "+CME ERROR:"
	respCMSError  = "+CMS ERROR:"
	respConnect   = "CONNECT"
	respNoCarrier = "NO CARRIER"
)

var (
	// 传输层错误
	ErrPortUnavailable = errors.New("serial port unavailable")
	ErrTimeout         = errors.New("command timeout")
	ErrIO              = errors.New("serial i/o error")
)

// ResponseStatus 单条命令的终态。
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
	StatusTimeout ResponseStatus = "timeout"
)

// Command 一条待发送的 AT 命令，按序列步骤逐条构造，不可变。
type Command struct {
	Text    string
	Timeout time.Duration // 零值使用传输层默认超时
	Done    []string      // 成功终止符，空表示 OK
}

// Response 单条命令收到的按序原始行与终态。
type Response struct {
	Lines  []string
	Status ResponseStatus
}

// Value 返回第一条含指定前缀的行中第 index 个字段（按冒号与逗号切分，去引号）。
// 解析失败返回空串，由调用方决定是否忽略该指标。
func (r Response) Value(prefix string, index int) string {
	return responseValue(r.Lines, prefix, index)
}

// Contains 判断响应中是否存在包含指定子串的行。
func (r Response) Contains(substr string) bool {
	for _, line := range r.Lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// ProtocolError 序列中途出现错误终止符，或会话建立后配置不完整。
type ProtocolError struct {
	Step  string
	Lines []string
}

func (e *ProtocolError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("protocol error at %q", e.Step)
	}
	return fmt.Sprintf("protocol error at %q: %s", e.Step, strings.Join(e.Lines, " | "))
}

// Step 状态机中的一个命令步骤。
type Step struct {
	Cmd      Command
	Tolerant bool                  // 错误终止符仅告警，不中断序列
	Verify   func(Response) error  // 成功终止符之外的内容校验
	Follow   func(Response) []Step // 由响应内容派生的后续步骤
}

func step(text string) Step {
	return Step{Cmd: Command{Text: text}}
}

func tolerantStep(text string) Step {
	return Step{Cmd: Command{Text: text}, Tolerant: true}
}
