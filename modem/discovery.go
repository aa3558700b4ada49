package modem

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/rehiy/modem-connect/config"
)

var (
	// 发现错误，区分"完全无候选"与"有候选但无匹配"
	ErrNoSerialDevices  = errors.New("no serial devices present")
	ErrNoSerialMatch    = errors.New("no serial device matches keyword")
	ErrNoInterfaces     = errors.New("no network interfaces present")
	ErrNoInterfaceMatch = errors.New("no network interface matches hardware address")
)

// IsDiscoveryError 判断是否为发现阶段错误。重试由看门狗负责。
func IsDiscoveryError(err error) bool {
	return errors.Is(err, ErrNoSerialDevices) || errors.Is(err, ErrNoSerialMatch) ||
		errors.Is(err, ErrNoInterfaces) || errors.Is(err, ErrNoInterfaceMatch)
}

// serialGlobs 候选串口设备的路径模式。
var serialGlobs = []string{"/dev/ttyUSB*", "/dev/ttyACM*", "/dev/cu.*"}

// FindSerialPort 按关键字查找串口控制设备，返回设备路径。
func FindSerialPort(keyword string) (string, error) {
	var candidates []string
	for _, pattern := range serialGlobs {
		matches, _ := filepath.Glob(pattern)
		candidates = append(candidates, matches...)
	}
	return MatchSerialPort(candidates, keyword)
}

// MatchSerialPort 从候选设备中选出首个路径包含关键字的设备。
func MatchSerialPort(candidates []string, keyword string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoSerialDevices
	}
	keyword = strings.ToLower(keyword)
	for _, dev := range candidates {
		if strings.Contains(strings.ToLower(dev), keyword) {
			return dev, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoSerialMatch, keyword)
}

// FindInterfaceByMAC 按硬件地址查找主机网络接口，返回接口名。
func FindInterfaceByMAC(mac string) (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list network interfaces: %w", err)
	}
	return MatchInterface(ifaces, mac)
}

// MatchInterface 从接口列表中选出硬件地址匹配的接口。
// 比较不区分大小写，连字符与冒号等价。
func MatchInterface(ifaces []net.Interface, mac string) (string, error) {
	if len(ifaces) == 0 {
		return "", ErrNoInterfaces
	}
	want := config.NormalizeMAC(mac)
	for _, iface := range ifaces {
		if iface.HardwareAddr == nil {
			continue
		}
		if config.NormalizeMAC(iface.HardwareAddr.String()) == want {
			return iface.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoInterfaceMatch, mac)
}
