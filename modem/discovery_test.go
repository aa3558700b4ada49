package modem

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSerialPort(t *testing.T) {
	candidates := []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyACM0"}

	dev, err := MatchSerialPort(candidates, "acm")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", dev)

	// 关键字不区分大小写
	dev, err = MatchSerialPort(candidates, "ACM")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", dev)

	// 多个匹配取第一个
	dev, err = MatchSerialPort(candidates, "usb")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", dev)
}

func TestMatchSerialPortNoCandidates(t *testing.T) {
	_, err := MatchSerialPort(nil, "acm")
	assert.ErrorIs(t, err, ErrNoSerialDevices)
	assert.True(t, IsDiscoveryError(err))
}

func TestMatchSerialPortNoMatch(t *testing.T) {
	_, err := MatchSerialPort([]string{"/dev/ttyUSB0"}, "acm")
	assert.ErrorIs(t, err, ErrNoSerialMatch)
	assert.True(t, IsDiscoveryError(err))
}

func TestMatchInterface(t *testing.T) {
	hw, err := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	ifaces := []net.Interface{
		{Name: "lo"},
		{Name: "eth0", HardwareAddr: mustMAC(t, "11:22:33:44:55:66")},
		{Name: "wwan0", HardwareAddr: hw},
	}

	name, err := MatchInterface(ifaces, "AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	assert.Equal(t, "wwan0", name)

	// 连字符写法等价
	name, err = MatchInterface(ifaces, "AA-BB-CC-DD-EE-FF")
	require.NoError(t, err)
	assert.Equal(t, "wwan0", name)
}

func TestMatchInterfaceErrors(t *testing.T) {
	_, err := MatchInterface(nil, "aa:bb:cc:dd:ee:ff")
	assert.ErrorIs(t, err, ErrNoInterfaces)

	ifaces := []net.Interface{{Name: "eth0", HardwareAddr: mustMAC(t, "11:22:33:44:55:66")}}
	_, err = MatchInterface(ifaces, "aa:bb:cc:dd:ee:ff")
	assert.ErrorIs(t, err, ErrNoInterfaceMatch)
}

func mustMAC(t *testing.T, s string) net.HardwareAddr {
	t.Helper()
	hw, err := net.ParseMAC(s)
	require.NoError(t, err)
	return hw
}
