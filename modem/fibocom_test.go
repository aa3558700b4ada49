package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetworkConfigCombinedAddress(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		`+CGCONTRDP: 1,5,"internet","10.0.0.5.255.255.255.0","10.0.0.1","8.8.8.8","0.0.0.0"`,
		"OK",
	}

	cfg := d.ParseNetworkConfig(lines)
	assert.Equal(t, "10.0.0.5", cfg.Address)
	assert.Equal(t, "255.255.255.0", cfg.Netmask)
	assert.Equal(t, "10.0.0.1", cfg.Gateway)
	assert.Equal(t, []string{"8.8.8.8"}, cfg.DNS)
	assert.True(t, cfg.Complete())
}

func TestParseNetworkConfigFallback(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		`+CGPADDR: 1,"10.64.12.3"`,
		`+XDNS: 1, "8.8.8.8", "8.8.4.4"`,
		"OK",
	}

	cfg := d.ParseNetworkConfig(lines)
	assert.Equal(t, "10.64.12.3", cfg.Address)
	// 点对点链路缺省
	assert.Equal(t, "255.255.255.255", cfg.Netmask)
	assert.Equal(t, "10.64.12.3", cfg.Gateway)
	assert.Equal(t, []string{"8.8.8.8", "8.8.4.4"}, cfg.DNS)
	assert.True(t, cfg.Complete())
}

func TestParseNetworkConfigSkipsZeroDNS(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		`+CGPADDR: 1,"10.64.12.3"`,
		`+XDNS: 1, "0.0.0.0", "0.0.0.0"`,
	}

	cfg := d.ParseNetworkConfig(lines)
	assert.Empty(t, cfg.DNS)
	assert.False(t, cfg.Complete())
}

func TestParseNetworkConfigEmpty(t *testing.T) {
	d := &FibocomDialect{}

	cfg := d.ParseNetworkConfig([]string{"OK"})
	assert.Empty(t, cfg.Address)
	assert.False(t, cfg.Complete())
}

func TestParseIdentity(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		"+CGMI: Fibocom",
		"+FMM: L850-GL",
		"+GTPKGVER: 18500.5001.00.05.27.17",
		"+CFSN: SN12345",
		"+CGSN: 861364040000000",
		"460110123456789",
		"+CCID: 89860112345678901234",
	}

	ident := d.ParseIdentity(lines)
	assert.Equal(t, "Fibocom", ident.Manufacturer)
	assert.Equal(t, "L850-GL", ident.Model)
	assert.Equal(t, "18500.5001.00.05.27.17", ident.Firmware)
	assert.Equal(t, "SN12345", ident.SerialNumber)
	assert.Equal(t, "861364040000000", ident.IMEI)
	// 无 +CIMI 前缀时回退到纯数字行
	assert.Equal(t, "460110123456789", ident.IMSI)
	assert.Equal(t, "89860112345678901234", ident.CCID)
}

func TestRegistered(t *testing.T) {
	d := &FibocomDialect{}

	assert.True(t, d.Registered(Response{Lines: []string{"+CEREG: 0,1"}}))
	assert.True(t, d.Registered(Response{Lines: []string{"+CEREG: 0,5"}}))
	assert.False(t, d.Registered(Response{Lines: []string{"+CEREG: 0,2"}}))
	assert.False(t, d.Registered(Response{Lines: []string{"+CEREG: 0,0"}}))
	assert.False(t, d.Registered(Response{Lines: []string{"OK"}}))
}

func TestXactDeactivationKeepsProfileZero(t *testing.T) {
	steps := xactDeactivation(Response{Lines: []string{"+XACT: (0-5),(0-1),1,2", "OK"}})
	require.Len(t, steps, 1)
	assert.Equal(t, "AT+XACT=2,,,1,2", steps[0].Cmd.Text)
	assert.True(t, steps[0].Tolerant)
}

func TestXactDeactivationNoProfiles(t *testing.T) {
	assert.Nil(t, xactDeactivation(Response{Lines: []string{"+XACT: (0-5),(0-1),0", "OK"}}))
	assert.Nil(t, xactDeactivation(Response{Lines: []string{"OK"}}))
}

func TestParseSignalLTE(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		`+COPS: 0,0,"TestNet",7`,
		"+CSQ: 24,99",
		"+XLEC: 0,1,3",
		`+XMCI: 4,262,01,"0x1234","0x01234567","0x012A","1300","19300","0xFFFFFFFF","46","25","20","10"`,
	}

	snap := d.ParseSignal(lines)
	assert.Equal(t, "TestNet", snap.Operator)
	assert.Equal(t, "LTE", snap.Mode)

	require.NotNil(t, snap.CSQPercent)
	assert.InDelta(t, 77.4, *snap.CSQPercent, 0.1)

	require.NotNil(t, snap.EARFCN)
	assert.Equal(t, 1300, *snap.EARFCN)
	require.NotNil(t, snap.RSRP)
	assert.Equal(t, -95.0, *snap.RSRP)
	require.NotNil(t, snap.RSRQ)
	assert.Equal(t, -7.5, *snap.RSRQ)
	require.NotNil(t, snap.SINR)
	assert.Equal(t, 10.0, *snap.SINR)
	require.NotNil(t, snap.DistanceKM)
	assert.InDelta(t, 0.781, *snap.DistanceKM, 0.001)

	// RSSI 由 RSRP 与 50 PRB 推算
	require.NotNil(t, snap.RSSI)
	assert.InDelta(t, -67.22, *snap.RSSI, 0.01)
	assert.Equal(t, "B3 @ 10MHz", snap.Band)
}

func TestParseSignalUMTS(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		`+COPS: 0,0,"TestNet",2`,
		"+CSQ: 15,99",
		`+XMCI: 2,262,01,"0x1234","0x01234567","0x012A","10737","0","0","30","20","0","0"`,
	}

	snap := d.ParseSignal(lines)
	assert.Equal(t, "UMTS", snap.Mode)
	require.NotNil(t, snap.RSCP)
	assert.Equal(t, -91.0, *snap.RSCP)
	require.NotNil(t, snap.RSSI)
	assert.Equal(t, -81.0, *snap.RSSI)
	require.NotNil(t, snap.EcNo)
	assert.Equal(t, -14.0, *snap.EcNo)
	assert.Nil(t, snap.RSRP)
}

func TestParseSignalInvalidCSQ(t *testing.T) {
	d := &FibocomDialect{}

	snap := d.ParseSignal([]string{"+CSQ: 99,99"})
	assert.Nil(t, snap.CSQPercent)
}

func TestParseSignalIgnoresTimingAdvance(t *testing.T) {
	d := &FibocomDialect{}
	lines := []string{
		`+COPS: 0,0,"TestNet",7`,
		`+XMCI: 4,262,01,"0x1234","0x01234567","0x012A","1300","19300","0xFFFFFFFF","46","25","20","255"`,
	}

	snap := d.ParseSignal(lines)
	assert.Nil(t, snap.DistanceKM)
}

func TestAuthStepsCredentials(t *testing.T) {
	d := &FibocomDialect{}

	noAuth := stepTexts(d.AuthSteps("internet", "", ""))
	assert.Contains(t, noAuth, `AT+CGDCONT=1,"IP","internet"`)
	assert.Contains(t, noAuth, `AT+XGAUTH=1,0,"",""`)

	withAuth := stepTexts(d.AuthSteps("internet", "user", "pass"))
	assert.Contains(t, withAuth, `AT+XGAUTH=1,1,"user","pass"`)
}

func stepTexts(steps []Step) []string {
	texts := make([]string, 0, len(steps))
	for _, st := range steps {
		texts = append(texts, st.Cmd.Text)
	}
	return texts
}
