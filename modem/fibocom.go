package modem

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/rehiy/modem-connect/models"
)

// FibocomDialect Fibocom L8 系列 NCM 模式的参考方言。
type FibocomDialect struct {
	LongTimeout time.Duration // COPS=0 / CGATT=1 等慢命令的超时
}

var reQuoted = regexp.MustCompile(`"([^"]+)"`)

// modeMap 接入技术编码到制式名称的映射。
var modeMap = map[int]string{
	0: "GSM/EDGE",
	2: "UMTS",
	3: "LTE",
	4: "HSDPA",
	5: "HSUPA",
	6: "HSPA",
	7: "LTE",
}

func (d *FibocomDialect) InitSteps() []Step {
	return []Step{
		step("ATE0"),
		step("AT+CMEE=1"),
	}
}

func (d *FibocomDialect) IdentitySteps() []Step {
	return []Step{
		step("AT+CGMI?;+FMM?;+GTPKGVER?;+CFSN?;+CGSN?"),
		tolerantStep("AT+CIMI?;+CCID?"),
	}
}

func (d *FibocomDialect) ParseIdentity(lines []string) models.ModemIdentity {
	ident := models.ModemIdentity{
		Manufacturer: responseValue(lines, "+CGMI", 1),
		Model:        responseValue(lines, "+FMM", 1),
		Firmware:     responseValue(lines, "+GTPKGVER", 1),
		SerialNumber: responseValue(lines, "+CFSN", 1),
		IMEI:         responseValue(lines, "+CGSN", 1),
		IMSI:         responseValue(lines, "+CIMI", 1),
		CCID:         responseValue(lines, "+CCID", 1),
	}
	// 部分固件的 CIMI 响应只有纯数字行
	if ident.IMSI == "" {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if len(line) >= 14 && len(line) <= 15 && isDigits(line) {
				ident.IMSI = line
				break
			}
		}
	}
	return ident
}

func (d *FibocomDialect) SIMReadyStep() Step {
	return Step{
		Cmd: Command{Text: "AT+CPIN?"},
		Verify: func(resp Response) error {
			if !resp.Contains("+CPIN: READY") {
				return fmt.Errorf("SIM not ready: %s", strings.Join(resp.Lines, " | "))
			}
			return nil
		},
	}
}

func (d *FibocomDialect) AuthSteps(apn, user, pass string) []Step {
	auth := `AT+XGAUTH=1,0,"",""`
	if user != "" || pass != "" {
		auth = fmt.Sprintf(`AT+XGAUTH=1,1,"%s","%s"`, user, pass)
	}
	return []Step{
		step("AT+CFUN=1"),
		step("AT+CGPIAF=1,0,0,0"),
		step("AT+CREG=0"),
		step("AT+CEREG=0"),
		tolerantStep("AT+CGATT=0"),
		tolerantStep("AT+COPS=2"),
		{
			Cmd:      Command{Text: "AT+XACT=?"},
			Tolerant: true,
			Follow:   xactDeactivation,
		},
		tolerantStep(`AT+CGDCONT=0,"IP"`),
		tolerantStep("AT+CGDCONT=0"),
		step(fmt.Sprintf(`AT+CGDCONT=1,"IP","%s"`, apn)),
		step(auth),
		step(`AT+XDATACHANNEL=1,1,"/USBCDC/0","/USBHS/NCM/0",2,1`),
		step("AT+XDNS=1,1"),
	}
}

// xactDeactivation 根据 AT+XACT=? 的响应生成去激活步骤，0 号配置保留。
func xactDeactivation(resp Response) []Step {
	for _, line := range resp.Lines {
		if !strings.HasPrefix(line, "+XACT:") {
			continue
		}
		content := strings.TrimSpace(strings.TrimPrefix(line, "+XACT:"))
		var profiles []string
		for _, part := range strings.Split(content, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "0" || strings.ContainsAny(part, "()") {
				continue
			}
			profiles = append(profiles, part)
		}
		if len(profiles) > 0 {
			return []Step{tolerantStep("AT+XACT=2,,," + strings.Join(profiles, ","))}
		}
		break
	}
	return nil
}

func (d *FibocomDialect) AttachSteps() []Step {
	return []Step{
		step("AT+CGACT=1,1"),
		{Cmd: Command{Text: "AT+COPS=0", Timeout: d.LongTimeout}},
		{Cmd: Command{Text: "AT+CGATT=1", Timeout: d.LongTimeout}},
		{Cmd: Command{Text: `AT+CGDATA="M-RAW_IP",1`, Done: []string{respOK, respConnect}}},
	}
}

func (d *FibocomDialect) RegistrationStep() Step {
	return step("AT+CEREG?")
}

// Registered +CEREG: <n>,<stat> 的 stat 为 1（本网）或 5（漫游）视为已注册。
func (d *FibocomDialect) Registered(resp Response) bool {
	stat := parseNullableInt(resp.Value("+CEREG", 2))
	return stat != nil && (*stat == 1 || *stat == 5)
}

func (d *FibocomDialect) AddressSteps() []Step {
	return []Step{
		tolerantStep("AT+CGCONTRDP=1"),
		step("AT+CGPADDR=1"),
		step("AT+XDNS?"),
	}
}

// ParseNetworkConfig 解析 CGCONTRDP/CGPADDR/XDNS 响应。
// 点对点链路缺省：掩码缺失按 /32，网关缺失用分配地址。
func (d *FibocomDialect) ParseNetworkConfig(lines []string) *models.NetworkConfig {
	cfg := &models.NetworkConfig{}

	// +CGCONTRDP: 1,5,"internet","10.0.0.5.255.255.255.252","10.0.0.1","8.8.8.8","8.8.4.4",...
	for _, line := range lines {
		if !strings.Contains(line, "+CGCONTRDP:") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) >= 4 {
			combined := unquote(parts[3])
			octets := strings.Split(combined, ".")
			switch len(octets) {
			case 8:
				cfg.Address = strings.Join(octets[:4], ".")
				cfg.Netmask = strings.Join(octets[4:], ".")
			case 4:
				cfg.Address = combined
			}
		}
		if len(parts) >= 5 && cfg.Gateway == "" {
			if gw := unquote(parts[4]); gw != "" && gw != "0.0.0.0" {
				cfg.Gateway = gw
			}
		}
		for _, idx := range []int{5, 6} {
			if len(parts) > idx {
				if dns := unquote(parts[idx]); dns != "" && dns != "0.0.0.0" {
					cfg.DNS = append(cfg.DNS, dns)
				}
			}
		}
	}

	// +CGPADDR: 1,"10.0.0.5"
	if cfg.Address == "" {
		for _, line := range lines {
			if !strings.Contains(line, "+CGPADDR:") {
				continue
			}
			parts := strings.Split(line, ",")
			if len(parts) > 1 {
				if addr := unquote(parts[1]); addr != "" {
					cfg.Address = addr
					break
				}
			}
		}
	}

	// +XDNS: 1, "8.8.8.8", "8.8.4.4"
	if len(cfg.DNS) == 0 {
		for _, line := range lines {
			if !strings.Contains(line, "+XDNS:") {
				continue
			}
			parts := strings.Split(line, ",")
			for _, idx := range []int{1, 2} {
				if len(parts) > idx {
					if dns := unquote(parts[idx]); dns != "" && dns != "0.0.0.0" {
						cfg.DNS = append(cfg.DNS, dns)
					}
				}
			}
			break
		}
	}

	if cfg.Address != "" {
		if cfg.Netmask == "" {
			cfg.Netmask = "255.255.255.255"
		}
		if cfg.Gateway == "" {
			cfg.Gateway = cfg.Address
		}
	}
	return cfg
}

func (d *FibocomDialect) SignalSteps() []Step {
	return []Step{
		{Cmd: Command{Text: "AT+COPS?", Timeout: 5 * time.Second}},
		{Cmd: Command{Text: "AT+CSQ", Timeout: 5 * time.Second}},
		{Cmd: Command{Text: "AT+XCCINFO?;+XLEC?;+XMCI=1", Timeout: 10 * time.Second}, Tolerant: true},
	}
}

// ParseSignal 按运营商格式宽容解析信号指标，单项异常仅忽略该指标。
func (d *FibocomDialect) ParseSignal(lines []string) models.SignalSnapshot {
	snap := models.SignalSnapshot{}

	act := -1
	for _, line := range lines {
		if !strings.Contains(line, "+COPS:") {
			continue
		}
		if m := reQuoted.FindStringSubmatch(line); len(m) > 1 {
			snap.Operator = m[1]
		}
		if v := parseNullableInt(responseValue([]string{line}, "+COPS", 4)); v != nil {
			act = *v
		} else if v := parseNullableInt(responseValue([]string{line}, "+COPS", 3)); v != nil {
			act = *v
		}
		break
	}
	if mode, ok := modeMap[act]; ok {
		snap.Mode = mode
	}

	if csq := parseNullableInt(responseValue(lines, "+CSQ", 1)); csq != nil && *csq != 99 {
		snap.CSQPercent = floatPtr(float64(*csq) / 31.0 * 100.0)
	}

	bwCode := parseNullableInt(responseValue(lines, "+XLEC", 3))

	for _, line := range lines {
		if !strings.HasPrefix(line, "+XMCI:") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		rat := strings.TrimSpace(strings.SplitN(parts[0], ":", 2)[1])

		if rat == "4" && (act == 3 || act == 7) { // LTE 服务小区
			if len(parts) > 6 {
				snap.EARFCN = parseNullableInt(unquote(parts[6]))
			}
			if len(parts) > 9 {
				if raw := parseNullableFloat(unquote(parts[9])); raw != nil {
					snap.RSRP = floatPtr(*raw - 141)
				}
			}
			if len(parts) > 10 {
				if raw := parseNullableFloat(unquote(parts[10])); raw != nil {
					snap.RSRQ = floatPtr(*raw/2 - 20)
				}
			}
			if len(parts) > 11 {
				if raw := parseNullableFloat(unquote(parts[11])); raw != nil {
					snap.SINR = floatPtr(*raw / 2)
				}
			}
			if len(parts) > 12 {
				if ta := parseNullableInt(unquote(parts[12])); ta != nil && *ta != 65535 && *ta != 255 {
					snap.DistanceKM = floatPtr(math.Round(float64(*ta)*78.125) / 1000)
				}
			}
			snap.RSSI = rsrpToRSSI(snap.RSRP, bwCode)
			snap.Band = bandInfo(snap.EARFCN, bwCode)
			break
		}

		if rat == "2" && act == 2 { // UMTS 服务小区
			if len(parts) > 6 {
				snap.EARFCN = parseNullableInt(unquote(parts[6]))
			}
			if len(parts) > 9 {
				if raw := parseNullableFloat(unquote(parts[9])); raw != nil {
					snap.RSCP = floatPtr(*raw - 121)
					snap.RSSI = floatPtr(*raw - 111)
				}
			}
			if len(parts) > 10 {
				if raw := parseNullableFloat(unquote(parts[10])); raw != nil {
					snap.EcNo = floatPtr(*raw/2 - 24)
				}
			}
			break
		}
	}

	return snap
}

// bandInfo 合成频段描述，例如 "B7 @ 10MHz"。
func bandInfo(earfcn, bwCode *int) string {
	band := ""
	if earfcn != nil {
		band = bandLTE(*earfcn)
	}
	var bw *float64
	if bwCode != nil {
		bw = bandwidthMHz(*bwCode)
	}
	switch {
	case band != "" && bw != nil:
		return fmt.Sprintf("%s @ %gMHz", band, *bw)
	case band != "":
		return band
	case bw != nil:
		return fmt.Sprintf("%gMHz", *bw)
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
