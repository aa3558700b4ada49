package models

import "time"

// ConnectionState 连接的整体状态，由看门狗唯一持有。
type ConnectionState string

const (
	StateDiscovering  ConnectionState = "discovering"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDegraded     ConnectionState = "degraded"
	StateReconnecting ConnectionState = "reconnecting"
	StateDisconnected ConnectionState = "disconnected"
)

// NetworkConfig 运营商分配的网络参数，应用到主机接口。
type NetworkConfig struct {
	Address string   `json:"address"`
	Netmask string   `json:"netmask"`
	Gateway string   `json:"gateway"`
	DNS     []string `json:"dns"`
	MTU     int      `json:"mtu,omitempty"`
}

// Complete 校验必需字段是否齐全，缺任何一项都不允许下发到主机。
func (c *NetworkConfig) Complete() bool {
	if c == nil {
		return false
	}
	return c.Address != "" && c.Netmask != "" && c.Gateway != "" && len(c.DNS) > 0
}

// ModemIdentity 调制解调器与 SIM 卡的基础信息。
type ModemIdentity struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Firmware     string `json:"firmware,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	IMEI         string `json:"imei,omitempty"`
	IMSI         string `json:"imsi,omitempty"`
	CCID         string `json:"ccid,omitempty"`
}

// SignalSnapshot 最近一次成功读取的信号与注册状态。
// 轮询失败时保留旧值，只更新 Stale 与 FetchError。
type SignalSnapshot struct {
	Operator   string   `json:"operator,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	CSQPercent *float64 `json:"csqPercent,omitempty"`

	// LTE 指标
	RSSI       *float64 `json:"rssi,omitempty"`
	RSRP       *float64 `json:"rsrp,omitempty"`
	RSRQ       *float64 `json:"rsrq,omitempty"`
	SINR       *float64 `json:"sinr,omitempty"`
	Band       string   `json:"band,omitempty"`
	EARFCN     *int     `json:"earfcn,omitempty"`
	DistanceKM *float64 `json:"distanceKm,omitempty"`

	// UMTS 指标
	RSCP *float64 `json:"rscp,omitempty"`
	EcNo *float64 `json:"ecno,omitempty"`

	FetchedAt  time.Time `json:"fetchedAt,omitempty"`
	Stale      bool      `json:"stale"`
	FetchError string    `json:"fetchError,omitempty"`
}

// ConnectionEvent 连接状态变更的持久化记录。
type ConnectionEvent struct {
	ID      uint            `json:"id" gorm:"primaryKey"`
	State   ConnectionState `json:"state" gorm:"index"`
	Reason  string          `json:"reason,omitempty"`
	Created time.Time       `json:"created" gorm:"autoCreateTime;index"`
}

// SignalSample 信号快照的持久化采样。
type SignalSample struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Operator string    `json:"operator"`
	Mode     string    `json:"mode"`
	RSSI     *float64  `json:"rssi,omitempty"`
	RSRP     *float64  `json:"rsrp,omitempty"`
	RSRQ     *float64  `json:"rsrq,omitempty"`
	SINR     *float64  `json:"sinr,omitempty"`
	Band     string    `json:"band,omitempty"`
	Created  time.Time `json:"created" gorm:"autoCreateTime;index"`
}
