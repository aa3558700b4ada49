package modem

import "github.com/rehiy/modem-connect/models"

// Dialect 特定调制解调器方言的命令集与响应语法。
// 状态机只按步骤分组驱动命令，从不自行解读原始行，
// 新方言只需实现本接口，无需改动状态机。
type Dialect interface {
	// InitSteps 基础初始化（回显关闭、错误上报模式）。
	InitSteps() []Step

	// IdentitySteps 查询调制解调器与 SIM 身份信息。
	IdentitySteps() []Step
	ParseIdentity(lines []string) models.ModemIdentity

	// SIMReadyStep SIM 就绪门限检查，仅连接模式执行。
	SIMReadyStep() Step

	// AuthSteps 设置 APN 上下文与鉴权。
	AuthSteps(apn, user, pass string) []Step

	// AttachSteps 激活上下文、附着分组域并启动数据会话。
	AttachSteps() []Step

	// RegistrationStep 网络注册状态查询，Registered 判断是否已注册。
	RegistrationStep() Step
	Registered(resp Response) bool

	// AddressSteps 查询分配的 IP/网关/DNS，ParseNetworkConfig 解析结果。
	AddressSteps() []Step
	ParseNetworkConfig(lines []string) *models.NetworkConfig

	// SignalSteps 信号与注册快照查询，ParseSignal 解析结果。
	SignalSteps() []Step
	ParseSignal(lines []string) models.SignalSnapshot
}
