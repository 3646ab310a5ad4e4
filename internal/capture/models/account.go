package models

// Account 受管账号配置
// 各账号的缓存、临时目录与归档目标彼此隔离，互不共享。
type Account struct {
	AccountID          string
	VaultJID           string   // 归档目标 JID，空表示未配置
	ExcludedGroupNames []string // 命中即整条消息不缓存、不转发
	MaskIdentifiers    bool     // 是否对发送者标识打码
	MaxTextEntries     int      // 文本缓存容量上限
}
