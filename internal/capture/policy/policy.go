package policy

import "time"

// 默认保留窗口
// 状态类媒体消失得快，窗口远短于普通媒体（约 1:3）。
const (
	DefaultStatusMediaAge = 24 * time.Hour
	DefaultMediaAge       = 68 * time.Hour
	DefaultTextAge        = 3 * time.Hour
)

// Retention 保留策略：缓存记录类别到最大允许年龄的映射
// 纯值类型，无状态。
type Retention struct {
	StatusMediaAge time.Duration // 状态类媒体
	MediaAge       time.Duration // 普通媒体
	TextAge        time.Duration // 文本（状态类与否同一窗口）
}

// Default 返回默认保留策略
func Default() Retention {
	return Retention{
		StatusMediaAge: DefaultStatusMediaAge,
		MediaAge:       DefaultMediaAge,
		TextAge:        DefaultTextAge,
	}
}

// MediaMaxAge 媒体记录的最大允许年龄
func (r Retention) MediaMaxAge(isStatus bool) time.Duration {
	if isStatus {
		return r.StatusMediaAge
	}
	return r.MediaAge
}

// TextMaxAge 文本记录的最大允许年龄
// 文本统一使用单一窗口，不按状态类细分。
func (r Retention) TextMaxAge() time.Duration {
	return r.TextAge
}

// LongestAge 所有类别中最长的窗口
// 孤儿文件扫描用它做保守判断，避免误删仍可能被引用的文件。
func (r Retention) LongestAge() time.Duration {
	longest := r.StatusMediaAge
	if r.MediaAge > longest {
		longest = r.MediaAge
	}
	if r.TextAge > longest {
		longest = r.TextAge
	}
	return longest
}
