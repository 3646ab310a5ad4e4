package cleaner

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"vault_bot/internal/capture"
)

// Cleaner 周期清理调度器
// 独立于事件流运行：固定间隔扫过所有账号的两类缓存和临时目录，
// 移除超龄记录和孤儿文件。上一轮没跑完时新一轮直接跳过。
type Cleaner struct {
	interval  time.Duration
	pipelines []*capture.Pipeline
	running   atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	nowFunc   func() time.Time
	log       *log.Entry
}

// New 创建清理调度器
func New(interval time.Duration, pipelines []*capture.Pipeline, logEntry *log.Entry) *Cleaner {
	return &Cleaner{
		interval:  interval,
		pipelines: pipelines,
		nowFunc:   time.Now,
		log:       logEntry,
	}
}

// WithNowFunc 自定义时间函数（测试用）
func (c *Cleaner) WithNowFunc(now func() time.Time) *Cleaner {
	if now != nil {
		c.nowFunc = now
	}
	return c
}

// Start 启动调度循环
func (c *Cleaner) Start() {
	if c == nil {
		return
	}
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(ctx)
	c.log.Infof("Cleanup scheduler started, interval=%s", c.interval)
}

// Stop 停止调度循环并等待当前一轮结束
func (c *Cleaner) Stop() {
	if c == nil {
		return
	}
	if c.cancel == nil {
		return
	}

	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	c.log.Info("Cleanup scheduler stopped")
}

func (c *Cleaner) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce()
		}
	}
}

// RunOnce 执行一轮清理
// 通过原子标记实现重叠跳过：并发触发时只有一轮在跑。
// 返回是否真正执行了本轮。
func (c *Cleaner) RunOnce() bool {
	if !c.running.CompareAndSwap(false, true) {
		c.log.Debug("Previous sweep still running, skipping this round")
		return false
	}
	defer c.running.Store(false)

	now := c.nowFunc()
	start := time.Now()
	mediaRemoved, textRemoved, orphans := 0, 0, 0

	for _, p := range c.pipelines {
		m, t := p.SweepExpired(now)
		mediaRemoved += m
		textRemoved += t
		orphans += p.ScanOrphans(now)
	}

	c.log.Debugf("Sweep round done: media=%d, texts=%d, orphans=%d, took=%v",
		mediaRemoved, textRemoved, orphans, time.Since(start))
	return true
}
