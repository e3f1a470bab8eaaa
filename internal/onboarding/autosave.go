package onboarding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

// DraftSaver 自动保存的写入目标，*Controller 实现了该接口
type DraftSaver interface {
	SaveDraft(ctx context.Context, phase model.Phase, fields model.FieldSet) bool
}

// Autosaver 暂存表单输入，按固定间隔写入草稿
type Autosaver struct {
	saver    DraftSaver
	interval time.Duration

	mu     sync.Mutex
	staged map[model.Phase]model.FieldSet

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewAutosaver(saver DraftSaver, interval time.Duration) *Autosaver {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Autosaver{
		saver:    saver,
		interval: interval,
		staged:   make(map[model.Phase]model.FieldSet),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Stage 暂存一个字段的最新值，覆盖之前暂存的值
func (a *Autosaver) Stage(phase model.Phase, id model.FieldID, values ...string) {
	if !phase.Valid() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	fs, ok := a.staged[phase]
	if !ok {
		fs = model.FieldSet{}
		a.staged[phase] = fs
	}
	fs.Set(id, values...)
}

// Pending 尚未写入的阶段数
func (a *Autosaver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.staged)
}

// Flush 立即写入所有暂存数据，返回实际写入的阶段数。已完成阶段的暂存数据直接丢弃
func (a *Autosaver) Flush(ctx context.Context) int {
	a.mu.Lock()
	staged := a.staged
	a.staged = make(map[model.Phase]model.FieldSet)
	a.mu.Unlock()

	saved := 0
	for _, phase := range model.Sequence {
		fields, ok := staged[phase]
		if !ok {
			continue
		}
		if a.saver.SaveDraft(ctx, phase, fields) {
			saved++
		}
	}
	if saved > 0 {
		logger.Logger.Debug("Autosaved drafts", zap.Int("phases", saved))
	}
	return saved
}

// Start 启动后台定时写入，ctx 结束或 Close 时退出
func (a *Autosaver) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		go a.run(ctx)
	})
}

func (a *Autosaver) run(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stop:
			return
		case <-ticker.C:
			a.Flush(ctx)
		}
	}
}

// Close 停止后台写入并做最后一次 Flush
func (a *Autosaver) Close(ctx context.Context) {
	a.stopOnce.Do(func() {
		close(a.stop)
		started := true
		a.startOnce.Do(func() { started = false })
		if started {
			<-a.done
		}
		a.Flush(ctx)
	})
}
