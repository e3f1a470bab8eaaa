// Package local 终端客户端使用的本地持久化存储（badger），目前只保存阶段草稿
package local

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/amanifadhili/encubation-management-system-sub001/internal/model"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/logger"
)

// Store 基于 badger 的草稿后端，实现 onboarding.DraftBackend
type Store struct {
	db *badger.DB
}

type Options struct {
	Path     string
	InMemory bool // 测试用
}

// Open 打开（必要时创建）草稿目录
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("draft directory is required")
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create draft directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{s: logger.Logger.Sugar()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func draftKey(owner string, phase model.Phase) []byte {
	return []byte("draft/" + owner + "/" + phase.Key())
}

func (s *Store) PutDraft(ctx context.Context, owner string, phase model.Phase, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(draftKey(owner, phase), data)
	})
}

// GetDraft 不存在时返回 (nil, nil)
func (s *Store) GetDraft(ctx context.Context, owner string, phase model.Phase) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(draftKey(owner, phase))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

func (s *Store) DeleteDraft(ctx context.Context, owner string, phase model.Phase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(draftKey(owner, phase))
	})
}

// Phases 列出某个用户存有草稿的阶段，按流程顺序
func (s *Store) Phases(owner string) ([]model.Phase, error) {
	var phases []model.Phase
	err := s.db.View(func(txn *badger.Txn) error {
		for _, phase := range model.Sequence {
			_, err := txn.Get(draftKey(owner, phase))
			switch {
			case err == nil:
				phases = append(phases, phase)
			case errors.Is(err, badger.ErrKeyNotFound):
			default:
				return err
			}
		}
		return nil
	})
	return phases, err
}

// badgerLogger 把 badger 内部日志转到 zap，info 以下降为 debug
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.s.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.s.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.s.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.s.Debugf(format, args...)
}
