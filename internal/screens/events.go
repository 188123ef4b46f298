package screens

import (
	"context"
	"log"
	"time"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/session"
)

// Watcher streams pushed events for the signed-in account.
type Watcher interface {
	Watch(ctx context.Context, fn func(imtypes.ProfileEvent)) error
}

const (
	minRetry = time.Second
	maxRetry = 30 * time.Second
)

// FollowEvents keeps one push connection open for whichever account is signed
// in. Each event refreshes the profile and is announced through the shell.
// It returns when ctx is done.
func (s *Shell) FollowEvents(ctx context.Context, watcher Watcher) {
	accounts := make(chan string, 1)
	cancelObserve := s.store.Observe(func(snap session.Snapshot) {
		id := ""
		if snap.Account != nil {
			id = snap.Account.ID
		}
		// 只保留最新的账号
		select {
		case <-accounts:
		default:
		}
		accounts <- id
	})
	defer cancelObserve()

	var (
		current string
		stop    context.CancelFunc = func() {}
	)
	defer func() { stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-accounts:
			if id == current {
				continue
			}
			stop()
			current = id
			stop = func() {}
			if id == "" {
				continue
			}
			watchCtx, cancel := context.WithCancel(ctx)
			stop = cancel
			go s.watchLoop(watchCtx, watcher)
		}
	}
}

func (s *Shell) watchLoop(ctx context.Context, watcher Watcher) {
	backoff := minRetry
	for {
		started := time.Now()
		err := watcher.Watch(ctx, func(e imtypes.ProfileEvent) { s.onEvent(ctx, e) })
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxRetry {
			backoff = minRetry
		}
		log.Printf("推送连接断开: %v，%s 后重连", err, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxRetry)
	}
}

func (s *Shell) onEvent(ctx context.Context, e imtypes.ProfileEvent) {
	if err := s.store.RefreshProfile(ctx); err != nil {
		log.Printf("收到推送后刷新资料失败: %v", err)
	}

	who := "Someone"
	if p, err := s.dir.Get(ctx, e.ActorID); err == nil && p.Name != "" {
		who = p.Name
	}
	switch e.Type {
	case imtypes.EventBuddyRequestReceived:
		s.printf("\n* %s sent you a buddy request.\n", who)
	case imtypes.EventBuddyRequestAccepted:
		s.printf("\n* %s accepted your buddy request.\n", who)
	case imtypes.EventBuddyRequestRejected:
		s.printf("\n* %s declined your buddy request.\n", who)
	case imtypes.EventProfileUpdated:
		// 自己的资料更新不需要提示
	}
}
