package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/metrics"
	"gym-buddy/internal/models"
	"gym-buddy/internal/storage"
)

var (
	ErrBuddyRequestSelf    = errors.New("不能向自己发送好友请求")
	ErrRecipientNotFound   = errors.New("接收用户不存在")
	ErrAlreadyBuddies      = errors.New("你们已经是健身伙伴了")
	ErrBuddyRequestExists  = errors.New("已存在待处理的好友请求")
	ErrBuddyRequestMissing = errors.New("好友请求不存在")
)

// BuddyService 维护双方资料中的三个关系集合。
// 每个操作同时修改两份文档，在同一个存储事务中完成。
type BuddyService interface {
	SendRequest(ctx context.Context, fromID, toID string) error
	AcceptRequest(ctx context.Context, selfID, requesterID string) error
	RejectRequest(ctx context.Context, selfID, requesterID string) error
	ListBuddies(ctx context.Context, id string) ([]models.Profile, error)
	ListReceivedRequests(ctx context.Context, id string) ([]models.Profile, error)
	ListSentRequests(ctx context.Context, id string) ([]models.Profile, error)
	Status(ctx context.Context, viewerID, candidateID string) (models.RelationshipStatus, error)
}

type buddyService struct {
	repo      storage.ProfileRepository
	publisher EventPublisher
}

// NewBuddyService creates a new BuddyService. publisher may be nil.
func NewBuddyService(repo storage.ProfileRepository, publisher EventPublisher) BuddyService {
	return &buddyService{repo: repo, publisher: publisher}
}

// SendRequest 发送好友请求：from.sentRequests 加入 to，to.receivedRequests 加入 from。
func (s *buddyService) SendRequest(ctx context.Context, fromID, toID string) (err error) {
	defer func() { metrics.BuddyOperations.WithLabelValues("send", metrics.Result(err)).Inc() }()

	if fromID == toID {
		return ErrBuddyRequestSelf
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context, repo storage.ProfileRepository) error {
		locked, err := lockPair(ctx, repo, fromID, toID)
		if err != nil {
			return err
		}
		from, ok := locked[fromID]
		if !ok {
			return models.ErrProfileNotFound
		}
		to, ok := locked[toID]
		if !ok {
			return ErrRecipientNotFound
		}

		if from.RelationshipWith(toID) == models.RelationAccepted || to.RelationshipWith(fromID) == models.RelationAccepted {
			return ErrAlreadyBuddies
		}
		if from.RelationshipWith(toID) != models.RelationNone || to.RelationshipWith(fromID) != models.RelationNone {
			return ErrBuddyRequestExists
		}

		return pairedWrite(ctx, repo,
			fromID, []storage.SetOp{storage.AddToSet(storage.FieldSentRequests, toID)},
			toID, []storage.SetOp{storage.AddToSet(storage.FieldReceivedRequests, fromID)},
		)
	})
	if err != nil {
		return err
	}

	log.Printf("好友请求已发送: %s -> %s", fromID, toID)
	publishEvent(ctx, s.publisher, imtypes.EventBuddyRequestReceived, toID, fromID)
	return nil
}

// AcceptRequest 接受 requester 发来的请求，双方互相加入 buddies 并清除待处理记录。
func (s *buddyService) AcceptRequest(ctx context.Context, selfID, requesterID string) (err error) {
	defer func() { metrics.BuddyOperations.WithLabelValues("accept", metrics.Result(err)).Inc() }()

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context, repo storage.ProfileRepository) error {
		if err := requireReceived(ctx, repo, selfID, requesterID); err != nil {
			return err
		}
		return pairedWrite(ctx, repo,
			selfID, []storage.SetOp{
				storage.AddToSet(storage.FieldBuddies, requesterID),
				storage.RemoveFromSet(storage.FieldReceivedRequests, requesterID),
			},
			requesterID, []storage.SetOp{
				storage.AddToSet(storage.FieldBuddies, selfID),
				storage.RemoveFromSet(storage.FieldSentRequests, selfID),
			},
		)
	})
	if err != nil {
		return err
	}

	log.Printf("好友请求已接受: %s <- %s", selfID, requesterID)
	publishEvent(ctx, s.publisher, imtypes.EventBuddyRequestAccepted, requesterID, selfID)
	return nil
}

// RejectRequest 拒绝请求，只清除双方的待处理记录。
func (s *buddyService) RejectRequest(ctx context.Context, selfID, requesterID string) (err error) {
	defer func() { metrics.BuddyOperations.WithLabelValues("reject", metrics.Result(err)).Inc() }()

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context, repo storage.ProfileRepository) error {
		if err := requireReceived(ctx, repo, selfID, requesterID); err != nil {
			return err
		}
		return pairedWrite(ctx, repo,
			selfID, []storage.SetOp{storage.RemoveFromSet(storage.FieldReceivedRequests, requesterID)},
			requesterID, []storage.SetOp{storage.RemoveFromSet(storage.FieldSentRequests, selfID)},
		)
	})
	if err != nil {
		return err
	}

	log.Printf("好友请求已拒绝: %s <- %s", selfID, requesterID)
	publishEvent(ctx, s.publisher, imtypes.EventBuddyRequestRejected, requesterID, selfID)
	return nil
}

// requireReceived locks both profiles and checks that self holds a pending
// request from requester.
func requireReceived(ctx context.Context, repo storage.ProfileRepository, selfID, requesterID string) error {
	locked, err := lockPair(ctx, repo, selfID, requesterID)
	if err != nil {
		return err
	}
	self, ok := locked[selfID]
	if !ok {
		return models.ErrProfileNotFound
	}
	if !models.InSet(self.ReceivedRequests, requesterID) {
		return ErrBuddyRequestMissing
	}
	if _, ok := locked[requesterID]; !ok {
		return ErrBuddyRequestMissing
	}
	return nil
}

// lockPair reads both profiles with GetForUpdate in canonical pair order, so
// two operations on the same pair always lock in the same order. Missing
// profiles are left out of the result.
func lockPair(ctx context.Context, repo storage.ProfileRepository, id1, id2 string) (map[string]*models.Profile, error) {
	pair := models.NewBuddyPair(id1, id2)
	locked := make(map[string]*models.Profile, 2)
	for _, id := range []string{pair.A, pair.B} {
		p, err := repo.GetForUpdate(ctx, id)
		if errors.Is(err, models.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

// pairedWrite applies both sides of a relationship change. If the second write
// fails the first is reverted, for stores where WithinTransaction is not atomic.
func pairedWrite(ctx context.Context, repo storage.ProfileRepository, firstID string, firstOps []storage.SetOp, secondID string, secondOps []storage.SetOp) error {
	if _, err := repo.Patch(ctx, firstID, storage.ProfileUpdate{Ops: firstOps}); err != nil {
		return fmt.Errorf("更新 %s 的关系失败: %w", firstID, err)
	}
	if _, err := repo.Patch(ctx, secondID, storage.ProfileUpdate{Ops: secondOps}); err != nil {
		if _, cerr := repo.Patch(ctx, firstID, storage.ProfileUpdate{Ops: invertOps(firstOps)}); cerr != nil {
			log.Printf("回滚 %s 的关系修改失败，关系可能不一致: %v", firstID, cerr)
		}
		return fmt.Errorf("更新 %s 的关系失败: %w", secondID, err)
	}
	return nil
}

// invertOps returns the compensating operations, in reverse order.
func invertOps(ops []storage.SetOp) []storage.SetOp {
	out := make([]storage.SetOp, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		op.Add = !op.Add
		out = append(out, op)
	}
	return out
}

func (s *buddyService) ListBuddies(ctx context.Context, id string) ([]models.Profile, error) {
	return s.listSet(ctx, id, func(p *models.Profile) []string { return p.Buddies })
}

func (s *buddyService) ListReceivedRequests(ctx context.Context, id string) ([]models.Profile, error) {
	return s.listSet(ctx, id, func(p *models.Profile) []string { return p.ReceivedRequests })
}

func (s *buddyService) ListSentRequests(ctx context.Context, id string) ([]models.Profile, error) {
	return s.listSet(ctx, id, func(p *models.Profile) []string { return p.SentRequests })
}

// listSet 逐个读取集合中的资料，已不存在的资料被跳过。
func (s *buddyService) listSet(ctx context.Context, id string, set func(*models.Profile) []string) ([]models.Profile, error) {
	owner, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := set(owner)
	out := make([]models.Profile, 0, len(ids))
	for _, otherID := range ids {
		p, err := s.repo.Get(ctx, otherID)
		if errors.Is(err, models.ErrProfileNotFound) {
			log.Printf("资料 %s 的关系集合引用了不存在的资料 %s", id, otherID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *buddyService) Status(ctx context.Context, viewerID, candidateID string) (models.RelationshipStatus, error) {
	viewer, err := s.repo.Get(ctx, viewerID)
	if err != nil {
		return models.RelationshipNone, err
	}
	return models.StatusFor(viewer, candidateID), nil
}
