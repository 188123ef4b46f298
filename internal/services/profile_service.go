package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/metrics"
	"gym-buddy/internal/models"
	"gym-buddy/internal/storage"
)

var (
	ErrForbidden    = errors.New("只能修改自己的资料")
	ErrInvalidInput = errors.New("资料数据无效")
)

// ProfileService 定义资料文档的读写接口。写操作只允许资料的所有者执行。
type ProfileService interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Put(ctx context.Context, callerID string, profile *models.Profile) (*models.Profile, error)
	Patch(ctx context.Context, callerID, id string, patch models.ProfilePatch) (*models.Profile, error)
}

type profileService struct {
	repo      storage.ProfileRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewProfileService creates a new ProfileService. publisher may be nil.
func NewProfileService(repo storage.ProfileRepository, publisher EventPublisher) ProfileService {
	return &profileService{repo: repo, publisher: publisher, now: time.Now}
}

func (s *profileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.repo.Get(ctx, id)
}

func (s *profileService) List(ctx context.Context) ([]models.Profile, error) {
	return s.repo.List(ctx)
}

// Put 全量替换资料字段。关系集合只由好友操作维护，存储层在覆盖时保留已有集合，
// 返回值是写入后重新读取的资料。
func (s *profileService) Put(ctx context.Context, callerID string, profile *models.Profile) (result *models.Profile, err error) {
	defer func() { metrics.ProfileWrites.WithLabelValues("put", metrics.Result(err)).Inc() }()

	if profile == nil {
		return nil, ErrInvalidInput
	}
	if profile.ID == "" {
		profile.ID = callerID
	}
	if profile.ID != callerID {
		return nil, ErrForbidden
	}
	if profile.FitnessLevel != "" && !profile.FitnessLevel.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, models.ErrInvalidFitnessLevel)
	}

	next := profile.Clone()
	now := s.now().UTC()
	// 新建的文档从空集合开始，已有文档的集合不会被覆盖
	next.SentRequests = nil
	next.ReceivedRequests = nil
	next.Buddies = nil
	next.CreatedAt = now
	next.UpdatedAt = now

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context, repo storage.ProfileRepository) error {
		if err := repo.Put(ctx, next); err != nil {
			return err
		}
		stored, err := repo.Get(ctx, next.ID)
		if err != nil {
			return err
		}
		result = stored
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("保存资料失败: %w", err)
	}

	publishEvent(ctx, s.publisher, imtypes.EventProfileUpdated, result.ID, callerID)
	return result, nil
}

// Patch 合并部分字段更新。
func (s *profileService) Patch(ctx context.Context, callerID, id string, patch models.ProfilePatch) (result *models.Profile, err error) {
	defer func() { metrics.ProfileWrites.WithLabelValues("patch", metrics.Result(err)).Inc() }()

	if id != callerID {
		return nil, ErrForbidden
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	result, err = s.repo.Patch(ctx, id, storage.ProfileUpdate{Patch: patch})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, imtypes.EventProfileUpdated, id, callerID)
	return result, nil
}
