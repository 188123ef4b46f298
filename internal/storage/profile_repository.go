package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gym-buddy/internal/models"
)

// SetField 是资料文档中可做集合操作的关系字段。
type SetField string

const (
	FieldSentRequests     SetField = "sent_requests"
	FieldReceivedRequests SetField = "received_requests"
	FieldBuddies          SetField = "buddies"
)

// SetOp is an add-to-set or remove-from-set on one relationship field.
type SetOp struct {
	Field SetField
	Add   bool
	Value string
}

func AddToSet(field SetField, value string) SetOp {
	return SetOp{Field: field, Add: true, Value: value}
}

func RemoveFromSet(field SetField, value string) SetOp {
	return SetOp{Field: field, Value: value}
}

// ProfileUpdate 是一次原子的资料修改：字段补丁加上关系集合操作。
type ProfileUpdate struct {
	Patch models.ProfilePatch
	Ops   []SetOp
}

// Apply applies the update to p in place. Ops run in order.
func (u ProfileUpdate) Apply(p *models.Profile) {
	u.Patch.Apply(p)
	for _, op := range u.Ops {
		set := fieldSet(p, op.Field)
		if set == nil {
			continue
		}
		if op.Add {
			*set = models.AddToSet(*set, op.Value)
		} else {
			*set = models.RemoveFromSet(*set, op.Value)
		}
	}
}

func fieldSet(p *models.Profile, f SetField) *[]string {
	switch f {
	case FieldSentRequests:
		return (*[]string)(&p.SentRequests)
	case FieldReceivedRequests:
		return (*[]string)(&p.ReceivedRequests)
	case FieldBuddies:
		return (*[]string)(&p.Buddies)
	}
	return nil
}

// ProfileRepository 定义资料文档的存取接口，SQL 与 MongoDB 两种实现。
type ProfileRepository interface {
	// Get returns models.ErrProfileNotFound when no document exists for id.
	Get(ctx context.Context, id string) (*models.Profile, error)
	// GetForUpdate is Get that also locks the document until the surrounding
	// transaction ends. Outside WithinTransaction it behaves like Get.
	GetForUpdate(ctx context.Context, id string) (*models.Profile, error)
	// Put replaces the profile fields, creating the document when absent.
	// On an existing document the relationship sets and created_at are kept;
	// only buddy operations change the sets, through Patch.
	Put(ctx context.Context, profile *models.Profile) error
	// Patch applies update atomically and returns the stored result.
	Patch(ctx context.Context, id string, update ProfileUpdate) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	// WithinTransaction runs fn against a repository bound to one transaction.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo ProfileRepository) error) error
}

// gormProfileRepository implements ProfileRepository using GORM.
type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-based ProfileRepository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

// profileFields 是 Put 覆盖已有资料时更新的列，关系集合不在其中。
var profileFields = []string{"email", "name", "fitness_level", "workout_types", "bio", "avatar_index", "updated_at"}

func (r *gormProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate 使用 SELECT ... FOR UPDATE 读取资料 (sqlite 会忽略行锁，整个库本身只有一个写连接)。
func (r *gormProfileRepository) GetForUpdate(ctx context.Context, id string) (*models.Profile, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *gormProfileRepository) get(db *gorm.DB, id string) (*models.Profile, error) {
	var profile models.Profile
	err := db.Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	profile.Normalize()
	return &profile, nil
}

func (r *gormProfileRepository) Put(ctx context.Context, profile *models.Profile) error {
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(profileFields),
		}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("put profile %s: %w", profile.ID, err)
	}
	return nil
}

// Patch 在事务内加行锁读取、修改并保存资料，保证并发修改不会互相覆盖。
func (r *gormProfileRepository) Patch(ctx context.Context, id string, update ProfileUpdate) (*models.Profile, error) {
	if err := update.Patch.Validate(); err != nil {
		return nil, err
	}

	var result models.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Profile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		update.Apply(&current)
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) || errors.Is(err, models.ErrInvalidFitnessLevel) {
			return nil, err
		}
		return nil, fmt.Errorf("patch profile %s: %w", id, err)
	}
	return &result, nil
}

func (r *gormProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Order("created_at").Order("id").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	for i := range profiles {
		profiles[i].Normalize()
	}
	return profiles, nil
}

func (r *gormProfileRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo ProfileRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormProfileRepository(tx))
	})
}
