package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"

	"gym-buddy/internal/models"
	"gym-buddy/internal/storage"
)

// profileDocument is the stored shape of a profile in the "users" collection.
type profileDocument struct {
	ID               string    `bson:"_id"`
	Email            string    `bson:"email"`
	Name             string    `bson:"name"`
	FitnessLevel     string    `bson:"fitness_level"`
	WorkoutTypes     []string  `bson:"workout_types"`
	Bio              string    `bson:"bio"`
	AvatarIndex      int       `bson:"avatar_index"`
	SentRequests     []string  `bson:"sent_requests"`
	ReceivedRequests []string  `bson:"received_requests"`
	Buddies          []string  `bson:"buddies"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

// MongoDB DateTime 只保存毫秒。
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func toDocument(p *models.Profile) profileDocument {
	return profileDocument{
		ID:               p.ID,
		Email:            p.Email,
		Name:             p.Name,
		FitnessLevel:     string(p.FitnessLevel),
		WorkoutTypes:     p.WorkoutTypes,
		Bio:              p.Bio,
		AvatarIndex:      p.AvatarIndex,
		SentRequests:     p.SentRequests,
		ReceivedRequests: p.ReceivedRequests,
		Buddies:          p.Buddies,
		CreatedAt:        toMS(p.CreatedAt),
		UpdatedAt:        toMS(p.UpdatedAt),
	}
}

func (d profileDocument) toModel() *models.Profile {
	p := &models.Profile{
		BaseModel:        models.BaseModel{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Email:            d.Email,
		Name:             d.Name,
		FitnessLevel:     models.FitnessLevel(d.FitnessLevel),
		WorkoutTypes:     datatypes.JSONSlice[string](d.WorkoutTypes),
		Bio:              d.Bio,
		AvatarIndex:      d.AvatarIndex,
		SentRequests:     datatypes.JSONSlice[string](d.SentRequests),
		ReceivedRequests: datatypes.JSONSlice[string](d.ReceivedRequests),
		Buddies:          datatypes.JSONSlice[string](d.Buddies),
	}
	p.Normalize()
	return p
}

func (m *Mongo) Get(ctx context.Context, id string) (*models.Profile, error) {
	const op = "storage/mongo/Get"

	var doc profileDocument
	err := m.profiles.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toModel(), nil
}

// GetForUpdate 在事务中通过写入 lock_seq 取得文档写锁，并发事务会产生写冲突并由驱动重试。
// 独立部署没有事务，由 WithinTransaction 的进程内互斥保证串行。
func (m *Mongo) GetForUpdate(ctx context.Context, id string) (*models.Profile, error) {
	const op = "storage/mongo/GetForUpdate"

	if !m.supportsTx {
		return m.Get(ctx, id)
	}

	var doc profileDocument
	err := m.profiles.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "lock_seq", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.toModel(), nil
}

// Put 用 $set 覆盖资料字段；关系集合与 created_at 只在插入时写入。
func (m *Mongo) Put(ctx context.Context, profile *models.Profile) error {
	const op = "storage/mongo/Put"

	profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	now := toMS(time.Now())
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	doc := toDocument(profile)
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "email", Value: doc.Email},
			{Key: "name", Value: doc.Name},
			{Key: "fitness_level", Value: doc.FitnessLevel},
			{Key: "workout_types", Value: doc.WorkoutTypes},
			{Key: "bio", Value: doc.Bio},
			{Key: "avatar_index", Value: doc.AvatarIndex},
			{Key: "updated_at", Value: doc.UpdatedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "sent_requests", Value: doc.SentRequests},
			{Key: "received_requests", Value: doc.ReceivedRequests},
			{Key: "buddies", Value: doc.Buddies},
			{Key: "created_at", Value: doc.CreatedAt},
		}},
	}

	_, err := m.profiles.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: profile.ID}},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Patch 用 $set / $addToSet / $pull 原子更新文档。
// 同一字段在一次更新中既加又删会被服务器拒绝，这种情况拆成按顺序执行的多次更新。
func (m *Mongo) Patch(ctx context.Context, id string, update storage.ProfileUpdate) (*models.Profile, error) {
	const op = "storage/mongo/Patch"

	if err := update.Patch.Validate(); err != nil {
		return nil, err
	}

	stages := buildStages(update, toMS(time.Now()))
	var doc profileDocument
	for _, stage := range stages {
		err := m.profiles.FindOneAndUpdate(ctx,
			bson.D{{Key: "_id", Value: id}},
			stage,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, models.ErrProfileNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return doc.toModel(), nil
}

func (m *Mongo) List(ctx context.Context) ([]models.Profile, error) {
	const op = "storage/mongo/List"

	cur, err := m.profiles.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var docs []profileDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	profiles := make([]models.Profile, 0, len(docs))
	for _, d := range docs {
		profiles = append(profiles, *d.toModel())
	}
	return profiles, nil
}

// WithinTransaction runs fn in a multi-document transaction when the deployment
// supports it. Otherwise calls are serialized within this process.
func (m *Mongo) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo storage.ProfileRepository) error) error {
	if !m.supportsTx {
		m.txMu.Lock()
		defer m.txMu.Unlock()
		return fn(ctx, m)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("storage/mongo/WithinTransaction: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongodriver.SessionContext) (interface{}, error) {
		return nil, fn(sc, m)
	})
	return err
}

// buildStages translates the update into one or more update documents.
// The field patch and updated_at always go into the first stage.
func buildStages(update storage.ProfileUpdate, now time.Time) []bson.D {
	set := bson.D{{Key: "updated_at", Value: now}}
	p := update.Patch
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: strings.TrimSpace(*p.Name)})
	}
	if p.FitnessLevel != nil {
		set = append(set, bson.E{Key: "fitness_level", Value: string(*p.FitnessLevel)})
	}
	if p.WorkoutTypes != nil {
		set = append(set, bson.E{Key: "workout_types", Value: []string(models.NormalizeWorkoutTypes(p.WorkoutTypes))})
	}
	if p.Bio != nil {
		set = append(set, bson.E{Key: "bio", Value: strings.TrimSpace(*p.Bio)})
	}
	if p.AvatarIndex != nil {
		set = append(set, bson.E{Key: "avatar_index", Value: models.AvatarByIndex(*p.AvatarIndex).Index})
	}

	type stage struct {
		adds  map[storage.SetField][]string
		pulls map[storage.SetField][]string
		order []storage.SetField
	}
	newStage := func() *stage {
		return &stage{adds: map[storage.SetField][]string{}, pulls: map[storage.SetField][]string{}}
	}

	stages := []*stage{newStage()}
	for _, o := range update.Ops {
		cur := stages[len(stages)-1]
		_, added := cur.adds[o.Field]
		_, pulled := cur.pulls[o.Field]
		if (o.Add && pulled) || (!o.Add && added) {
			cur = newStage()
			stages = append(stages, cur)
			added, pulled = false, false
		}
		if !added && !pulled {
			cur.order = append(cur.order, o.Field)
		}
		if o.Add {
			cur.adds[o.Field] = append(cur.adds[o.Field], o.Value)
		} else {
			cur.pulls[o.Field] = append(cur.pulls[o.Field], o.Value)
		}
	}

	out := make([]bson.D, 0, len(stages))
	for i, s := range stages {
		doc := bson.D{}
		if i == 0 {
			doc = append(doc, bson.E{Key: "$set", Value: set})
		}
		var addToSet, pull bson.D
		for _, f := range s.order {
			if vals, ok := s.adds[f]; ok {
				addToSet = append(addToSet, bson.E{Key: string(f), Value: bson.D{{Key: "$each", Value: vals}}})
			}
			if vals, ok := s.pulls[f]; ok {
				pull = append(pull, bson.E{Key: string(f), Value: bson.D{{Key: "$in", Value: vals}}})
			}
		}
		if len(addToSet) > 0 {
			doc = append(doc, bson.E{Key: "$addToSet", Value: addToSet})
		}
		if len(pull) > 0 {
			doc = append(doc, bson.E{Key: "$pull", Value: pull})
		}
		out = append(out, doc)
	}
	return out
}
