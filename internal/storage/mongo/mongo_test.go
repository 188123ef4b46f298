package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"

	"gym-buddy/internal/models"
	"gym-buddy/internal/storage"
)

// testTimeout 是测试中数据库操作的统一超时。
const testTimeout = 10 * time.Second

// TestMain 仅在设置 GO_TEST_INTEGRATION 时启动一次 MongoDB 容器。
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}
	_ = os.Setenv("MONGO_TEST_URI", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestStore 为每个测试创建独立数据库。
func newTestStore(t *testing.T) *Mongo {
	t.Helper()
	base := os.Getenv("MONGO_TEST_URI")
	if base == "" {
		t.Skip("set GO_TEST_INTEGRATION=1 to run MongoDB integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, fmt.Sprintf("%s/gym_test_%s", base, uuid.NewString()[:8]))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.db.Drop(context.Background())
		_ = m.Close(context.Background())
	})
	return m
}

func TestBuildStages(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("single stage", func(t *testing.T) {
		stages := buildStages(storage.ProfileUpdate{
			Patch: models.ProfilePatch{Name: models.StringPtr(" Jo ")},
			Ops: []storage.SetOp{
				storage.AddToSet(storage.FieldBuddies, "b"),
				storage.RemoveFromSet(storage.FieldReceivedRequests, "b"),
			},
		}, now)
		require.Len(t, stages, 1)
		assert.Equal(t, bson.D{
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}, {Key: "name", Value: "Jo"}}},
			{Key: "$addToSet", Value: bson.D{{Key: "buddies", Value: bson.D{{Key: "$each", Value: []string{"b"}}}}}},
			{Key: "$pull", Value: bson.D{{Key: "received_requests", Value: bson.D{{Key: "$in", Value: []string{"b"}}}}}},
		}, stages[0])
	})

	t.Run("conflicting field splits", func(t *testing.T) {
		stages := buildStages(storage.ProfileUpdate{Ops: []storage.SetOp{
			storage.RemoveFromSet(storage.FieldSentRequests, "x"),
			storage.AddToSet(storage.FieldSentRequests, "x"),
		}}, now)
		require.Len(t, stages, 2)
		assert.Equal(t, "$pull", stages[0][1].Key)
		assert.Equal(t, bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: "sent_requests", Value: bson.D{{Key: "$each", Value: []string{"x"}}}}}},
		}, stages[1])
	})
}

func TestDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "gyms", databaseFromURI("mongodb://localhost:27017/gyms"))
	assert.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
}

func TestMongoProfiles(t *testing.T) {
	m := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	_, err := m.Get(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	require.NoError(t, m.Put(ctx, models.NewProfile("u1", "u1@x.com", 2, time.Now())))
	require.NoError(t, m.Put(ctx, models.NewProfile("u2", "u2@x.com", 4, time.Now())))

	got, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvatarIndex)
	assert.False(t, got.IsComplete())

	updated, err := m.Patch(ctx, "u1", storage.ProfileUpdate{
		Patch: models.ProfilePatch{Name: models.StringPtr("Kim"), WorkoutTypes: []string{"Yoga", "Yoga"}},
		Ops:   []storage.SetOp{storage.AddToSet(storage.FieldSentRequests, "u2")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Kim", updated.Name)
	assert.Equal(t, []string{"Yoga"}, []string(updated.WorkoutTypes))
	assert.Equal(t, []string{"u2"}, []string(updated.SentRequests))

	_, err = m.Patch(ctx, "missing", storage.ProfileUpdate{Patch: models.ProfilePatch{Name: models.StringPtr("x")}})
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	err = m.WithinTransaction(ctx, func(ctx context.Context, repo storage.ProfileRepository) error {
		_, err := repo.Patch(ctx, "u2", storage.ProfileUpdate{Ops: []storage.SetOp{storage.AddToSet(storage.FieldReceivedRequests, "u1")}})
		return err
	})
	require.NoError(t, err)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"u1"}, []string(list[1].ReceivedRequests))
}

func TestMongoPutKeepsRelationshipSets(t *testing.T) {
	m := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	require.NoError(t, m.Put(ctx, models.NewProfile("u1", "u1@x.com", 0, time.Now())))
	_, err := m.Patch(ctx, "u1", storage.ProfileUpdate{Ops: []storage.SetOp{storage.AddToSet(storage.FieldBuddies, "u2")}})
	require.NoError(t, err)
	before, err := m.Get(ctx, "u1")
	require.NoError(t, err)

	replacement := models.NewProfile("u1", "u1@x.com", 1, time.Now().Add(time.Hour))
	replacement.Name = "Kim"
	require.NoError(t, m.Put(ctx, replacement))

	got, err := m.GetForUpdate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Kim", got.Name)
	assert.Equal(t, 1, got.AvatarIndex)
	assert.Equal(t, []string{"u2"}, []string(got.Buddies))
	assert.True(t, before.CreatedAt.Equal(got.CreatedAt))

	_, err = m.GetForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)
}
