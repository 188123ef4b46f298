package mongo

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gym-buddy/internal/models"
)

const defaultDBName = "gym_buddy"

// Mongo 是资料文档存储的 MongoDB 适配器，实现 storage.ProfileRepository。
type Mongo struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	profiles *mongodriver.Collection
	// 独立部署的 mongod 不支持多文档事务
	supportsTx bool
	txMu       sync.Mutex
}

// New connects to MongoDB, pings it, prepares the profile collection and its indexes.
func New(ctx context.Context, uri string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))
	m := &Mongo{
		client:   cli,
		db:       db,
		profiles: db.Collection(models.ProfilesCollection),
	}

	m.supportsTx = m.detectTransactions(ctx)
	if !m.supportsTx {
		log.Println("警告: MongoDB 不是副本集，好友请求操作将不在事务中执行，只在本进程内串行")
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes 为按邮箱查找资料创建索引。
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.profiles.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_asc"),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// detectTransactions asks the server whether it is a replica set member or a mongos router.
func (m *Mongo) detectTransactions(ctx context.Context) bool {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := m.db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		log.Printf("mongo hello 命令失败: %v", err)
		return false
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid"
}

// databaseFromURI extracts the database name from the URI path, falling back to defaultDBName.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
