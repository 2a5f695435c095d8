package client

import (
	"context"
	"strings"

	"salesdesk/config"
	"salesdesk/internal/core"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoClient 連接 MongoDB；未設定 URI 時為停用狀態
type MongoClient struct {
	client   *mongo.Client
	database string
	logger   *zap.Logger
}

func NewMongoClient(logger *zap.Logger, config *config.Configuration) (*MongoClient, func(), error) {
	mongoClient := &MongoClient{logger: logger, database: config.MongoDB.Database}
	if mongoClient.database == "" {
		mongoClient.database = string(core.MongoDBSalesdesk)
	}
	if config.MongoDB.URI == "" {
		logger.Info("MongoDB disabled, tenant events are not recorded")
		return mongoClient, func() {}, nil
	}
	client, err := mongoClient.connectDB(config)
	if err != nil {
		logger.Error("failed to connect to MongoDB", zap.Error(err))
		return nil, nil, err
	}
	logger.Info("Connected to MongoDB")
	mongoClient.client = client

	cleanup := func() {
		logger.Info("closing the MongoDB resources")
		if err := mongoClient.Close(); err != nil {
			logger.Error("failed to close MongoDB client", zap.Error(err))
		}
	}

	return mongoClient, cleanup, nil
}

func (client *MongoClient) connectDB(config *config.Configuration) (*mongo.Client, error) {
	uri := buildMongoURI(config.MongoDB.URI, config.MongoDB.Options)
	return mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
}

func buildMongoURI(baseURI, optionStr string) string {
	if optionStr == "" {
		return baseURI
	}
	if strings.Contains(baseURI, "?") {
		return baseURI + "&" + optionStr
	}
	return baseURI + "?" + optionStr
}

// Enabled 是否有可用的 MongoDB 連線
func (m *MongoClient) Enabled() bool {
	return m != nil && m.client != nil
}

// Close 關閉 MongoDB 連線
func (m *MongoClient) Close() error {
	if !m.Enabled() {
		return nil
	}
	return m.client.Disconnect(context.Background())
}

// Client 回傳 MongoDB 連線
func (m *MongoClient) Client() *mongo.Client {
	return m.client
}

// Collection 停用時回傳 nil
func (m *MongoClient) Collection(name core.MongoCollection) *mongo.Collection {
	if !m.Enabled() {
		return nil
	}
	return m.client.Database(m.database).Collection(string(name))
}
