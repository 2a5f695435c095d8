package model

import (
	"time"

	"salesdesk/internal/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TenantEvent 租戶生命週期稽核紀錄
type TenantEvent struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id"`
	TenantID  string                 `json:"tenantId" bson:"tenantId"`
	Subdomain string                 `json:"subdomain" bson:"subdomain"`
	Action    core.TenantAuditAction `json:"action" bson:"action"`
	Status    core.TenantAuditStatus `json:"status" bson:"status"`
	Actor     string                 `json:"actor,omitempty" bson:"actor,omitempty"`
	Detail    string                 `json:"detail,omitempty" bson:"detail,omitempty"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}

var TenantEventIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_tenant_created"),
	},
	{
		Keys:    bson.D{{Key: "action", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_action_status"),
	},
}
