// internal/service/user/infrastructure/models.go
package infrastructure

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexusmall/internal/service/user/domain"
)

// UserDocument 是 users 集合中的文档
type UserDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"userId"`
	Email          string             `bson:"email"`
	Name           string             `bson:"name"`
	Role           string             `bson:"role"`
	Phone          string             `bson:"phone,omitempty"`
	Address        string             `bson:"address,omitempty"`
	Avatar         string             `bson:"avatar,omitempty"`
	PurchaseCount  int                `bson:"purchaseCount"`
	TotalSpent     float64            `bson:"totalSpent"`
	MembershipTier string             `bson:"membershipTier"`
	LastResetMonth string             `bson:"lastResetMonth"`
	CountedOrders  []string           `bson:"countedOrders"`
	Version        int64              `bson:"version"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// ToDomainUser 将数据库文档转换为领域模型
func ToDomainUser(doc *UserDocument) *domain.User {
	if doc == nil {
		return nil
	}
	counted := doc.CountedOrders
	if counted == nil {
		counted = []string{}
	}
	return &domain.User{
		ID:             doc.ID.Hex(),
		UserID:         doc.UserID,
		Email:          doc.Email,
		Name:           doc.Name,
		Role:           doc.Role,
		Phone:          doc.Phone,
		Address:        doc.Address,
		Avatar:         doc.Avatar,
		PurchaseCount:  doc.PurchaseCount,
		TotalSpent:     doc.TotalSpent,
		MembershipTier: domain.Tier(doc.MembershipTier),
		LastResetMonth: doc.LastResetMonth,
		CountedOrders:  counted,
		Version:        doc.Version,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

// FromDomainUser 将领域模型转换为数据库文档
func FromDomainUser(u *domain.User) *UserDocument {
	doc := &UserDocument{
		UserID:         u.UserID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Phone:          u.Phone,
		Address:        u.Address,
		Avatar:         u.Avatar,
		PurchaseCount:  u.PurchaseCount,
		TotalSpent:     u.TotalSpent,
		MembershipTier: string(u.MembershipTier),
		LastResetMonth: u.LastResetMonth,
		CountedOrders:  u.CountedOrders,
		Version:        u.Version,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(u.ID); err == nil {
		doc.ID = id
	}
	return doc
}
