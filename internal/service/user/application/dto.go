// internal/service/user/application/dto.go
package application

import (
	"time"

	"nexusmall/internal/service/user/domain"
)

// SyncUserRequest 来自身份提供方的用户信息
type SyncUserRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Avatar  *string `json:"avatar,omitempty"`
}

// RecordPurchaseRequest 是 recordPurchase 的输入，orderId 与 orderNumber 二选一
type RecordPurchaseRequest struct {
	OrderAmount   float64 `json:"orderAmount"`
	PurchaseCount *int    `json:"purchaseCount,omitempty"`
	OrderID       string  `json:"orderId,omitempty"`
	OrderNumber   string  `json:"orderNumber,omitempty"`
}

func (r RecordPurchaseRequest) orderRef() string {
	if r.OrderNumber != "" {
		return r.OrderNumber
	}
	return r.OrderID
}

func (r RecordPurchaseRequest) increment() int {
	if r.PurchaseCount == nil {
		return 1
	}
	return *r.PurchaseCount
}

type UserResponse struct {
	ID             string      `json:"id"`
	UserID         string      `json:"userId"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	Role           string      `json:"role"`
	Phone          string      `json:"phone,omitempty"`
	Address        string      `json:"address,omitempty"`
	Avatar         string      `json:"avatar,omitempty"`
	PurchaseCount  int         `json:"purchaseCount"`
	TotalSpent     float64     `json:"totalSpent"`
	MembershipTier domain.Tier `json:"membershipTier"`
	LastResetMonth string      `json:"lastResetMonth"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func toUserResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		UserID:         u.UserID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Phone:          u.Phone,
		Address:        u.Address,
		Avatar:         u.Avatar,
		PurchaseCount:  u.PurchaseCount,
		TotalSpent:     u.TotalSpent,
		MembershipTier: u.MembershipTier,
		LastResetMonth: u.LastResetMonth,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// MembershipResponse 是会员状态视图
type MembershipResponse struct {
	UserID              string      `json:"userId"`
	Tier                domain.Tier `json:"tier"`
	PurchaseCount       int         `json:"purchaseCount"`
	TotalSpent          float64     `json:"totalSpent"`
	DiscountRate        float64     `json:"discountRate"`
	NextTier            domain.Tier `json:"nextTier,omitempty"`
	PurchasesToNextTier int         `json:"purchasesToNextTier"`
	LastResetMonth      string      `json:"lastResetMonth"`
	Applied             *bool       `json:"applied,omitempty"`
}

func toMembershipResponse(u *domain.User) *MembershipResponse {
	resp := &MembershipResponse{
		UserID:         u.UserID,
		Tier:           u.MembershipTier,
		PurchaseCount:  u.PurchaseCount,
		TotalSpent:     u.TotalSpent,
		DiscountRate:   domain.InfoOf(u.MembershipTier).DiscountRate,
		LastResetMonth: u.LastResetMonth,
	}
	if next, remaining, ok := domain.NextTier(u.PurchaseCount); ok {
		resp.NextTier = next
		resp.PurchasesToNextTier = remaining
	}
	return resp
}

type DiscountResponse struct {
	Tier         domain.Tier `json:"tier"`
	DiscountRate float64     `json:"discountRate"`
	Amount       float64     `json:"amount"`
	Discount     float64     `json:"discount"`
}

type ResetResponse struct {
	Month string `json:"month"`
	Reset int    `json:"reset"`
}
