// internal/service/user/domain/user.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"nexusmall/internal/pkg/apperr"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MonthFormat 是 lastResetMonth 的格式
const MonthFormat = "2006-01"

// User 是用户聚合根，会员计数只能通过 RecordPurchase 修改
type User struct {
	ID             string
	UserID         string
	Email          string
	Name           string
	Role           string
	Phone          string
	Address        string
	Avatar         string
	PurchaseCount  int
	TotalSpent     float64
	MembershipTier Tier
	LastResetMonth string
	CountedOrders  []string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser 首次从身份提供方同步时创建用户
func NewUser(userID, email, name, role string, now time.Time, month string) (*User, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if role == "" {
		role = RoleUser
	}
	return &User{
		UserID:         userID,
		Email:          email,
		Name:           name,
		Role:           role,
		MembershipTier: TierBronze,
		LastResetMonth: month,
		CountedOrders:  []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Profile 是可由用户自行修改的资料
type Profile struct {
	Name    *string
	Phone   *string
	Address *string
	Avatar  *string
}

// ApplyProfile 只覆盖非 nil 字段
func (u *User) ApplyProfile(p Profile, now time.Time) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	u.UpdatedAt = now
}

// NeedsMonthlyReset 判断计数是否属于之前的月份
func (u *User) NeedsMonthlyReset(month string) bool {
	return u.LastResetMonth != month
}

// ResetMonthly 清零本月计数；同月内重复调用是空操作
func (u *User) ResetMonthly(month string, now time.Time) bool {
	if !u.NeedsMonthlyReset(month) {
		return false
	}
	u.PurchaseCount = 0
	u.TotalSpent = 0
	u.MembershipTier = TierBronze
	u.CountedOrders = []string{}
	u.LastResetMonth = month
	u.UpdatedAt = now
	return true
}

// HasCounted 判断订单是否已计入
func (u *User) HasCounted(orderRef string) bool {
	if orderRef == "" {
		return false
	}
	for _, o := range u.CountedOrders {
		if o == orderRef {
			return true
		}
	}
	return false
}

// RecordPurchase 累加一笔购买。orderRef 已计入时不做任何修改并返回 false。
// orderRef 为空时不做幂等检查。
// 负的 amount 或 increment 返回 Validation 错误，而不是照常累加，
// 这样 purchaseCount 和 totalSpent 只增不减。
func (u *User) RecordPurchase(amount float64, increment int, orderRef, month string, now time.Time) (bool, error) {
	if amount < 0 {
		return false, apperr.Validation("orderAmount must not be negative")
	}
	if increment < 0 {
		return false, apperr.Validation("purchaseCount must not be negative")
	}
	if u.HasCounted(orderRef) {
		return false, nil
	}

	u.ResetMonthly(month, now)
	u.PurchaseCount += increment
	u.TotalSpent, _ = decimal.NewFromFloat(u.TotalSpent).Add(decimal.NewFromFloat(amount)).Float64()
	u.MembershipTier = TierFor(u.PurchaseCount)
	if orderRef != "" {
		u.CountedOrders = append(u.CountedOrders, orderRef)
	}
	u.UpdatedAt = now
	return true, nil
}

// Discount 按当前等级计算折扣
func (u *User) Discount(amount float64) float64 {
	return Discount(u.MembershipTier, amount)
}
