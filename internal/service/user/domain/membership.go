// internal/service/user/domain/membership.go
package domain

import (
	"github.com/shopspring/decimal"
)

// Tier 会员等级
type Tier string

const (
	TierBronze  Tier = "Bronze"
	TierSilver  Tier = "Silver"
	TierGold    Tier = "Gold"
	TierDiamond Tier = "Diamond"
)

// TierInfo 描述一个等级的门槛和折扣率
type TierInfo struct {
	Tier         Tier    `json:"tier"`
	MinPurchases int     `json:"minPurchases"`
	DiscountRate float64 `json:"discountRate"`
}

// tiers 按门槛升序排列，区间互不重叠
var tiers = []TierInfo{
	{Tier: TierBronze, MinPurchases: 0, DiscountRate: 0},
	{Tier: TierSilver, MinPurchases: 5, DiscountRate: 0.01},
	{Tier: TierGold, MinPurchases: 10, DiscountRate: 0.03},
	{Tier: TierDiamond, MinPurchases: 15, DiscountRate: 0.05},
}

// Tiers 返回等级表的副本
func Tiers() []TierInfo {
	out := make([]TierInfo, len(tiers))
	copy(out, tiers)
	return out
}

// TierFor 返回门槛不超过 count 的最高等级
func TierFor(count int) Tier {
	t := TierBronze
	for _, info := range tiers {
		if count >= info.MinPurchases {
			t = info.Tier
		}
	}
	return t
}

// InfoOf 返回等级对应的配置，未知等级按 Bronze 处理
func InfoOf(t Tier) TierInfo {
	for _, info := range tiers {
		if info.Tier == t {
			return info
		}
	}
	return tiers[0]
}

// NextTier 返回下一个等级以及还差多少次购买；已是最高级时 ok=false
func NextTier(count int) (next Tier, remaining int, ok bool) {
	for _, info := range tiers {
		if info.MinPurchases > count {
			return info.Tier, info.MinPurchases - count, true
		}
	}
	return "", 0, false
}

// Discount 计算 amount * rate，保留两位小数
func Discount(t Tier, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	rate := decimal.NewFromFloat(InfoOf(t).DiscountRate)
	d, _ := decimal.NewFromFloat(amount).Mul(rate).Round(2).Float64()
	return d
}
