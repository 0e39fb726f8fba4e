// internal/service/payment/domain/vnpay.go
package domain

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nexusmall/internal/pkg/apperr"
)

const (
	Version       = "2.1.0"
	CommandPay    = "pay"
	CurrencyVND   = "VND"
	OrderType     = "other"
	LocaleVN      = "vn"
	ParamHash     = "vnp_SecureHash"
	ParamHashType = "vnp_SecureHashType"

	dateLayout  = "20060102150405"
	codeSuccess = "00"
)

// GatewayConfig 是商户在 VNPay 的配置
type GatewayConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Expire     time.Duration
	Location   *time.Location
}

// Gateway 负责 VNPay 请求签名与回调验签，两侧使用同一份规范化串
type Gateway struct {
	cfg GatewayConfig
}

func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Expire <= 0 {
		cfg.Expire = 15 * time.Minute
	}
	return &Gateway{cfg: cfg}
}

// PaymentRequest 生成支付链接所需的信息
type PaymentRequest struct {
	OrderID   string
	Amount    float64
	OrderInfo string
	IPAddr    string
}

// CanonicalString 取除签名字段外的全部参数，值按解码后的原文，key 字典序，以 & 连接 key=value
func CanonicalString(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamHash || k == ParamHashType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params.Get(k))
	}
	return b.String()
}

// Sign 计算 HMAC-SHA512，输出小写十六进制
func (g *Gateway) Sign(params url.Values) string {
	mac := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	mac.Write([]byte(CanonicalString(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 校验回调签名，大小写不敏感；缺失或不一致都返回 SignatureInvalid
func (g *Gateway) Verify(params url.Values) error {
	got := params.Get(ParamHash)
	if got == "" {
		return apperr.SignatureInvalid("missing %s", ParamHash)
	}
	want := g.Sign(params)
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return apperr.SignatureInvalid("invalid transaction")
	}
	return nil
}

// BuildPaymentURL 组装 VNPay 2.1.0 跳转链接，金额以 ×100 的整数传递
func (g *Gateway) BuildPaymentURL(req PaymentRequest, now time.Time) (string, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return "", apperr.Validation("orderId is required")
	}
	if req.Amount <= 0 {
		return "", apperr.Validation("amount must be a positive number")
	}
	info := req.OrderInfo
	if info == "" {
		info = "Thanh toan don hang " + req.OrderID
	}
	ip := req.IPAddr
	if ip == "" {
		ip = "127.0.0.1"
	}

	local := now.In(g.cfg.Location)
	amount := decimal.NewFromFloat(req.Amount).Mul(decimal.NewFromInt(100)).Round(0)

	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", CommandPay)
	params.Set("vnp_TmnCode", g.cfg.TmnCode)
	params.Set("vnp_Amount", amount.String())
	params.Set("vnp_CurrCode", CurrencyVND)
	params.Set("vnp_TxnRef", req.OrderID)
	params.Set("vnp_OrderInfo", info)
	params.Set("vnp_OrderType", OrderType)
	params.Set("vnp_Locale", LocaleVN)
	params.Set("vnp_ReturnUrl", g.cfg.ReturnURL)
	params.Set("vnp_IpAddr", ip)
	params.Set("vnp_CreateDate", local.Format(dateLayout))
	params.Set("vnp_ExpireDate", local.Add(g.cfg.Expire).Format(dateLayout))
	params.Set(ParamHash, g.Sign(params))

	return g.cfg.PayURL + "?" + params.Encode(), nil
}

// CallbackResult 是验签通过后的网关结果
type CallbackResult struct {
	OrderNumber   string
	TransactionNo string
	ResponseCode  string
	Success       bool
}

// ParseCallback 验签并解析结果。vnp_ResponseCode 必须为 00，vnp_TransactionStatus 存在时也必须为 00。
func (g *Gateway) ParseCallback(params url.Values) (*CallbackResult, error) {
	if err := g.Verify(params); err != nil {
		return nil, err
	}
	code := params.Get("vnp_ResponseCode")
	success := code == codeSuccess
	if status := params.Get("vnp_TransactionStatus"); status != "" && status != codeSuccess {
		success = false
	}
	return &CallbackResult{
		OrderNumber:   params.Get("vnp_TxnRef"),
		TransactionNo: params.Get("vnp_TransactionNo"),
		ResponseCode:  code,
		Success:       success,
	}, nil
}
