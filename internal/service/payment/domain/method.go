// internal/service/payment/domain/method.go
package domain

import (
	"fmt"
	"strings"
)

// Method 定义了支持的支付方式。
type Method string

const (
	MethodCreditCard     Method = "CREDIT_CARD"
	MethodDebitCard      Method = "DEBIT_CARD"
	MethodWallet         Method = "WALLET"
	MethodCashOnDelivery Method = "CASH_ON_DELIVERY"
)

// RequiresCard 返回该支付方式是否需要卡片要素（卡号/有效期/CVV）。
func (m Method) RequiresCard() bool {
	return m == MethodCreditCard || m == MethodDebitCard
}

// ParseMethod 将外部输入解析为支付方式。
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodCreditCard:
		return MethodCreditCard, nil
	case MethodDebitCard:
		return MethodDebitCard, nil
	case MethodWallet:
		return MethodWallet, nil
	case MethodCashOnDelivery:
		return MethodCashOnDelivery, nil
	default:
		return "", fmt.Errorf("unknown payment method: %q", s)
	}
}

// CardBrand 是根据卡号前缀推断出的卡组织。
type CardBrand string

const (
	BrandVisa       CardBrand = "Visa"
	BrandMasterCard CardBrand = "MasterCard"
	BrandAmex       CardBrand = "American Express"
	BrandDiscover   CardBrand = "Discover"
	BrandUnknown    CardBrand = "Unknown"
)

// InferBrand 根据卡号前缀推断卡组织。
// 只用于生成掩码摘要，不参与校验；调用方应在调用后立即丢弃原始卡号。
func InferBrand(cardNumber string) CardBrand {
	n := digitsOnly(cardNumber)
	switch {
	case strings.HasPrefix(n, "4"):
		return BrandVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return BrandMasterCard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return BrandAmex
	case strings.HasPrefix(n, "6011"), strings.HasPrefix(n, "65"):
		return BrandDiscover
	default:
		return BrandUnknown
	}
}

// digitsOnly 去掉空格和连字符，仅保留数字字符。
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
