// internal/service/payment/domain/instrument.go
package domain

// CardDetails 承载原始支付要素。
// 它只在校验和掩码摘要构造期间存在，绝不落入 Transaction 或任何日志。
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardholderName string `json:"cardholderName"`
	ExpiryDate     string `json:"expiryDate"` // MM/YY
	CVV            string `json:"cvv"`
}

// Summary 是展示安全的支付摘要：卡组织 + 后四位。
// 非卡支付方式只保留支付方式本身。
type Summary struct {
	Method Method    `json:"method"`
	Brand  CardBrand `json:"cardType,omitempty"`
	Last4  string    `json:"last4,omitempty"`
}

// MaskedSummary 从原始要素构造掩码摘要。只应在支付成功路径上调用，
// 调用后原始要素即被丢弃。
func (c CardDetails) MaskedSummary(method Method) *Summary {
	s := &Summary{Method: method}
	if !method.RequiresCard() {
		return s
	}
	n := digitsOnly(c.CardNumber)
	if len(n) >= 4 {
		s.Last4 = n[len(n)-4:]
	}
	s.Brand = InferBrand(c.CardNumber)
	return s
}

// TestCard 是沙箱联调用的测试卡。
var TestCard = CardDetails{
	CardNumber:     "4111 1111 1111 1111",
	CardholderName: "Test User",
	ExpiryDate:     "12/30",
	CVV:            "123",
}
