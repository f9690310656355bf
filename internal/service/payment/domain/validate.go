// internal/service/payment/domain/validate.go
package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidationResult 是纯校验的结果。Errors 以字段名为键，
// 便于调用方把错误挂回对应的输入控件；所有错误一次性返回。
type ValidationResult struct {
	Valid  bool              `json:"isValid"`
	Errors map[string]string `json:"errors"`
}

var (
	// 16 位卡号：4x4 空格分组，或 16 位连续数字
	cardNumberPattern = regexp.MustCompile(`^\d{4}(\s\d{4}){3}$|^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// Validate 按支付方式校验原始支付要素。纯函数，无 I/O。
// WALLET 与 CASH_ON_DELIVERY 不需要任何卡片要素，恒为通过。
func Validate(method Method, card CardDetails) ValidationResult {
	return ValidateAt(method, card, time.Now())
}

// ValidateAt 与 Validate 相同，但以显式的当前时间判定卡片是否过期。
func ValidateAt(method Method, card CardDetails, now time.Time) ValidationResult {
	errs := map[string]string{}

	if method.RequiresCard() {
		if card.CardNumber == "" {
			errs["cardNumber"] = "Card number is required"
		} else if !cardNumberPattern.MatchString(card.CardNumber) {
			errs["cardNumber"] = "Please enter a valid 16-digit card number"
		}

		if strings.TrimSpace(card.CardholderName) == "" {
			errs["cardholderName"] = "Cardholder name is required"
		}

		if card.ExpiryDate == "" {
			errs["expiryDate"] = "Expiry date is required"
		} else if msg := validateExpiry(card.ExpiryDate, now); msg != "" {
			errs["expiryDate"] = msg
		}

		if card.CVV == "" {
			errs["cvv"] = "CVV is required"
		} else if !cvvPattern.MatchString(card.CVV) {
			errs["cvv"] = "Please enter a valid CVV"
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// validateExpiry 校验 MM/YY 有效期。卡片在其有效期月份的最后一刻之前有效：
// 当月到期的卡仍然可用，上个月到期的卡被拒绝。
func validateExpiry(expiry string, now time.Time) string {
	if !expiryPattern.MatchString(expiry) {
		return "Please enter a valid expiry date (MM/YY)"
	}
	parts := strings.SplitN(expiry, "/", 2)
	month, _ := strconv.Atoi(parts[0])
	year, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return "Please enter a valid expiry date (MM/YY)"
	}

	// 有效期月份之后的第一天；now 到达该时刻即视为过期
	endOfMonth := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	if !now.Before(endOfMonth) {
		return "Your card has expired"
	}
	return ""
}
