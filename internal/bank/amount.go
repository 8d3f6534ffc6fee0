// internal/bank/amount.go

package bank

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// amountScale 為金額允許的小數位數（分）。
const amountScale = 2

// IsAmountValid 回報 x 是否為合法金額：非負，且最多兩位小數。
// 以十進位定點數比較，不經過浮點運算。
func IsAmountValid(x decimal.Decimal) bool {
	if x.IsNegative() {
		return false
	}
	return x.Equal(x.Truncate(amountScale))
}

// ParseAmount 解析十進位字串並檢核金額；失敗一律回傳 ErrInvalidAmount。
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !IsAmountValid(d) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, d)
	}
	return d, nil
}
