// internal/bank/errors.go
//
// 本檔集中定義領域錯誤（domain errors）。
// 呼叫端一律以 errors.Is 判斷種類；回傳的錯誤可能以 %w 包裝附加細節。

package bank

import "errors"

var (
	// ErrInvalidEmail 代表 email 不符合格式規則，只會在建立帳戶時回傳。
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidAmount 代表金額非法（負數或超過兩位小數）。
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds 代表扣款金額大於目前餘額。
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidTarget 代表轉帳對象不存在或與來源帳戶相同。
	ErrInvalidTarget = errors.New("invalid transfer target")

	// ErrNotFound 代表帳戶不存在（僅 Bank 使用）。
	ErrNotFound = errors.New("account not found")

	// ErrAccountExists 代表相同 email 的帳戶已註冊（僅 Bank 使用）。
	ErrAccountExists = errors.New("account already exists")
)
