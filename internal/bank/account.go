// internal/bank/account.go
//
// Account 結構與存提款、轉帳規則，不含任何 HTTP 或儲存細節。

package bank

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a bank account.
//
// email 建立後不可變；balance 只能經由 Deposit、Withdraw、Transfer 變更，
// 且永遠非負、最多兩位小數。所有變更都在 mu 保護下完成。
type Account struct {
	mu      sync.Mutex
	email   string
	balance decimal.Decimal
	logs    []Log
}

// View 為帳戶某一時點的唯讀快照，供傳輸層序列化。
type View struct {
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

// NewAccount 以 email 與初始餘額建立帳戶。
// 兩者皆非法時優先回報金額錯誤；失敗時不回傳任何帳戶。
func NewAccount(email string, startingBalance decimal.Decimal) (*Account, error) {
	if !IsAmountValid(startingBalance) {
		return nil, invalidAmount(startingBalance)
	}
	if !IsEmailValid(email) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return &Account{email: email, balance: startingBalance}, nil
}

// Email 回傳帳戶識別 email。
func (a *Account) Email() string {
	return a.email
}

// Balance 回傳目前餘額。
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// View 回傳目前狀態的值拷貝。
func (a *Account) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return View{Email: a.email, Balance: a.balance}
}

// MarshalJSON 以 View 的格式輸出帳戶。
func (a *Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.View())
}

// Logs 回傳交易日誌的拷貝，依發生順序排列。
func (a *Account) Logs() []Log {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Log, len(a.logs))
	copy(out, a.logs)
	return out
}

// Deposit 存款。金額為 0 時仍視為成功。
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !IsAmountValid(amount) {
		return invalidAmount(amount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.credit(amount, newLog(time.Now(), amount, DirectionIn, "", NoteDeposit))
	return nil
}

// Withdraw 提款：金額須合法且不得超過餘額。
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !IsAmountValid(amount) {
		return invalidAmount(amount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount.GreaterThan(a.balance) {
		return insufficientFunds(a.balance, amount)
	}
	a.debit(amount, newLog(time.Now(), amount, DirectionOut, "", NoteWithdraw))
	return nil
}

// Transfer 由 a 轉帳 amount 至 other。
//
// 檢核順序：轉帳對象 → 金額 → 餘額。自我轉帳以 email 字串相等判定。
// 扣款與入帳在同時持有兩個帳戶鎖時完成；鎖依 email 遞增順序取得以避免死結。
func (a *Account) Transfer(other *Account, amount decimal.Decimal) error {
	if other == nil {
		return fmt.Errorf("%w: recipient is nil", ErrInvalidTarget)
	}
	if other.email == a.email {
		return fmt.Errorf("%w: %s cannot transfer to itself", ErrInvalidTarget, a.email)
	}
	if !IsAmountValid(amount) {
		return invalidAmount(amount)
	}

	first, second := a, other
	if second.email < first.email {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if amount.GreaterThan(a.balance) {
		return insufficientFunds(a.balance, amount)
	}

	now := time.Now()
	a.debit(amount, newLog(now, amount, DirectionOut, other.email, NoteTransfer))
	other.credit(amount, newLog(now, amount, DirectionIn, a.email, NoteTransfer))
	return nil
}

// credit 與 debit 呼叫前必須已持有 a.mu，且金額已檢核。
func (a *Account) credit(amount decimal.Decimal, l Log) {
	a.balance = a.balance.Add(amount)
	a.logs = append(a.logs, l)
}

func (a *Account) debit(amount decimal.Decimal, l Log) {
	a.balance = a.balance.Sub(amount)
	a.logs = append(a.logs, l)
}

func invalidAmount(amount decimal.Decimal) error {
	return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
}

func insufficientFunds(balance, amount decimal.Decimal) error {
	return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, balance, amount)
}
