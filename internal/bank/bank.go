// internal/bank/bank.go

// Package bank 定義核心商業邏輯：email 與金額檢核、帳戶存提款與轉帳，
// 以及承載帳戶的記憶體登錄表 Bank。
// 金額以 decimal.Decimal 定點數表示，不經過浮點運算。
// 每個帳戶各自持有互斥鎖；Bank 的 mu 只保護帳戶映射。
package bank

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bankaccount/internal/storage"
)

// Bank 管理全系統帳戶。
type Bank struct {
	mu    sync.RWMutex
	accts map[string]*Account
}

// NewBank 建立空白銀行實例。
func NewBank() *Bank {
	return &Bank{accts: make(map[string]*Account)}
}

// Create 建立並登錄帳戶；email 已存在時回傳 ErrAccountExists。
func (b *Bank) Create(email string, balance decimal.Decimal) (*Account, error) {
	a, err := NewAccount(email, balance)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accts[email]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, email)
	}
	b.accts[email] = a
	return a, nil
}

// Get 依 email 取得帳戶；不存在回傳 ErrNotFound。
func (b *Bank) Get(email string) (*Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.accts[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	return a, nil
}

// Len 回傳已登錄帳戶數。
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accts)
}

// List 回傳所有帳戶，依 email 排序。
func (b *Bank) List() []*Account {
	b.mu.RLock()
	out := make([]*Account, 0, len(b.accts))
	for _, a := range b.accts {
		out = append(out, a)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].email < out[j].email })
	return out
}

// Deposit 對指定帳戶存款。
func (b *Bank) Deposit(email string, amt decimal.Decimal) (*Account, error) {
	a, err := b.Get(email)
	if err != nil {
		return nil, err
	}
	if err := a.Deposit(amt); err != nil {
		return nil, err
	}
	return a, nil
}

// Withdraw 對指定帳戶提款。
func (b *Bank) Withdraw(email string, amt decimal.Decimal) (*Account, error) {
	a, err := b.Get(email)
	if err != nil {
		return nil, err
	}
	if err := a.Withdraw(amt); err != nil {
		return nil, err
	}
	return a, nil
}

// Transfer 由 from 轉帳至 to，成功時回傳兩個帳戶。
// 收款帳戶未登錄時回傳的錯誤同時滿足 ErrNotFound 與 ErrInvalidTarget。
func (b *Bank) Transfer(from, to string, amt decimal.Decimal) (src, dst *Account, err error) {
	src, err = b.Get(from)
	if err != nil {
		return nil, nil, err
	}
	dst, err = b.Get(to)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if err := src.Transfer(dst, amt); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// Logs 回傳指定帳戶的交易日誌（值拷貝）。
func (b *Bank) Logs(email string) ([]Log, error) {
	a, err := b.Get(email)
	if err != nil {
		return nil, err
	}
	return a.Logs(), nil
}

// Snapshot 匯出銀行狀態。
// 依 email 升冪鎖住全部帳戶後才複製，與 Transfer 的鎖序一致；
// 快照中不會出現只完成一半的轉帳。
func (b *Bank) Snapshot() storage.Snapshot {
	accts := b.List()
	for _, a := range accts {
		a.mu.Lock()
	}
	defer func() {
		for i := len(accts) - 1; i >= 0; i-- {
			accts[i].mu.Unlock()
		}
	}()

	s := storage.Snapshot{
		Meta: storage.Meta{
			Storage: storage.StorageKind,
			Version: storage.CurrentVersion,
		},
		Accounts: make([]storage.PersistAccount, 0, len(accts)),
	}
	for _, a := range accts {
		pa := storage.PersistAccount{
			Email:   a.email,
			Balance: a.balance.StringFixed(amountScale),
			Logs:    make([]storage.PersistLog, 0, len(a.logs)),
		}
		for _, l := range a.logs {
			pa.Logs = append(pa.Logs, storage.PersistLog{
				ID:           l.ID.String(),
				Time:         l.Time,
				Amount:       l.Amount.StringFixed(amountScale),
				Direction:    l.Direction,
				Counterparty: l.Counterparty,
				Note:         l.Note,
			})
		}
		s.Accounts = append(s.Accounts, pa)
	}
	return s
}

// Restore 以快照取代目前狀態。
// 每個帳戶都重新經過 NewAccount 檢核；任一筆失敗時不變更現有狀態。
func (b *Bank) Restore(s storage.Snapshot) error {
	accts := make(map[string]*Account, len(s.Accounts))
	for _, pa := range s.Accounts {
		bal, err := ParseAmount(pa.Balance)
		if err != nil {
			return fmt.Errorf("restore %s: %w", pa.Email, err)
		}
		a, err := NewAccount(pa.Email, bal)
		if err != nil {
			return fmt.Errorf("restore %s: %w", pa.Email, err)
		}
		if _, dup := accts[a.email]; dup {
			return fmt.Errorf("restore: %w: %s", ErrAccountExists, a.email)
		}
		for _, pl := range pa.Logs {
			l, err := restoreLog(pl)
			if err != nil {
				return fmt.Errorf("restore %s: %w", pa.Email, err)
			}
			a.logs = append(a.logs, l)
		}
		accts[a.email] = a
	}

	b.mu.Lock()
	b.accts = accts
	b.mu.Unlock()
	return nil
}

func restoreLog(pl storage.PersistLog) (Log, error) {
	id, err := uuid.Parse(pl.ID)
	if err != nil {
		return Log{}, fmt.Errorf("log id %q: %w", pl.ID, err)
	}
	amt, err := ParseAmount(pl.Amount)
	if err != nil {
		return Log{}, fmt.Errorf("log %s: %w", pl.ID, err)
	}
	return Log{
		ID:           id,
		Time:         pl.Time,
		Amount:       amt,
		Direction:    pl.Direction,
		Counterparty: pl.Counterparty,
		Note:         pl.Note,
	}, nil
}
