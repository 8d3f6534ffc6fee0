// internal/bank/log.go

package bank

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 交易方向與備註。
const (
	DirectionIn  = "in"
	DirectionOut = "out"

	NoteDeposit  = "deposit"
	NoteWithdraw = "withdraw"
	NoteTransfer = "transfer"
)

// Log represents a transaction record.
type Log struct {
	ID           uuid.UUID       `json:"id"`
	Time         time.Time       `json:"time"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    string          `json:"direction"`
	Counterparty string          `json:"counterparty,omitempty"`
	Note         string          `json:"note"`
}

func newLog(now time.Time, amt decimal.Decimal, direction, counterparty, note string) Log {
	return Log{
		ID:           uuid.New(),
		Time:         now,
		Amount:       amt,
		Direction:    direction,
		Counterparty: counterparty,
		Note:         note,
	}
}
