// internal/storage/model.go
//
// 定義持久化層的快照結構。
// 金額一律以十進位字串保存，避免經過浮點數；本層不依賴 bank 套件。
package storage

import "time"

// 目前的快照格式版本。
const (
	StorageKind    = "snapshot"
	CurrentVersion = 2
)

// Meta 為快照的中繼資料。
type Meta struct {
	Storage   string    `json:"storage" yaml:"storage"`     // 儲存類型
	Format    string    `json:"format" yaml:"format"`       // 實際編碼：json 或 yaml
	Version   int       `json:"version" yaml:"version"`     // 結構版本號
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"` // 快照建立時間
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// PersistLog 為單筆交易日誌的序列化格式。
type PersistLog struct {
	ID           string    `json:"id" yaml:"id"`
	Time         time.Time `json:"time" yaml:"time"`
	Amount       string    `json:"amount" yaml:"amount"`
	Direction    string    `json:"direction" yaml:"direction"`
	Counterparty string    `json:"counterparty,omitempty" yaml:"counterparty,omitempty"`
	Note         string    `json:"note" yaml:"note"`
}

// PersistAccount 為帳戶在儲存層的序列化格式。
type PersistAccount struct {
	Email   string       `json:"email" yaml:"email"`
	Balance string       `json:"balance" yaml:"balance"`
	Logs    []PersistLog `json:"logs" yaml:"logs"`
}

// Snapshot 為 Bank 狀態的完整快照。
type Snapshot struct {
	Meta     Meta             `json:"_meta" yaml:"_meta"`
	Accounts []PersistAccount `json:"accounts" yaml:"accounts"`
}
