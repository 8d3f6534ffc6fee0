// internal/storage/snapshot.go
//
// 提供快照的序列化與反序列化。
// 寫入採原子策略：先寫入同目錄下的唯一暫存檔，再以 rename() 取代原檔。
// 副檔名為 .yaml / .yml 時以 YAML 編碼，其餘一律 JSON。
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 支援的編碼格式。
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFor 依副檔名決定快照編碼。
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadSnapshot 讀取指定路徑的快照。
// 檔案不存在時回傳的錯誤滿足 errors.Is(err, fs.ErrNotExist)。
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	if err := decode(f, FormatFor(path), &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

// SaveSnapshot 將快照寫入同目錄的唯一暫存檔後 rename 成 path。
// 寫入中斷時原檔不受影響；並行呼叫不共用暫存檔，但寫入順序由呼叫端負責。
func SaveSnapshot(path string, snap Snapshot) error {
	format := FormatFor(path)
	snap.Meta.Storage = StorageKind
	snap.Meta.Format = format
	if snap.Meta.Version == 0 {
		snap.Meta.Version = CurrentVersion
	}
	snap.Meta.Timestamp = time.Now().UTC()
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := encode(f, format, snap); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode snapshot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func encode(w io.Writer, format string, snap Snapshot) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func decode(r io.Reader, format string, snap *Snapshot) error {
	if format == FormatYAML {
		return yaml.NewDecoder(r).Decode(snap)
	}
	return json.NewDecoder(r).Decode(snap)
}
