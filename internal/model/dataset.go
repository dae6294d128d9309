package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// fileRefSeparator joins stored object keys in Dataset.FilePath.
const fileRefSeparator = ","

// Dataset is a purchasable collection of files.
type Dataset struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"size:255;not null;index"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	FilePath    string          `json:"-" gorm:"column:file_path;type:text;not null"`
	UploaderID  uint            `json:"uploader_id" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

// Files returns the stored object keys, skipping blanks.
func (d *Dataset) Files() []string {
	parts := strings.Split(d.FilePath, fileRefSeparator)
	files := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			files = append(files, p)
		}
	}
	return files
}

// SetFiles serializes keys into FilePath.
func (d *Dataset) SetFiles(keys []string) {
	d.FilePath = strings.Join(keys, fileRefSeparator)
}

// FileCount is used in API responses instead of exposing storage keys.
func (d *Dataset) FileCount() int {
	return len(d.Files())
}
