package models

import "time"

// UploadedFile represents metadata about an uploaded workbook.
type UploadedFile struct {
	ID         uint      `gorm:"primaryKey" json:"id" msgpack:"id"`
	Filename   string    `gorm:"size:255;not null" json:"filename" msgpack:"filename"`
	Filepath   string    `gorm:"size:500;not null" json:"filepath" msgpack:"filepath"`
	Filesize   int64     `gorm:"not null" json:"filesize" msgpack:"filesize"`
	Filetype   string    `gorm:"size:255;not null" json:"filetype" msgpack:"filetype"`
	Checksum   string    `gorm:"size:32" json:"checksum" msgpack:"checksum"`
	UploadDate time.Time `gorm:"not null;index" json:"upload_date" msgpack:"upload_date"`
}

// TableName keeps the table name stable across drivers.
func (UploadedFile) TableName() string {
	return "excel_files"
}
