package models

// DataRecord is one row extracted from one sheet of an uploaded workbook.
type DataRecord struct {
	ID        uint   `gorm:"primaryKey" json:"id" msgpack:"id"`
	Name      string `gorm:"size:255;not null" json:"name" msgpack:"name"`
	Address   string `gorm:"size:255;not null" json:"address" msgpack:"address"`
	Phone     string `gorm:"size:100;not null" json:"phone" msgpack:"phone"`
	Product   string `gorm:"size:255;not null;index" json:"product" msgpack:"product"`
	Quantity  int64  `gorm:"not null" json:"quantity" msgpack:"quantity"`
	SheetName string `gorm:"size:100;not null" json:"sheet_name" msgpack:"sheet_name"`
	FileID    uint   `gorm:"not null;index" json:"file_id" msgpack:"file_id"`
}

// TableName keeps the table name stable across drivers.
func (DataRecord) TableName() string {
	return "excel_data"
}

// PreviewRow is a coerced row shown before insertion.
type PreviewRow struct {
	Name     string `json:"name" msgpack:"name"`
	Address  string `json:"address" msgpack:"address"`
	Phone    string `json:"phone" msgpack:"phone"`
	Product  string `json:"product" msgpack:"product"`
	Quantity int64  `json:"quantity" msgpack:"quantity"`
}

// Record annotates a preview row with its origin.
func (r PreviewRow) Record(sheetName string, fileID uint) DataRecord {
	return DataRecord{
		Name:      r.Name,
		Address:   r.Address,
		Phone:     r.Phone,
		Product:   r.Product,
		Quantity:  r.Quantity,
		SheetName: sheetName,
		FileID:    fileID,
	}
}
