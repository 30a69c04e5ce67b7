package submission

import "time"

// Submission is one pending file-drop request. The code is the only
// capability needed to act on it; the row is deleted on delivery or expiry,
// so absence is the terminal state. Claimed is true only while a finalize
// is in flight and guards against a concurrent double-delivery.
type Submission struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"-"`
	Email     string    `gorm:"column:email;not null" json:"email"`
	Code      string    `gorm:"column:code;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	Claimed   bool      `gorm:"column:claimed;not null;default:false" json:"-"`
}

func (Submission) TableName() string { return "submissions" }
