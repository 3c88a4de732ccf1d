package model

// Word 单词，level 为难度，day 为所属的学习日
// swagger:model Word
type Word struct {
	BaseModel
	Text        string `gorm:"size:255;not null" json:"text"`
	Reading     string `gorm:"size:255" json:"reading"`
	Translation string `gorm:"size:255" json:"translation"`
	Level       int    `gorm:"index;default:1" json:"level"`
	Day         int    `gorm:"index;default:1" json:"day"`
}

func (Word) TableName() string {
	return "words"
}

// swagger:model Sentence
type Sentence struct {
	BaseModel
	Text        string `gorm:"type:text;not null" json:"text"`
	Translation string `gorm:"type:text" json:"translation"`
	Level       int    `gorm:"index;default:1" json:"level"`
	Day         int    `gorm:"index;default:1" json:"day"`
}

func (Sentence) TableName() string {
	return "sentences"
}
