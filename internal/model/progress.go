package model

import (
	"encoding/json"
	"errors"
	"time"
)

type ItemKind string

const (
	KindWord     ItemKind = "word"
	KindSentence ItemKind = "sentence"
)

var ErrInvalidItemRef = errors.New("exactly one of wordId or sentenceId must be set")

// ItemRef 指向一个单词或一个句子
type ItemRef struct {
	Kind ItemKind
	ID   uint
}

func WordRef(id uint) ItemRef {
	return ItemRef{Kind: KindWord, ID: id}
}

func SentenceRef(id uint) ItemRef {
	return ItemRef{Kind: KindSentence, ID: id}
}

// NewItemRef 由请求中的 wordId / sentenceId 构造，二者必须且只能有一个
func NewItemRef(wordID, sentenceID *uint) (ItemRef, error) {
	switch {
	case wordID != nil && sentenceID == nil && *wordID > 0:
		return WordRef(*wordID), nil
	case sentenceID != nil && wordID == nil && *sentenceID > 0:
		return SentenceRef(*sentenceID), nil
	default:
		return ItemRef{}, ErrInvalidItemRef
	}
}

func (r ItemRef) Valid() bool {
	return (r.Kind == KindWord || r.Kind == KindSentence) && r.ID > 0
}

// ProgressRecord 用户对单个单词/句子的学习记录，(user_id, item_kind, item_id) 唯一
// swagger:model ProgressRecord
type ProgressRecord struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_progress_user_item,priority:1" json:"userId"`
	ItemKind   ItemKind   `gorm:"size:16;not null;uniqueIndex:idx_progress_user_item,priority:2" json:"kind"`
	ItemID     uint       `gorm:"not null;uniqueIndex:idx_progress_user_item,priority:3" json:"itemId"`
	IsLearned  bool       `gorm:"default:false" json:"isLearned"`
	IsFavorite bool       `gorm:"default:false" json:"isFavorite"`
	LearnedAt  *time.Time `json:"learnedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

// MarshalJSON 额外输出 wordId 或 sentenceId，兼容前端
func (p ProgressRecord) MarshalJSON() ([]byte, error) {
	type alias ProgressRecord
	out := struct {
		alias
		WordID     *uint `json:"wordId,omitempty"`
		SentenceID *uint `json:"sentenceId,omitempty"`
	}{alias: alias(p)}

	id := p.ItemID
	switch p.ItemKind {
	case KindWord:
		out.WordID = &id
	case KindSentence:
		out.SentenceID = &id
	}
	return json.Marshal(out)
}
