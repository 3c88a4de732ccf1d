package repository

import (
	"context"
	"kiriboka_backend/internal/model"

	"gorm.io/gorm"
)

type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) WithTx(tx *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: tx}
}

// ContentFilter level / day 为 0 表示不过滤
type ContentFilter struct {
	Level int
	Day   int
}

func (f ContentFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Level > 0 {
		db = db.Where("level = ?", f.Level)
	}
	if f.Day > 0 {
		db = db.Where("day = ?", f.Day)
	}
	return db
}

func (r *ContentRepository) ListWords(ctx context.Context, filter ContentFilter) ([]model.Word, error) {
	var words []model.Word
	err := filter.apply(r.DB.WithContext(ctx)).Order("day ASC, id ASC").Find(&words).Error
	return words, err
}

func (r *ContentRepository) ListSentences(ctx context.Context, filter ContentFilter) ([]model.Sentence, error) {
	var sentences []model.Sentence
	err := filter.apply(r.DB.WithContext(ctx)).Order("day ASC, id ASC").Find(&sentences).Error
	return sentences, err
}

func (r *ContentRepository) FindWord(ctx context.Context, id uint) (*model.Word, error) {
	var word model.Word
	err := r.DB.WithContext(ctx).First(&word, id).Error
	return &word, err
}

func (r *ContentRepository) FindSentence(ctx context.Context, id uint) (*model.Sentence, error) {
	var sentence model.Sentence
	err := r.DB.WithContext(ctx).First(&sentence, id).Error
	return &sentence, err
}

// Exists 检查 ref 指向的内容是否存在
func (r *ContentRepository) Exists(ctx context.Context, ref model.ItemRef) (bool, error) {
	var count int64
	var err error
	switch ref.Kind {
	case model.KindWord:
		err = r.DB.WithContext(ctx).Model(&model.Word{}).Where("id = ?", ref.ID).Count(&count).Error
	case model.KindSentence:
		err = r.DB.WithContext(ctx).Model(&model.Sentence{}).Where("id = ?", ref.ID).Count(&count).Error
	}
	return count > 0, err
}

func (r *ContentRepository) CreateWords(ctx context.Context, words []model.Word) error {
	if len(words) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(words, 100).Error
}

func (r *ContentRepository) CreateSentences(ctx context.Context, sentences []model.Sentence) error {
	if len(sentences) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(sentences, 100).Error
}

func (r *ContentRepository) SaveWord(ctx context.Context, word *model.Word) error {
	return r.DB.WithContext(ctx).Save(word).Error
}

func (r *ContentRepository) SaveSentence(ctx context.Context, sentence *model.Sentence) error {
	return r.DB.WithContext(ctx).Save(sentence).Error
}

func (r *ContentRepository) DeleteWord(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&model.Word{}, id)
	return res.RowsAffected, res.Error
}

func (r *ContentRepository) DeleteSentence(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&model.Sentence{}, id)
	return res.RowsAffected, res.Error
}
