package service

import (
	"context"
	"errors"
	"fmt"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/util"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ContentService 单词/句子目录的查询和管理
type ContentService struct {
	DB          *gorm.DB
	ContentRepo *repository.ContentRepository
	Validate    *validator.Validate
}

func NewContentService(db *gorm.DB, contentRepo *repository.ContentRepository) *ContentService {
	return &ContentService{
		DB:          db,
		ContentRepo: contentRepo,
		Validate:    validator.New(),
	}
}

// WordInput 管理端和导入共用的单词字段
type WordInput struct {
	Text        string `json:"text" validate:"required,max=255"`
	Reading     string `json:"reading" validate:"max=255"`
	Translation string `json:"translation" validate:"max=255"`
	Level       int    `json:"level" validate:"min=1,max=100"`
	Day         int    `json:"day" validate:"min=1"`
}

type SentenceInput struct {
	Text        string `json:"text" validate:"required,max=2000"`
	Translation string `json:"translation" validate:"max=2000"`
	Level       int    `json:"level" validate:"min=1,max=100"`
	Day         int    `json:"day" validate:"min=1"`
}

func (in *WordInput) normalize() {
	in.Text = strings.TrimSpace(in.Text)
	in.Reading = strings.TrimSpace(in.Reading)
	in.Translation = strings.TrimSpace(in.Translation)
	if in.Level == 0 {
		in.Level = 1
	}
	if in.Day == 0 {
		in.Day = 1
	}
}

func (in *SentenceInput) normalize() {
	in.Text = strings.TrimSpace(in.Text)
	in.Translation = strings.TrimSpace(in.Translation)
	if in.Level == 0 {
		in.Level = 1
	}
	if in.Day == 0 {
		in.Day = 1
	}
}

func (s *ContentService) check(v interface{}) error {
	if err := s.Validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", util.ErrValidation, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrItemNotFound
	}
	return err
}

func (s *ContentService) ListWords(ctx context.Context, filter repository.ContentFilter) ([]model.Word, error) {
	words, err := s.ContentRepo.ListWords(ctx, filter)
	if words == nil && err == nil {
		words = []model.Word{}
	}
	return words, err
}

func (s *ContentService) ListSentences(ctx context.Context, filter repository.ContentFilter) ([]model.Sentence, error) {
	sentences, err := s.ContentRepo.ListSentences(ctx, filter)
	if sentences == nil && err == nil {
		sentences = []model.Sentence{}
	}
	return sentences, err
}

func (s *ContentService) CreateWord(ctx context.Context, in WordInput) (*model.Word, error) {
	in.normalize()
	if err := s.check(&in); err != nil {
		return nil, err
	}
	word := &model.Word{Text: in.Text, Reading: in.Reading, Translation: in.Translation, Level: in.Level, Day: in.Day}
	if err := s.ContentRepo.SaveWord(ctx, word); err != nil {
		return nil, err
	}
	return word, nil
}

func (s *ContentService) UpdateWord(ctx context.Context, id uint, in WordInput) (*model.Word, error) {
	in.normalize()
	if err := s.check(&in); err != nil {
		return nil, err
	}
	word, err := s.ContentRepo.FindWord(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	word.Text, word.Reading, word.Translation = in.Text, in.Reading, in.Translation
	word.Level, word.Day = in.Level, in.Day
	if err := s.ContentRepo.SaveWord(ctx, word); err != nil {
		return nil, err
	}
	return word, nil
}

func (s *ContentService) DeleteWord(ctx context.Context, id uint) error {
	n, err := s.ContentRepo.DeleteWord(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return util.ErrItemNotFound
	}
	return nil
}

func (s *ContentService) CreateSentence(ctx context.Context, in SentenceInput) (*model.Sentence, error) {
	in.normalize()
	if err := s.check(&in); err != nil {
		return nil, err
	}
	sentence := &model.Sentence{Text: in.Text, Translation: in.Translation, Level: in.Level, Day: in.Day}
	if err := s.ContentRepo.SaveSentence(ctx, sentence); err != nil {
		return nil, err
	}
	return sentence, nil
}

func (s *ContentService) UpdateSentence(ctx context.Context, id uint, in SentenceInput) (*model.Sentence, error) {
	in.normalize()
	if err := s.check(&in); err != nil {
		return nil, err
	}
	sentence, err := s.ContentRepo.FindSentence(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	sentence.Text, sentence.Translation = in.Text, in.Translation
	sentence.Level, sentence.Day = in.Level, in.Day
	if err := s.ContentRepo.SaveSentence(ctx, sentence); err != nil {
		return nil, err
	}
	return sentence, nil
}

func (s *ContentService) DeleteSentence(ctx context.Context, id uint) error {
	n, err := s.ContentRepo.DeleteSentence(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return util.ErrItemNotFound
	}
	return nil
}
