package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/util"
	"kiriboka_backend/pkg/logger"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportResult 批量导入结果，Errors 中的行号从 1 开始
type ImportResult struct {
	Kind      model.ItemKind `json:"kind"`
	Processed int            `json:"processed"`
	Created   int            `json:"created"`
	Skipped   int            `json:"skipped"`
	Errors    []string       `json:"errors"`
}

// 列顺序：text, translation, level, day[, reading]
const (
	colText = iota
	colTranslation
	colLevel
	colDay
	colReading
)

// Import 从 .xlsx 或 .csv 导入单词或句子。首行如果是表头（第一列为 text）会被跳过。
// 非法行记录到 Errors，合法行在一个事务内写入。
func (s *ContentService) Import(ctx context.Context, kind model.ItemKind, filename string, r io.Reader) (*ImportResult, error) {
	if kind != model.KindWord && kind != model.KindSentence {
		return nil, fmt.Errorf("%w: unknown kind %q", util.ErrValidation, kind)
	}

	rows, err := readRows(filename, r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Kind: kind, Errors: []string{}}
	var words []model.Word
	var sentences []model.Sentence

	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[colText]), "text") {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.Processed++

		level, day, err := parseLevelDay(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		switch kind {
		case model.KindWord:
			in := WordInput{Text: cell(row, colText), Translation: cell(row, colTranslation), Reading: cell(row, colReading), Level: level, Day: day}
			in.normalize()
			if err := s.check(&in); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			words = append(words, model.Word{Text: in.Text, Reading: in.Reading, Translation: in.Translation, Level: in.Level, Day: in.Day})
		case model.KindSentence:
			in := SentenceInput{Text: cell(row, colText), Translation: cell(row, colTranslation), Level: level, Day: day}
			in.normalize()
			if err := s.check(&in); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			sentences = append(sentences, model.Sentence{Text: in.Text, Translation: in.Translation, Level: in.Level, Day: in.Day})
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ContentRepo.WithTx(tx)
		if err := repo.CreateWords(ctx, words); err != nil {
			return err
		}
		return repo.CreateSentences(ctx, sentences)
	})
	if err != nil {
		return nil, err
	}
	result.Created = len(words) + len(sentences)

	logger.Log.Info("content imported",
		zap.String("kind", string(kind)),
		zap.String("file", filename),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func readRows(filename string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %v", util.ErrValidation, err)
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid xlsx: %v", util.ErrValidation, err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid xlsx: %v", util.ErrValidation, err)
		}
		return rows, nil
	default:
		return nil, util.ErrUnsupportedFile
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseLevelDay(row []string) (int, int, error) {
	parse := func(name, v string) (int, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", name, v)
		}
		return n, nil
	}
	level, err := parse("level", cell(row, colLevel))
	if err != nil {
		return 0, 0, err
	}
	day, err := parse("day", cell(row, colDay))
	if err != nil {
		return 0, 0, err
	}
	return level, day, nil
}
