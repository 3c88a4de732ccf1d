package service

import (
	"bytes"
	"context"
	"errors"
	"kiriboka_backend/internal/model"
	"kiriboka_backend/internal/repository"
	"kiriboka_backend/internal/util"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWordCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.content.CreateWord(ctx, WordInput{Text: "  "}); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("blank text should fail validation, got %v", err)
	}

	word, err := env.content.CreateWord(ctx, WordInput{Text: " ねこ ", Reading: "neko", Translation: "cat", Day: 2})
	if err != nil {
		t.Fatalf("CreateWord: %v", err)
	}
	if word.Text != "ねこ" || word.Level != 1 || word.Day != 2 {
		t.Fatalf("unexpected word: %+v", word)
	}

	updated, err := env.content.UpdateWord(ctx, word.ID, WordInput{Text: "いぬ", Translation: "dog", Level: 3, Day: 2})
	if err != nil {
		t.Fatalf("UpdateWord: %v", err)
	}
	if updated.Text != "いぬ" || updated.Level != 3 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	list, err := env.content.ListWords(ctx, repository.ContentFilter{Level: 3})
	if err != nil {
		t.Fatalf("ListWords: %v", err)
	}
	if len(list) != 1 || list[0].ID != word.ID {
		t.Fatalf("unexpected filtered list: %+v", list)
	}
	if list, _ := env.content.ListWords(ctx, repository.ContentFilter{Day: 1}); len(list) != 0 {
		t.Fatalf("day filter returned %d words", len(list))
	}

	if err := env.content.DeleteWord(ctx, word.ID); err != nil {
		t.Fatalf("DeleteWord: %v", err)
	}
	if err := env.content.DeleteWord(ctx, word.ID); !errors.Is(err, util.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := env.content.UpdateWord(ctx, word.ID, WordInput{Text: "x"}); !errors.Is(err, util.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestDeletedWordCannotBeLearned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "alice")
	words := env.seedWords(t, 1)

	if err := env.content.DeleteWord(ctx, words[0].ID); err != nil {
		t.Fatalf("DeleteWord: %v", err)
	}
	if _, err := env.progress.RecordLearned(ctx, user.ID, model.WordRef(words[0].ID)); !errors.Is(err, util.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestImportCSVWords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := strings.Join([]string{
		"text,translation,level,day,reading",
		"ねこ,cat,1,1,neko",
		"いぬ,dog,x,1,inu",
		",empty,1,1,",
		"",
		"とり,bird,,,tori",
	}, "\n")

	res, err := env.content.Import(ctx, model.KindWord, "words.csv", strings.NewReader(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Processed != 4 || res.Created != 2 || res.Skipped != 2 || len(res.Errors) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasPrefix(res.Errors[0], "row 3:") {
		t.Fatalf("unexpected error row: %q", res.Errors[0])
	}

	words, err := env.content.ListWords(ctx, repository.ContentFilter{})
	if err != nil {
		t.Fatalf("ListWords: %v", err)
	}
	if len(words) != 2 || words[0].Reading != "neko" || words[1].Level != 1 || words[1].Day != 1 {
		t.Fatalf("unexpected words: %+v", words)
	}
}

func TestImportXLSXSentences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"text", "translation", "level", "day"},
		{"おはようございます", "Good morning", 1, 1},
		{"ありがとう", "Thank you", 1, 2},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	res, err := env.content.Import(ctx, model.KindSentence, "sentences.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	day2, err := env.content.ListSentences(ctx, repository.ContentFilter{Day: 2})
	if err != nil {
		t.Fatalf("ListSentences: %v", err)
	}
	if len(day2) != 1 || day2[0].Text != "ありがとう" {
		t.Fatalf("unexpected day 2 sentences: %+v", day2)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.content.Import(ctx, model.KindWord, "words.txt", strings.NewReader("a")); !errors.Is(err, util.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
	if _, err := env.content.Import(ctx, "video", "words.csv", strings.NewReader("a")); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := env.content.Import(ctx, model.KindWord, "words.xlsx", strings.NewReader("not a zip")); !errors.Is(err, util.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
