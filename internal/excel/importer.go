// Package excel imports lesson word lists from spreadsheets into the catalog.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/vocolatin/pkg/models"
)

// WordStore receives imported words.
type WordStore interface {
	// Upsert stores word and reports whether it was newly created. An
	// existing word keeps its position.
	Upsert(ctx context.Context, word *models.CatalogWord) (bool, error)
	// MaxPosition returns the highest position used in lesson, 0 when empty.
	MaxPosition(ctx context.Context, lesson string) (int, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	WordColumn               string // Column with the word
	TranslationColumn        string // Column with the translation
	PartOfSpeechColumn       string // Column with the part of speech
	ExampleColumn            string // Column with the example sentence
	ExampleTranslationColumn string // Column with the example translation
	NotesColumn              string
	LessonColumn             string // Column with the lesson; empty cells use the current lesson
	ImageColumn              string // Column with an image URL
	PronunciationColumn      string // Column with an audio URL
	SheetName                string // Name of the sheet to import, first sheet when empty
	StartRow                 int    // The row to start importing from (1-based index)
	DefaultLesson            string // Lesson used until a lesson header row or lesson cell says otherwise
	// A row with only its first cell filled starts a lesson when that cell
	// begins with one of these prefixes, case-insensitively.
	LessonHeaderPrefixes []string
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:               "A",
		TranslationColumn:        "B",
		PartOfSpeechColumn:       "C",
		ExampleColumn:            "D",
		ExampleTranslationColumn: "E",
		NotesColumn:              "F",
		LessonColumn:             "G",
		ImageColumn:              "H",
		PronunciationColumn:      "I",
		StartRow:                 2, // By default, start from the second row (skip header)
		DefaultLesson:            "Lektion 1",
		LessonHeaderPrefixes:     []string{"Lektion", "Lesson"},
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Lessons        []string // Lessons touched, in file order
	Errors         []string
}

func (r *ImportResult) touch(lesson string) {
	for _, l := range r.Lessons {
		if l == lesson {
			return
		}
	}
	r.Lessons = append(r.Lessons, lesson)
}

// Importer writes spreadsheet rows to a WordStore.
type Importer struct {
	store WordStore
	log   *slog.Logger
}

// NewImporter creates an importer writing to store.
func NewImporter(store WordStore, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{store: store, log: log}
}

// ImportFile imports words from an Excel or CSV file, chosen by extension
func (im *Importer) ImportFile(ctx context.Context, path string, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return im.ImportCSV(ctx, file, config)
	}
	return im.ImportExcel(ctx, file, config)
}

// ImportExcel imports words from an xlsx workbook
func (im *Importer) ImportExcel(ctx context.Context, r io.Reader, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return im.importRows(ctx, rows, config)
}

// ImportCSV imports words from CSV data using the same column layout as Excel
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, config ImportConfig) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return im.importRows(ctx, rows, config)
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, config ImportConfig) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	currentLesson := config.DefaultLesson
	if currentLesson == "" {
		currentLesson = "Lektion 1"
	}
	positions := make(map[string]int)

	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// "Lektion 3,," starts a lesson
		if lesson, ok := lessonHeader(row, config.LessonHeaderPrefixes); ok {
			currentLesson = lesson
			continue
		}

		if isBlank(row) {
			continue
		}

		result.TotalProcessed++

		word, err := parseRow(row, config, currentLesson)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		last, seen := positions[word.Lesson]
		if !seen {
			// New words go after the ones already in the lesson
			highest, err := im.store.MaxPosition(ctx, word.Lesson)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
				continue
			}
			last = highest
			positions[word.Lesson] = last
		}
		word.Position = last + 1

		created, err := im.store.Upsert(ctx, word)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if created {
			positions[word.Lesson] = word.Position
			result.Created++
		} else {
			result.Updated++
		}
		result.touch(word.Lesson)
	}

	im.log.Info("import finished",
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

// parseRow builds a catalog word from a spreadsheet row
func parseRow(row []string, config ImportConfig, currentLesson string) (*models.CatalogWord, error) {
	word, extra := cleanWord(cell(row, config.WordColumn))
	translation := strings.TrimSpace(cell(row, config.TranslationColumn))

	if word == "" {
		return nil, fmt.Errorf("word cannot be empty")
	}
	if translation == "" {
		return nil, fmt.Errorf("translation cannot be empty")
	}

	notes := strings.TrimSpace(cell(row, config.NotesColumn))
	if extra != "" {
		// Principal parts written next to the headword, "amo (amare, amavi)"
		if notes == "" {
			notes = extra
		} else {
			notes = extra + "; " + notes
		}
	}

	lesson := strings.TrimSpace(cell(row, config.LessonColumn))
	if lesson == "" {
		lesson = currentLesson
	}

	return &models.CatalogWord{
		Lesson:        lesson,
		Image:         strings.TrimSpace(cell(row, config.ImageColumn)),
		Pronunciation: strings.TrimSpace(cell(row, config.PronunciationColumn)),
		WordRecord: models.WordRecord{
			Word:               word,
			Translation:        translation,
			PartOfSpeech:       strings.TrimSpace(cell(row, config.PartOfSpeechColumn)),
			ExampleSentence:    strings.TrimSpace(cell(row, config.ExampleColumn)),
			ExampleTranslation: strings.TrimSpace(cell(row, config.ExampleTranslationColumn)),
			Notes:              notes,
		},
	}, nil
}

// cleanWord splits "amo (amare, amavi)" into the headword and the text in brackets
func cleanWord(word string) (string, string) {
	word = strings.TrimSpace(word)
	open := strings.Index(word, "(")
	if open <= 0 {
		return word, ""
	}
	extra := strings.TrimSpace(word[open+1:])
	extra = strings.TrimSpace(strings.TrimSuffix(extra, ")"))
	return strings.TrimSpace(word[:open]), extra
}

func lessonHeader(row []string, prefixes []string) (string, bool) {
	if len(row) == 0 {
		return "", false
	}
	first := strings.Trim(strings.TrimSpace(row[0]), "\"")
	if first == "" {
		return "", false
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return "", false
		}
	}
	lower := strings.ToLower(first)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return first, true
		}
	}
	return "", false
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
