// Package report writes local study history to spreadsheet workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/lingo/internal/store"
)

const (
	mistakesSheet = "Mistakes"
	lessonsSheet  = "Lessons"
)

// Workbook is the data exported by WriteMistakes.
type Workbook struct {
	Mistakes []store.Mistake
	Stats    []store.AnswerStats
}

// WriteMistakes writes a workbook with one sheet of missed sentences and
// one sheet of per-lesson accuracy.
func WriteMistakes(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DBEAFE"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	if err != nil {
		return fmt.Errorf("percent style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", mistakesSheet); err != nil {
		return err
	}
	rows := [][]any{{"Lesson", "Sentence", "Prompt", "Correct answer", "Times missed", "Last answer"}}
	for _, m := range wb.Mistakes {
		rows = append(rows, []any{m.LessonID, m.SentenceID, m.Prompt, m.Expected, m.Wrong, m.LastGiven})
	}
	if err := writeRows(f, mistakesSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(mistakesSheet, "A1", "F1", header); err != nil {
		return err
	}
	if err := f.SetColWidth(mistakesSheet, "C", "D", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(mistakesSheet, "F", "F", 30); err != nil {
		return err
	}

	if _, err := f.NewSheet(lessonsSheet); err != nil {
		return err
	}
	rows = [][]any{{"Lesson", "Answers", "Correct", "Sentences", "Accuracy"}}
	for _, st := range wb.Stats {
		rows = append(rows, []any{st.LessonID, st.Attempts, st.Correct, st.Sentences, st.Accuracy})
	}
	if err := writeRows(f, lessonsSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(lessonsSheet, "A1", "E1", header); err != nil {
		return err
	}
	if len(wb.Stats) > 0 {
		last, _ := excelize.CoordinatesToCellName(5, len(wb.Stats)+1)
		if err := f.SetCellStyle(lessonsSheet, "E2", last, percent); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
