// Package report renders the catalog inventory as an Excel workbook.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
	"github.com/p-n-ai/teaching-torch/internal/upload"
)

// Sheet names, in workbook order.
const (
	SheetSummary   = "Summary"
	SheetTextbooks = "Textbooks"
	SheetPapers    = "Papers"
	SheetNotes     = "Notes"
	SheetVideos    = "Videos"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = map[string][]any{
	SheetSummary:   {"Metric", "Value"},
	SheetTextbooks: {"Grade", "Subject", "Language", "Filename", "Size", "Uploaded"},
	SheetPapers:    {"Grade", "Subject", "Category", "Language", "School", "Filename", "Size", "Uploaded"},
	SheetNotes:     {"Grade", "Subject", "Chapter", "Language", "Filename", "Size", "Uploaded"},
	SheetVideos:    {"Grade", "Subject", "Chapter", "Language", "Title", "URL", "Added"},
}

// Filename returns the attachment name for an inventory generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("teaching-torch-inventory-%s.xlsx", t.UTC().Format("2006-01-02"))
}

// WriteInventory writes one row per stored item, grouped by kind, plus a
// summary sheet built from stats.
func WriteInventory(w io.Writer, root *catalog.Root, stats catalog.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	inv := &inventory{f: f, rows: map[string]int{}}
	if err := inv.setup(); err != nil {
		return err
	}

	inv.add(SheetSummary, "Site name", root.Settings.SiteName)
	inv.add(SheetSummary, "Total grades", stats.TotalGrades)
	inv.add(SheetSummary, "Total subjects", stats.TotalSubjects)
	inv.add(SheetSummary, "Total resources", stats.TotalResources)
	inv.add(SheetSummary, "Total videos", stats.TotalVideos)
	for _, l := range catalog.Languages {
		inv.add(SheetSummary, l.DisplayName(), stats.LanguageBreakdown[l])
	}

	for _, gid := range root.Grades.Keys() {
		g, _ := root.Grades.Get(gid)
		for _, sid := range root.Subjects.Keys() {
			sub, _ := root.Subjects.Get(sid)
			if b, ok := root.Resources[gid][sid]; ok {
				inv.bundle(g.Display, sub.Name, b)
			}
			for _, v := range root.Videos[gid][sid] {
				inv.add(SheetVideos, g.Display, sub.Name, v.Chapter, string(v.Language), v.Title, v.URL, date(v.AddedDate))
			}
		}
	}

	if inv.err != nil {
		return inv.err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

type inventory struct {
	f    *excelize.File
	rows map[string]int
	err  error
}

func (inv *inventory) setup() error {
	if err := inv.f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	bold, err := inv.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetTextbooks, SheetPapers, SheetNotes, SheetVideos} {
		if name != SheetSummary {
			if _, err := inv.f.NewSheet(name); err != nil {
				return fmt.Errorf("creating sheet %s: %w", name, err)
			}
		}
		inv.add(name, headers[name]...)
		if err := inv.f.SetRowStyle(name, 1, 1, bold); err != nil {
			return fmt.Errorf("styling sheet %s: %w", name, err)
		}
	}
	return inv.err
}

func (inv *inventory) bundle(grade, subject string, b catalog.Bundle) {
	for _, l := range catalog.Languages {
		if tb, ok := b.Textbooks[l]; ok {
			inv.add(SheetTextbooks, grade, subject, string(l), tb.Filename, upload.FormatSize(tb.Size), date(tb.UploadDate))
		}
	}
	for _, c := range b.Papers.Categories() {
		for _, p := range b.Papers.List(c) {
			inv.add(SheetPapers, grade, subject, c.Label(), string(p.Language), p.School, p.Filename, upload.FormatSize(p.Size), date(p.UploadDate))
		}
	}

	keys := make([]catalog.NoteKey, 0, len(b.Notes))
	for k := range b.Notes {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b catalog.NoteKey) int {
		if a.Chapter != b.Chapter {
			return cmp.Compare(a.Chapter, b.Chapter)
		}
		return cmp.Compare(string(a.Language), string(b.Language))
	})
	for _, k := range keys {
		n := b.Notes[k]
		inv.add(SheetNotes, grade, subject, n.Chapter, string(n.Language), n.Filename, upload.FormatSize(n.Size), date(n.UploadDate))
	}
}

// add appends a row to sheet. The first error sticks.
func (inv *inventory) add(sheet string, values ...any) {
	if inv.err != nil {
		return
	}
	inv.rows[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, inv.rows[sheet])
	if err != nil {
		inv.err = err
		return
	}
	if err := inv.f.SetSheetRow(sheet, cell, &values); err != nil {
		inv.err = fmt.Errorf("writing %s row %d: %w", sheet, inv.rows[sheet], err)
	}
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
