// Package export renders the task collection as CSV, XLSX, JSON or PDF. Exports are
// read-only snapshots in display order and never touch the persisted document.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/MihkelHunter/kaamtamam/internal/todo"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
	FormatPDF  = "pdf"
)

// Formats lists every supported format name.
var Formats = []string{FormatCSV, FormatXLSX, FormatJSON, FormatPDF}

// Header is the column order shared by the tabular formats.
var Header = []string{"ID", "Title", "Done", "Priority", "Due", "Created"}

// SheetName is the single sheet of an XLSX export.
const SheetName = "Tasks"

// Source is what an Exporter reads from; *todo.Store satisfies it.
type Source interface {
	Tasks() []todo.Task
	NextID() int
}

type Exporter struct{ src Source }

func NewExporter(src Source) *Exporter { return &Exporter{src: src} }

// Export renders the current tasks in format.
func (e *Exporter) Export(format string) ([]byte, error) {
	return render(format, e.src.Tasks(), e.src.NextID())
}

// ExportAll writes one file per format into dir, named by FileName, rendering the
// formats concurrently from a single snapshot. It returns the written paths in
// the order of formats.
func (e *Exporter) ExportAll(ctx context.Context, dir string, formats []string) ([]string, error) {
	tasks, nextID := e.src.Tasks(), e.src.NextID()
	paths := make([]string, len(formats))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, format := range formats {
		eg.Go(func() error {
			b, err := render(format, tasks, nextID)
			if err != nil {
				return err
			}
			if err := egCtx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, FileName(format))
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func render(format string, tasks []todo.Task, nextID int) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return todo.EncodeDocument(tasks, nextID)
	case FormatCSV:
		return CSV(tasks)
	case FormatXLSX:
		return XLSX(tasks)
	case FormatPDF:
		return PDF(tasks)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

// FileName is the default download name for format.
func FileName(format string) string {
	return "tasks." + strings.ToLower(format)
}

// Row renders t with the column mapping of Header.
func Row(t todo.Task) []string {
	due := ""
	if t.HasDue() {
		due = t.Due.String()
	}
	return []string{
		strconv.Itoa(t.ID),
		t.Title,
		boolString(t.Done),
		t.Priority.Label(),
		due,
		t.Created,
	}
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func CSV(tasks []todo.Task) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	w.UseCRLF = true
	_ = w.Write(Header)
	for _, t := range tasks {
		_ = w.Write(Row(t))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func XLSX(tasks []todo.Task) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}
	for i, t := range tasks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := Row(t)
		values := []any{t.ID, t.Title, t.Done, row[3], row[4], row[5]}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pdfWidths = []float64{14, 130, 18, 22, 28, 45}

func PDF(tasks []todo.Task) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Tasks", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 10)
		for i, h := range Header {
			pdf.CellFormat(pdfWidths[i], 7, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
	})
	pdf.AddPage()
	for _, t := range tasks {
		for i, v := range Row(t) {
			pdf.CellFormat(pdfWidths[i], 6, fit(pdf, tr(v), pdfWidths[i]-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit shortens s until it renders within width in the current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
