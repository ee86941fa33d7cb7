// Package export renders a teacher's conference schedule as PDF.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/elternsprechtag/internal/model"
)

var columns = []struct {
	title string
	width float64
}{
	{"Datum", 24},
	{"Uhrzeit", 30},
	{"Status", 24},
	{"Besucher", 50},
	{"Klasse", 18},
	{"E-Mail", 44},
}

// SchedulePDF lists the booked slots of teacher in one table, one row per
// slot, in the order given.
func SchedulePDF(teacher model.Teacher, slots []model.Slot, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Elternsprechtag "+teacher.Name), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Elternsprechtag: "+teacher.Name))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)
	info := fmt.Sprintf("Raum %s, erstellt am %s", orDash(teacher.Room), generated.Format("02.01.2006 15:04"))
	pdf.Cell(0, 6, tr(info))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, tr(col.title), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if len(slots) == 0 {
		pdf.CellFormat(190, 7, tr("Keine gebuchten Termine"), "1", 1, "C", false, 0, "")
	}
	for _, s := range slots {
		v := s.Visitor()
		cells := []string{germanDate(s.Date), s.Time, statusLabel(s), visitorLabel(v), orDash(v.ClassName), orDash(v.Email)}
		for i, text := range cells {
			pdf.CellFormat(columns[i].width, 7, tr(text), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render schedule: %w", err)
	}
	return buf.Bytes(), nil
}

func statusLabel(s model.Slot) string {
	switch {
	case s.IsConfirmed():
		return "bestätigt"
	case s.VerifiedAt != nil:
		return "verifiziert"
	case s.Booked:
		return "reserviert"
	}
	return "frei"
}

func visitorLabel(v model.Visitor) string {
	name := v.DisplayName()
	switch {
	case v.Type == model.VisitorParent && v.StudentName != nil:
		name += " (" + *v.StudentName + ")"
	case v.Type == model.VisitorCompany && v.TraineeName != nil:
		name += " (" + *v.TraineeName + ")"
	}
	return orDash(name)
}

func germanDate(d string) string {
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		return d
	}
	return t.Format("02.01.2006")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
