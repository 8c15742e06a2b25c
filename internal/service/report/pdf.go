package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/jwalitptl/collabcare-api/internal/model"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
	bodyFont   = "Helvetica"
)

// document is a single-column A4 report with section headers.
type document struct {
	pdf *fpdf.Fpdf
	tr    func(string) string
	width float64
}

func newDocument(title string) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("collabcare-api", true)

	w, _ := pdf.GetPageSize()
	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), width: w - 2*pageMargin}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin)
		pdf.SetFont(bodyFont, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, lineHeight, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return d
}

// banner writes the title block with the patient's identity.
func (d *document) banner(title string, patient *model.Patient, clinic string, date model.Date) {
	p := d.pdf
	p.SetFillColor(230, 240, 250)
	p.SetTextColor(20, 60, 110)
	p.SetFont(bodyFont, "B", 16)
	p.CellFormat(d.width, 10, d.tr(title), "", 1, "L", true, 0, "")

	p.SetTextColor(0, 0, 0)
	p.SetFont(bodyFont, "B", 11)
	p.CellFormat(d.width/2, lineHeight+1, d.tr(patient.FullName()), "", 0, "L", true, 0, "")
	p.SetFont(bodyFont, "", 11)
	p.CellFormat(d.width/2, lineHeight+1, d.tr("Clinic: "+orNA(clinic)), "", 1, "L", true, 0, "")
	p.CellFormat(d.width/2, lineHeight+1, d.tr("MRN: "+orNA(patient.MRN)), "", 0, "L", true, 0, "")
	p.CellFormat(d.width/2, lineHeight+1, "Date: "+longDate(date), "", 1, "L", true, 0, "")
	p.Ln(4)
}

func (d *document) section(title string) {
	p := d.pdf
	p.Ln(3)
	p.SetFont(bodyFont, "B", 13)
	p.SetTextColor(20, 60, 110)
	p.CellFormat(d.width, lineHeight+2, d.tr(title), "B", 1, "L", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.Ln(1)
}

func (d *document) field(label, value string) {
	p := d.pdf
	p.SetFont(bodyFont, "B", 10)
	p.CellFormat(55, lineHeight, d.tr(label+":"), "", 0, "L", false, 0, "")
	p.SetFont(bodyFont, "", 10)
	p.MultiCell(d.width-55, lineHeight, d.tr(orNA(value)), "", "L", false)
}

// list writes one bullet per item, or empty when there are none.
func (d *document) list(items []string, empty string) {
	p := d.pdf
	p.SetFont(bodyFont, "", 10)
	if len(items) == 0 {
		p.SetTextColor(110, 110, 110)
		p.MultiCell(d.width, lineHeight, d.tr(empty), "", "L", false)
		p.SetTextColor(0, 0, 0)
		return
	}
	for _, item := range items {
		p.MultiCell(d.width, lineHeight, d.tr("- "+item), "", "L", false)
	}
}

func (d *document) paragraph(text, empty string) {
	if strings.TrimSpace(text) == "" {
		d.list(nil, empty)
		return
	}
	d.pdf.SetFont(bodyFont, "", 10)
	d.pdf.MultiCell(d.width, lineHeight, d.tr(text), "", "L", false)
}

// clinical writes the history sections shared by intake and safety plan documents.
func (d *document) clinical(c *model.ClinicalSections) {
	d.section("Current Symptoms")
	d.list(humanized(c.Symptoms.Selected()), "No symptoms reported")
	if c.ColumbiaSuicideSeverity != nil {
		d.field("Columbia Suicide Severity", *c.ColumbiaSuicideSeverity)
	}
	if c.AnxietyPanicAttacks != nil {
		d.field("Anxiety or Panic Attacks", *c.AnxietyPanicAttacks)
	}

	d.section("Past Mental Health History")
	d.list(humanized(c.PastMentalHealth.Selected()), "No past mental health history reported")
	if c.PsychiatricHospitalizations != nil {
		d.field("Psychiatric Hospitalizations", *c.PsychiatricHospitalizations)
	}

	d.section("Substance Use")
	d.list(c.SubstanceUse.Reported(), "No substance use reported")

	d.section("Medical History")
	d.list(humanized(c.MedicalHistory.Selected()), "No medical history reported")
	if c.OtherMedicalHistory != nil {
		d.field("Other", *c.OtherMedicalHistory)
	}

	d.section("Family Mental Health History")
	d.list(humanized(c.FamilyMentalHealth.Selected()), "No family history reported")

	d.section("Social Situation")
	d.list(c.SocialSituation.Answered(), "No social situation details reported")

	d.section("Medications")
	d.field("Current", deref(c.CurrentMedications))
	d.field("Past", deref(c.PastMedications))

	d.section("Narrative")
	d.paragraph(deref(c.Narrative), "No narrative provided")
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func humanized(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = model.HumanizeKey(k)
	}
	return out
}

func longDate(d model.Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return d.Format("January 2, 2006")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
