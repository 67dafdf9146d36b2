package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/agroview/agroview/internal/models"
)

// Generator renders stored analyses as A4 PDF reports.
// Layout follows the platform report: header, sample info, result cards,
// defect breakdown table and a generation footer.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(analysis models.Analysis) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Core fonts are cp1252, translate the Portuguese labels
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerGreen := func() { pdf.SetTextColor(44, 85, 48) }
	body := func() { pdf.SetTextColor(51, 51, 51) }

	// Header
	headerGreen()
	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 10, "AgroView", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 14)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 8, tr("Relatório de Análise de Grãos"), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(44, 85, 48)
	pdf.SetLineWidth(0.6)
	pdf.Line(20, pdf.GetY()+2, 190, pdf.GetY()+2)
	pdf.Ln(8)

	// Sample info
	headerGreen()
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, tr("Informações da Análise"), "", 1, "L", false, 0, "")
	body()
	pdf.SetFont("Arial", "", 11)
	info := [][2]string{
		{"Identificador", analysis.ID.String()},
		{tr("Tipo de Grão"), tr(analysis.GrainType)},
		{"Data", analysis.CreatedAt.Format("02/01/2006 15:04")},
	}
	for _, row := range info {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Result cards
	headerGreen()
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "Resultados", "", 1, "L", false, 0, "")
	body()
	results := [][2]string{
		{tr("Total de Grãos"), fmt.Sprintf("%d", analysis.TotalGrains)},
		{tr("Grãos Saudáveis"), fmt.Sprintf("%d", analysis.HealthyGrains)},
		{tr("Grãos Defeituosos"), fmt.Sprintf("%d", analysis.DefectiveGrains)},
		{"Pureza", analysis.PurityPercentage.StringFixed(2) + "%"},
		{"Impureza", analysis.ImpurityPercentage.StringFixed(2) + "%"},
	}
	pdf.SetFont("Arial", "", 11)
	for _, row := range results {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(45, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Defects breakdown table
	headerGreen()
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "Defeitos por Categoria", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(249, 249, 249)
	body()
	pdf.CellFormat(85, 8, "Categoria", "1", 0, "L", true, 0, "")
	pdf.CellFormat(85, 8, "Quantidade", "1", 1, "R", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	defects := [][2]string{
		{"Quebrados", fmt.Sprintf("%d", analysis.DefectsBreakdown.Broken)},
		{"Danificados", fmt.Sprintf("%d", analysis.DefectsBreakdown.Damaged)},
		{"Descoloridos", fmt.Sprintf("%d", analysis.DefectsBreakdown.Discolored)},
		{tr("Matéria Estranha"), fmt.Sprintf("%d", analysis.DefectsBreakdown.ForeignMatter)},
	}
	for _, row := range defects {
		pdf.CellFormat(85, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(85, 8, row[1], "1", 1, "R", false, 0, "")
	}

	// Footer
	pdf.SetY(-35)
	pdf.SetFont("Arial", "I", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Relatório gerado em %s", time.Now().Format("02/01/2006 15:04"))), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error while rendering pdf. Err: %w", err)
	}

	return buf.Bytes(), nil
}
