package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"xp-dashboard/internal/chart/render"
	"xp-dashboard/internal/profile/domain"
)

// BuildProfilePDF renders a one-page profile summary with the project ranking.
func BuildProfilePDF(r Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, r.title())
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if r.User.Login != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Login: %s", r.User.Login))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", r.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if len(r.Missing) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Unavailable sections: %s", strings.Join(r.Missing, ", ")))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total XP: %s", render.FormatInt(r.Totals.GrandTotal)))
	pdf.Ln(5)
	for _, c := range domain.AccountedCategories {
		pdf.Cell(0, 6, fmt.Sprintf("%s XP: %s", categoryLabel(c), render.FormatInt(r.Totals.Of(c))))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Audits: %d passed, %d failed (%s%% pass rate)", r.PassFail.Passed, r.PassFail.Failed, render.FormatRate(r.PassFail.PassRate)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Projects completed: %d, exercises completed: %d", r.Audits.ProjectsCompleted, r.Audits.ExercisesCompleted))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(100, 6, "Project", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "XP", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range r.Ranking {
		pdf.CellFormat(100, 6, entry.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, render.FormatInt(entry.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildProfileXLSX renders a workbook with summary, projects and transactions sheets.
func BuildProfileXLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	projectsSheet := "projects"
	transactionsSheet := "transactions"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, sheet := range []string{projectsSheet, transactionsSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	rows := [][2]any{
		{"Login", r.User.Login},
		{"Name", r.User.DisplayName},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{"Total XP", r.Totals.GrandTotal},
	}
	for _, c := range domain.AccountedCategories {
		rows = append(rows, [2]any{categoryLabel(c) + " XP", r.Totals.Of(c)})
	}
	rows = append(rows,
		[2]any{"Passed", r.PassFail.Passed},
		[2]any{"Failed", r.PassFail.Failed},
		[2]any{"Pass Rate (%)", r.PassFail.PassRate},
		[2]any{"Projects Completed", r.Audits.ProjectsCompleted},
		[2]any{"Exercises Completed", r.Audits.ExercisesCompleted},
	)
	_ = f.SetCellValue(summarySheet, "A1", r.title())
	for i, row := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+3), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+3), row[1])
	}

	_ = f.SetCellValue(projectsSheet, "A1", "Project")
	_ = f.SetCellValue(projectsSheet, "B1", "XP")
	for i, entry := range r.Ranking {
		row := i + 2
		_ = f.SetCellValue(projectsSheet, fmt.Sprintf("A%d", row), entry.Name)
		_ = f.SetCellValue(projectsSheet, fmt.Sprintf("B%d", row), entry.Total)
	}

	for i, header := range transactionHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(transactionsSheet, cell, header)
	}
	for i, tx := range r.Transactions {
		row := i + 2
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("A%d", row), tx.Timestamp.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("B%d", row), tx.Amount)
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("C%d", row), string(tx.Category))
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("D%d", row), tx.Path)
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("E%d", row), tx.ObjectID)
		_ = f.SetCellValue(transactionsSheet, fmt.Sprintf("F%d", row), tx.ObjectName)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func categoryLabel(c domain.Category) string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}
