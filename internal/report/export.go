package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"Name",
	"Employee ID",
	"Email",
	"First Name",
	"Last Name",
	"Phone Number",
	"Gender",
	"State",
	"City",
	"Process Allocated",
	"Designation",
	"Father Name",
	"Address",
	"Qualification",
	"Date of Birth",
	"Score",
	"Percentage",
	"Status",
	"Date",
}

func exportRow(rec AttemptRecord) []string {
	dob := ""
	if rec.DateOfBirth != nil {
		dob = rec.DateOfBirth.Format("2006-01-02")
	}
	status := "Not Qualified"
	if rec.Qualified {
		status = "Qualified"
	}
	return []string{
		orNA(rec.FullName),
		orNA(rec.EmpID),
		orNA(rec.Email),
		orNA(rec.FirstName),
		orNA(rec.LastName),
		orNA(rec.PhoneNumber),
		orNA(rec.Gender),
		orNA(rec.State),
		orNA(rec.City),
		orNA(rec.ProcessAllocated),
		orNA(rec.Designation),
		orNA(rec.FatherName),
		orNA(rec.Address),
		orNA(rec.Qualification),
		orNA(dob),
		strconv.Itoa(rec.Score),
		strconv.Itoa(rec.Percentage),
		status,
		rec.CompletedAt.Format("2006-01-02 15:04:05"),
	}
}

// ExportAttemptsCSV renders the full joined attempt list as CSV.
func (s *Service) ExportAttemptsCSV(ctx context.Context) ([]byte, error) {
	records, err := s.ListAttemptRecords(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(exportRow(rec)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportAttemptsExcel renders the same listing as an XLSX workbook.
func (s *Service) ExportAttemptsExcel(ctx context.Context) ([]byte, error) {
	records, err := s.ListAttemptRecords(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, rec := range records {
		row := i + 2
		for col, v := range exportRow(rec) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "S", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
