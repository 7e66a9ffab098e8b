// Package export writes the clean lead list to a spreadsheet.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
	"github.com/munthasirdevs/lead-scraping-automation/pkg/logger"
)

var headers = []string{"Business Name", "Phone Number", "Website", "Address", "Email", "Source"}

// ExcelWriter writes leads to an xlsx workbook.
type ExcelWriter struct {
	cfg config.ExportConfig
	log *logger.Logger
}

// NewExcelWriter creates a writer for the configured output file.
func NewExcelWriter(cfg config.ExportConfig, log *logger.Logger) *ExcelWriter {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = "leads_output.xlsx"
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Leads"
	}
	return &ExcelWriter{cfg: cfg, log: log.WithComponent("export")}
}

// Write saves the lead list. An empty list still produces a workbook with a
// header row, so a dry run is distinguishable from a failed one.
func (w *ExcelWriter) Write(list []leads.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := w.cfg.SheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			w.log.Debug("default sheet removal skipped")
		}
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, l := range list {
		values := []string{l.BusinessName, l.PhoneNumber, l.Website, l.Address, l.Email, l.Source}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	if err := f.SaveAs(w.cfg.OutputFile); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.cfg.OutputFile, err)
	}

	w.log.Info("leads exported", "file", w.cfg.OutputFile, "count", len(list))
	return nil
}
