package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/munthasirdevs/lead-scraping-automation/internal/config"
	"github.com/munthasirdevs/lead-scraping-automation/internal/leads"
)

func TestWriteRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "leads.xlsx")
	w := NewExcelWriter(config.ExportConfig{OutputFile: out, SheetName: "Leads"}, nil)

	list := []leads.Lead{
		{BusinessName: "Acme Plumbing", PhoneNumber: "(312) 555-0142", Website: "https://acmeplumbing.com", Email: "info@acmeplumbing.com", Source: leads.SourceGoogle},
		{BusinessName: "Sushi Bar", Address: "123 Main St, Chicago, IL 60601"},
	}
	if err := w.Write(list); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Leads", "A1")
	if err != nil || got != "Business Name" {
		t.Errorf("A1 = %q (err %v), want header", got, err)
	}
	got, _ = f.GetCellValue("Leads", "E2")
	if got != "info@acmeplumbing.com" {
		t.Errorf("E2 = %q", got)
	}
	got, _ = f.GetCellValue("Leads", "D3")
	if got != "123 Main St, Chicago, IL 60601" {
		t.Errorf("D3 = %q", got)
	}
}

func TestWriteEmptyListStillWritesHeader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.xlsx")
	w := NewExcelWriter(config.ExportConfig{OutputFile: out}, nil)

	if err := w.Write(nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Leads")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}
