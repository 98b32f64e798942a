package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Flows"

var exportHeader = []string{"Flow", "Step", "Name", "Mode", "URL", "Fetched", "Scores"}

// WriteXLSX writes a spreadsheet summary of the given flow results, one row
// per step, to path.
func WriteXLSX(path string, results []*FlowResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no flow results to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			return err
		}
	}

	row := 2
	for _, result := range results {
		for i, step := range result.Steps {
			mode, url, fetched, scores := "", "", "", ""
			if step.LHR != nil {
				mode = string(step.LHR.GatherMode)
				url = step.LHR.FinalDisplayedURL
				if !step.LHR.FetchTime.IsZero() {
					fetched = step.LHR.FetchTime.Format("2006-01-02 15:04:05")
				}
				scores = formatScores(step.LHR.Categories)
			}
			values := []any{result.Name, i + 1, step.Name, mode, url, fetched, scores}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(exportSheet, cell, v); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
