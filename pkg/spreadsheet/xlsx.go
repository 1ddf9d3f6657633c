// Package spreadsheet builds .xlsx downloads.
package spreadsheet

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetName   = "Sheet1"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Table builds a one sheet workbook with a bold header row.
func Table(headers []string, rows [][]interface{}) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, err
		}
	}
	if len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			f.Close()
			return nil, err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(headers))
		if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
			f.Close()
			return nil, err
		}
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	return f, nil
}

// Write streams f as an attachment and closes it.
func Write(c *gin.Context, f *excelize.File, filename string, log *zap.Logger) {
	defer f.Close()

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(c.Writer); err != nil {
		if log != nil {
			log.Error("Failed to write workbook", zap.String("file", filename), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate file"})
	}
}

// Rows reads the first sheet of a workbook.
func Rows(f *excelize.File) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}
	return f.GetRows(sheets[0])
}
