package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
	"github.com/yuditriaji/ruhmrita-backend/pkg/spreadsheet"
)

type ImportHandler struct {
	ledger      *ledger.Ledger
	activity    *activitylog.Logger
	placeholder string
	log         *zap.Logger
}

func NewImportHandler(l *ledger.Ledger, activity *activitylog.Logger, log *zap.Logger, placeholder string) *ImportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportHandler{ledger: l, activity: activity, placeholder: placeholder, log: log}
}

type ImportResult struct {
	TotalRows    int      `json:"total_rows"`
	CreatedCount int      `json:"created_count"`
	UpdatedCount int      `json:"updated_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

type ImportRow struct {
	Line        int
	Name        string
	Type        string
	Price       decimal.Decimal
	Quantity    int
	Tags        []string
	Description string
	ImageURL    string
	Problem     string

	// has lists the fields whose cell was present and non-empty
	has map[string]bool
}

// Has reports whether the row carried a value for field.
func (r ImportRow) Has(field string) bool { return r.has[field] }

var columnAliases = map[string][]string{
	"name":        {"name", "saree name", "saree", "nama"},
	"type":        {"type", "category", "fabric"},
	"price":       {"price", "cost price", "cost"},
	"quantity":    {"quantity", "qty", "stock"},
	"tags":        {"tags"},
	"description": {"description", "notes"},
	"image_url":   {"image_url", "image", "image url"},
}

// ImportExcel handles Excel/CSV file upload for bulk inventory import. Rows whose
// name matches an existing saree update it; the rest are added.
func (h *ImportHandler) ImportExcel(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	var rows []ImportRow
	fileName := strings.ToLower(header.Filename)

	switch {
	case strings.HasSuffix(fileName, ".xlsx"):
		rows, err = parseExcel(file)
	case strings.HasSuffix(fileName, ".csv"):
		rows, err = parseCSV(file)
	default:
		response.Fail(c, http.StatusBadRequest, "Unsupported file format. Please upload .xlsx or .csv")
		return
	}
	if err != nil {
		response.Fail(c, http.StatusBadRequest, fmt.Sprintf("Failed to parse file: %v", err))
		return
	}

	ctx := c.Request.Context()
	items, err := h.ledger.Items(ctx)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	byName := make(map[string]domain.StockItem, len(items))
	for _, it := range items {
		byName[strings.ToLower(it.Name)] = it
	}

	result := ImportResult{TotalRows: len(rows), Errors: []string{}}
	for _, row := range rows {
		if row.Problem != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", row.Line, row.Problem))
			result.FailedCount++
			continue
		}

		in := ledger.ItemInput{
			Name:        row.Name,
			Type:        row.Type,
			Price:       row.Price,
			Quantity:    row.Quantity,
			Tags:        row.Tags,
			Description: row.Description,
		}
		if row.ImageURL != "" {
			in.Images = []string{row.ImageURL}
		}

		if existing, found := byName[strings.ToLower(row.Name)]; found {
			// blank or missing cells keep the current values
			if !row.Has("type") {
				in.Type = existing.Type
			}
			if !row.Has("price") {
				in.Price = existing.Price
			}
			if !row.Has("quantity") {
				in.Quantity = existing.Quantity
			}
			if !row.Has("description") {
				in.Description = existing.Description
			}
			if in.Images == nil {
				in.Images = existing.Images
			}
			if in.Tags == nil {
				in.Tags = existing.Tags
			}
			if _, err := h.ledger.Update(ctx, existing.ID, in, 0); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to update %s - %v", row.Line, row.Name, err))
				result.FailedCount++
				continue
			}
			result.UpdatedCount++
			continue
		}

		if in.Images == nil && h.placeholder != "" {
			in.Images = []string{h.placeholder}
		}
		item, err := h.ledger.Add(ctx, in)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to create %s - %v", row.Line, row.Name, err))
			result.FailedCount++
			continue
		}
		byName[strings.ToLower(item.Name)] = *item
		result.CreatedCount++
	}

	h.activity.LogActivity(c, "import", "saree", nil, result)
	c.JSON(http.StatusOK, gin.H{
		"data":    result,
		"message": fmt.Sprintf("Import completed: %d created, %d updated, %d failed", result.CreatedCount, result.UpdatedCount, result.FailedCount),
	})
}

// parseExcel parses the first sheet of an .xlsx file
func parseExcel(file io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := spreadsheet.Rows(f)
	if err != nil {
		return nil, err
	}
	return parseRecords(rows)
}

// parseCSV parses .csv files
func parseCSV(file io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return parseRecords(records)
}

// parseRecords maps a header row plus data rows onto ImportRows. Rows with bad
// numbers are kept with Problem set so the caller can report their line.
func parseRecords(records [][]string) ([]ImportRow, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("file must have header row and at least one data row")
	}

	colMap := make(map[string]int)
	for i, cell := range records[0] {
		colMap[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	columns := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := colMap[alias]; ok {
				columns[field] = idx
				break
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("missing name column")
	}

	var result []ImportRow
	for i, row := range records[1:] {
		cell := func(field string) string {
			idx, ok := columns[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		r := ImportRow{
			Line:        i + 2,
			Name:        cell("name"),
			Type:        cell("type"),
			Description: cell("description"),
			ImageURL:    cell("image_url"),
			has:         make(map[string]bool),
		}
		if r.Name == "" {
			continue
		}
		for field := range columnAliases {
			if cell(field) != "" {
				r.has[field] = true
			}
		}
		if v := cell("tags"); v != "" {
			r.Tags = splitTags(v)
		}
		if v := cell("price"); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				r.Problem = fmt.Sprintf("price %q is not a number", v)
			}
			r.Price = price
		}
		if v := cell("quantity"); v != "" && r.Problem == "" {
			qty, err := strconv.Atoi(v)
			if err != nil {
				r.Problem = fmt.Sprintf("quantity %q is not a whole number", v)
			}
			r.Quantity = qty
		}
		result = append(result, r)
	}

	return result, nil
}

// DownloadTemplate generates a sample Excel template for import
func (h *ImportHandler) DownloadTemplate(c *gin.Context) {
	f, err := spreadsheet.Table(
		[]string{"Name", "Type", "Price", "Quantity", "Tags", "Description", "Image URL"},
		[][]interface{}{
			{"Royal Kanjivaram Bridal", "Kanjivaram", 18500, 3, "Bridal, Pure Silk", "Temple border, zari pallu", ""},
			{"Printed Cotton Daily", "Cotton", 1200, 15, "Casual", "", ""},
			{"Georgette Party Drape", "Georgette", 4200, 6, "Party Wear", "", ""},
		},
	)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	if err := f.SetColWidth("Sheet1", "A", "A", 28); err != nil {
		f.Close()
		response.Error(c, h.log, err)
		return
	}

	spreadsheet.Write(c, f, "saree_import_template.xlsx", h.log)
}
