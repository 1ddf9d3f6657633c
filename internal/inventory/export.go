package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
	"github.com/yuditriaji/ruhmrita-backend/pkg/spreadsheet"
)

// ExportInventory downloads the catalog as .xlsx
func (h *Handler) ExportInventory(c *gin.Context) {
	items, err := h.ledger.Items(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		price, _ := it.Price.Float64()
		stock := "ok"
		switch {
		case it.Quantity == 0:
			stock = "out"
		case it.IsLowStock(h.lowStock):
			stock = "low"
		}
		rows = append(rows, []interface{}{
			it.Name, it.Type, price, it.Quantity, stock,
			strings.Join(it.Tags, ", "), it.Description, it.ImageURL(),
		})
	}

	f, err := spreadsheet.Table(
		[]string{"Name", "Type", "Price", "Quantity", "Stock", "Tags", "Description", "Image URL"},
		rows,
	)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	spreadsheet.Write(c, f, fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102")), h.log)
}
