package productcontroller

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/pricing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// The first eight columns are read back by the importer.
var productHeaders = []string{
	"ID", "Name", "Description", "ImageURL", "CategoryID", "Price", "Stock", "Weight",
	"SaleActive", "SalePrice", "UnitPrice", "CreatedAt", "UpdatedAt",
}

type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

func ProductsWorkbook(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range productHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.ImageURL)
		category := ""
		if p.CategoryID != nil {
			category = *p.CategoryID
		}
		row.AddCell().SetValue(category)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Stock)
		weight := ""
		if p.Weight.Valid {
			weight = p.Weight.Decimal.String()
		}
		row.AddCell().SetValue(weight)
		row.AddCell().SetValue(strconv.FormatBool(p.SaleActive))
		sale := ""
		if p.SalePrice.Valid {
			sale = p.SalePrice.Decimal.StringFixed(2)
		}
		row.AddCell().SetValue(sale)
		row.AddCell().SetValue(pricing.UnitPrice(&p).StringFixed(2))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

// rowInput parses one sheet row. Blank optional cells are left unset so an
// update only touches what the sheet carries.
func rowInput(row *xlsx.Row) (id string, in ProductInput, ok bool) {
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	id = get(0)
	name := get(1)
	price, err := decimal.NewFromString(get(5))
	if name == "" || err != nil {
		return "", in, false
	}
	in.Name = &name
	in.Price = &price

	if v := get(2); v != "" {
		in.Description = &v
	}
	if v := get(3); v != "" {
		in.ImageURL = &v
	}
	if v := get(4); v != "" {
		in.CategoryID = &v
	}
	if v := get(6); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return "", in, false
		}
		in.Stock = &stock
	}
	if v := get(7); v != "" {
		weight, err := decimal.NewFromString(v)
		if err != nil {
			return "", in, false
		}
		in.Weight = &weight
	}
	return id, in, true
}

// ImportProducts upserts the rows of the first sheet. Rows with an ID that
// exists update that product; the rest are created. Invalid rows are
// skipped.
func ImportProducts(ctx context.Context, db *gorm.DB, file *xlsx.File) (ImportResult, error) {
	var res ImportResult
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return res, apperr.Validation("Excel file is empty or missing header row")
	}

	for _, row := range file.Sheets[0].Rows[1:] {
		id, in, ok := rowInput(row)
		if !ok {
			res.Skipped++
			continue
		}

		if id != "" {
			_, err := UpdateProduct(ctx, db, id, in)
			if err == nil {
				res.Updated++
				continue
			}
			if !apperr.Is(err, apperr.KindNotFound) {
				res.Skipped++
				continue
			}
		}

		if _, err := CreateProduct(ctx, db, in); err != nil {
			res.Skipped++
			continue
		}
		res.Created++
	}
	return res, nil
}

// GET /api/admin/products/export
func ExportProductsToExcel(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.WithContext(c.Request.Context()).Order("created_at").Find(&products).Error; err != nil {
			apperr.Respond(c, log, "product.export", apperr.Internal("product.export", err))
			return
		}

		file, err := ProductsWorkbook(products)
		if err != nil {
			apperr.Respond(c, log, "product.export", apperr.Internal("product.export.sheet", err))
			return
		}

		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Status(http.StatusOK)

		if err := file.Write(c.Writer); err != nil {
			log.Error("write products workbook", zap.Error(err))
		}
	}
}

// POST /api/admin/products/import (multipart "file")
func ImportProductsFromExcel(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := c.FormFile("file")
		if err != nil {
			apperr.Respond(c, log, "product.import", apperr.Validation("Excel file is required"))
			return
		}

		f, err := header.Open()
		if err != nil {
			apperr.Respond(c, log, "product.import", apperr.Internal("product.import.open", err))
			return
		}
		defer f.Close()

		book, err := xlsx.OpenReaderAt(f, header.Size)
		if err != nil {
			apperr.Respond(c, log, "product.import", apperr.Validation("Failed to parse Excel file"))
			return
		}

		res, err := ImportProducts(c.Request.Context(), db, book)
		if err != nil {
			apperr.Respond(c, log, "product.import", err)
			return
		}

		log.Info("products imported",
			zap.Int("created", res.Created), zap.Int("updated", res.Updated), zap.Int("skipped", res.Skipped))
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": res.Created,
			"updated_count": res.Updated,
			"skipped_count": res.Skipped,
		})
	}
}
