package orderControllers

import (
	"net/http"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderHeaders = []string{
	"ID", "UserID", "Status", "Subtotal", "Discount", "Total", "CouponCode",
	"ShippingWeight", "ShippingBoxes", "Name", "Address", "City", "PostalCode", "Phone",
	"CreatedAt",
}

var orderItemHeaders = []string{"OrderID", "ProductID", "ProductName", "Quantity", "UnitPrice"}

// OrdersWorkbook renders orders into an "Orders" sheet and their lines into
// an "Items" sheet.
func OrdersWorkbook(orders []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}
	items, err := file.AddSheet("Items")
	if err != nil {
		return nil, err
	}

	addHeader(sheet, orderHeaders)
	addHeader(items, orderItemHeaders)

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(o.Subtotal.StringFixed(2))
		row.AddCell().SetValue(o.DiscountAmount.StringFixed(2))
		row.AddCell().SetValue(o.Total.StringFixed(2))
		code := ""
		if o.CouponCode != nil {
			code = *o.CouponCode
		}
		row.AddCell().SetValue(code)
		row.AddCell().SetValue(o.ShippingWeight.StringFixed(3))
		row.AddCell().SetValue(o.ShippingBoxes)
		row.AddCell().SetValue(o.ShippingName)
		row.AddCell().SetValue(o.ShippingAddress)
		row.AddCell().SetValue(o.ShippingCity)
		row.AddCell().SetValue(o.ShippingPostalCode)
		row.AddCell().SetValue(o.ShippingPhone)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))

		for _, it := range o.Items {
			r := items.AddRow()
			r.AddCell().SetValue(o.ID)
			r.AddCell().SetValue(it.ProductID)
			r.AddCell().SetValue(it.ProductName)
			r.AddCell().SetValue(it.Quantity)
			r.AddCell().SetValue(it.UnitPrice.StringFixed(2))
		}
	}
	return file, nil
}

func addHeader(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetValue(h)
	}
}

// GET /api/admin/orders/export
func ExportOrdersToExcel(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseListFilter(c)
		if err != nil {
			apperr.Respond(c, log, "order.export", err)
			return
		}

		orders, err := List(c.Request.Context(), db, filter)
		if err != nil {
			apperr.Respond(c, log, "order.export", err)
			return
		}

		file, err := OrdersWorkbook(orders)
		if err != nil {
			apperr.Respond(c, log, "order.export", apperr.Internal("order.export.sheet", err))
			return
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Status(http.StatusOK)

		if err := file.Write(c.Writer); err != nil {
			log.Error("write orders workbook", zap.Error(err))
		}
	}
}
