package handlers

import (
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"backend/repository"
	"backend/utils"
)

// addLabel draws a line of text onto the QR image
func addLabel(img *image.RGBA, x, y int, label string, bold bool) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16
	if bold {
		face = inconsolata.Bold8x16
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	d.DrawString(label)
}

// GenerateShareQRCode renders a share-link QR code for an order
// @Summary Generate share QR code
// @Description Generate a PNG QR code pointing at the order's public share link
// @Tags Orders
// @Produce image/png
// @Param id path string true "Order ID"
// @Success 200 {file} file "PNG image"
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id}/qr [get]
func GenerateShareQRCode(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders := repository.NewOrders(db)
		order, err := orders.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}
		if order.ShareToken == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order has no share link"})
			return
		}

		baseURL := os.Getenv("PUBLIC_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}
		shareURL := fmt.Sprintf("%s/shared/%s", baseURL, order.ShareToken)

		qr, err := qrcode.New(shareURL, qrcode.Medium)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
			return
		}
		qrImg := qr.Image(320)

		// QR on top, labels underneath.
		const labelHeight = 60
		bounds := qrImg.Bounds()
		out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()+labelHeight))
		draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(out, bounds, qrImg, bounds.Min, draw.Over)

		addLabel(out, 10, bounds.Dy()+18, order.Type+" for "+order.CustomerName, true)
		addLabel(out, 10, bounds.Dy()+38, "Total: "+utils.FormatINR(order.TotalAmount), false)

		c.Header("Content-Type", "image/png")
		c.Header("Content-Disposition",
			fmt.Sprintf("attachment;filename=share_%s.png", order.ID))
		if err := png.Encode(c.Writer, out); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode image"})
		}
	}
}
