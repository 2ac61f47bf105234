package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopledger/internal/core"
)

// errQuantityTooSmall is returned by the entry form, which records sales of
// at least one piece. The edit grid accepts zero.
var errQuantityTooSmall = errors.New("quantity must be at least 1")

var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrEmptyItem, "กรุณากรอกชื่อรายการสินค้า"},
	{core.ErrItemTooLong, "ชื่อรายการยาวเกิน 200 ตัวอักษร"},
	{core.ErrNegativePrice, "ราคาต้องไม่ติดลบ"},
	{core.ErrNegativeQuantity, "จำนวนต้องไม่ติดลบ"},
	{errQuantityTooSmall, "จำนวนต้องมากกว่า 0"},
	{core.ErrInvalidQuantity, "จำนวนต้องเป็นจำนวนเต็ม"},
	{core.ErrAmountTooLarge, "ยอดเงินสูงเกินไป"},
	{core.ErrInvalidAmount, "ราคาไม่ถูกต้อง"},
	{core.ErrDateOutsidePeriod, "วันที่ต้องอยู่ในเดือนปัจจุบัน"},
	{core.ErrInvalidDate, "วันที่ไม่ถูกต้อง"},
}

// validationMessage renders a validation failure for the shop staff. Grid
// errors are prefixed with the 1-based row number.
func validationMessage(err error) string {
	msg := "ข้อมูลไม่ถูกต้อง"
	for _, vm := range validationMessages {
		if errors.Is(err, vm.err) {
			msg = vm.msg
			break
		}
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) && ve.Row >= 0 {
		return fmt.Sprintf("แถว %d: %s", ve.Row+1, msg)
	}
	return msg
}

// formatBaht formats an amount with grouping and the currency unit,
// e.g. "1,250.00 บาท".
func formatBaht(m core.Money) string {
	return m.String() + " บาท"
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
