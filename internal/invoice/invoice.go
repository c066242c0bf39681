// Package invoice выпускает счета к платным записям: номер YYYY-MM-DD-NNNNNN
// и PDF фиксированной раскладки.
package invoice

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/Leganyst/session-booking/internal/model"
)

// Party — реквизиты стороны счёта.
type Party struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// Document — всё, что попадает в счёт. Одинаковый Document даёт одинаковые байты.
type Document struct {
	Number   string
	IssuedAt time.Time

	Issuer Party
	BillTo Party

	ServiceType model.ServiceType
	SessionTime string

	Amount   int64 // в минимальных единицах валюты
	Currency string

	PaymentMethod    string
	PaymentReference string
}

// Number строит номер счёта из дня выпуска и дневного порядкового номера.
func Number(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%06d", day.Format(model.DateLayout), seq)
}

// Issuer выпускает счета от имени компании.
type Issuer struct {
	seller Party
	loc    *time.Location
}

func NewIssuer(seller Party, loc *time.Location) *Issuer {
	if loc == nil {
		loc = time.UTC
	}
	return &Issuer{seller: seller, loc: loc}
}

// Day возвращает день выпуска в часовом поясе компании; он же ключ дневного счётчика.
func (i *Issuer) Day(at time.Time) time.Time {
	return at.In(i.loc)
}

// Issue присваивает номер и рендерит документ.
func (i *Issuer) Issue(day time.Time, seq int64, doc Document) (string, []byte, error) {
	doc.Number = Number(i.Day(day), seq)
	doc.Issuer = i.seller
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = day
	}
	pdf, err := Render(doc)
	if err != nil {
		return "", nil, err
	}
	return doc.Number, pdf, nil
}

var zeroDecimal = map[string]bool{"JPY": true, "KRW": true, "VND": true}

// FormatAmount печатает сумму из минимальных единиц.
func FormatAmount(amount int64, currency string) string {
	currency = strings.ToUpper(currency)
	if zeroDecimal[currency] {
		return fmt.Sprintf("%d %s", amount, currency)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}

func serviceTitle(t model.ServiceType) string {
	switch t {
	case model.ServiceTypeInPerson:
		return "In-person session"
	default:
		return "Online session"
	}
}

const producer = "session-booking invoice"

// Render рисует счёт: реквизиты, получатель, одна позиция, итог и QR с номером.
func Render(doc Document) ([]byte, error) {
	if doc.Number == "" {
		return nil, fmt.Errorf("invoice number is empty")
	}
	if doc.IssuedAt.IsZero() {
		return nil, fmt.Errorf("invoice %s has no issue time", doc.Number)
	}

	qrPNG, err := qrcode.Encode(doc.Number, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	// одинаковый вход даёт побайтно одинаковый файл: словари шрифтов и картинок
	// сортируются, даты и служебные строки фиксированы
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCompression(false)
	pdf.SetProducer(producer, false)
	pdf.SetCreator(producer, false)
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetModificationDate(doc.IssuedAt)
	pdf.SetTitle("Invoice "+doc.Number, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, "Invoice No: "+doc.Number)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Date: "+doc.IssuedAt.Format(model.DateLayout))
	pdf.Ln(10)

	party := func(title string, p Party) {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, title)
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		for _, line := range []string{p.Name, p.Address, p.Email, p.Phone} {
			if line == "" {
				continue
			}
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
		pdf.Ln(4)
	}
	party("From", doc.Issuer)
	party("Bill to", doc.BillTo)

	// позиция
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, "Amount", "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	item := serviceTitle(doc.ServiceType)
	if doc.SessionTime != "" {
		item += ", " + doc.SessionTime
	}
	total := FormatAmount(doc.Amount, doc.Currency)
	pdf.CellFormat(120, 8, tr(item), "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, total, "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 8, total, "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	if doc.PaymentMethod != "" {
		pdf.Cell(0, 5, tr("Payment method: "+doc.PaymentMethod))
		pdf.Ln(5)
	}
	if doc.PaymentReference != "" {
		pdf.Cell(0, 5, tr("Payment reference: "+doc.PaymentReference))
		pdf.Ln(5)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 15, 35, 35, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
