package render

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/geocoder89/clubhub/internal/apperr"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// ParseFormat defaults to html.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatText, "text":
		return FormatText, nil
	}
	return "", apperr.Newf(apperr.Validation, "unsupported receipt format %q (use html, pdf or txt)", s)
}

// ReceiptData is everything printed on an official receipt.
type ReceiptData struct {
	Issuer        string
	ReceiptNumber string
	EventTitle    string
	EventDate     time.Time
	Location      string
	Name          string
	Email         string
	MatricNumber  string
	Amount        float64
	PaymentMethod string
	GeneratedAt   time.Time
	VerifiedAt    time.Time
}

type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

// Printer turns an HTML page into a PDF.
type Printer interface {
	PrintPDF(ctx context.Context, html []byte) ([]byte, error)
}

var ErrPDFUnavailable = apperr.New(apperr.Internal, "pdf rendering is not available")

type Renderer struct {
	html    *htmltemplate.Template
	text    *texttemplate.Template
	printer Printer
}

var funcs = map[string]any{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("02 Jan 2006 15:04 MST")
	},
	"money": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
}

// New parses the embedded templates. printer may be nil, in which case pdf fails.
func New(printer Printer) (*Renderer, error) {
	h, err := htmltemplate.New("receipt.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/receipt.html.tmpl")
	if err != nil {
		return nil, err
	}

	t, err := texttemplate.New("receipt.txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/receipt.txt.tmpl")
	if err != nil {
		return nil, err
	}

	return &Renderer{html: h, text: t, printer: printer}, nil
}

func (r *Renderer) Render(ctx context.Context, format Format, data ReceiptData) (Document, error) {
	base := "receipt-" + data.ReceiptNumber

	switch format {
	case FormatText:
		var buf bytes.Buffer
		if err := r.text.Execute(&buf, data); err != nil {
			return Document{}, apperr.Wrap(apperr.Internal, "could not render receipt", err)
		}
		return Document{ContentType: "text/plain; charset=utf-8", Filename: base + ".txt", Body: buf.Bytes()}, nil

	case FormatPDF:
		if r.printer == nil {
			return Document{}, ErrPDFUnavailable
		}

		page, err := r.renderHTML(data)
		if err != nil {
			return Document{}, err
		}

		pdf, err := r.printer.PrintPDF(ctx, page)
		if err != nil {
			return Document{}, apperr.Wrap(apperr.Internal, "could not render receipt", err)
		}
		return Document{ContentType: "application/pdf", Filename: base + ".pdf", Body: pdf}, nil

	default:
		page, err := r.renderHTML(data)
		if err != nil {
			return Document{}, err
		}
		return Document{ContentType: "text/html; charset=utf-8", Filename: base + ".html", Body: page}, nil
	}
}

func (r *Renderer) renderHTML(data ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.html.Execute(&buf, data); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not render receipt", err)
	}
	return buf.Bytes(), nil
}
