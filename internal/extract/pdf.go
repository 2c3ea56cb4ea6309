// Package extract turns PDF documents into plain text with pdfcpu.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"fsdrift/internal/drift"
)

// PDFExtractor implements drift.TextExtractor by reading page content streams.
// Only text drawn with the Tj, TJ and ' operators is recovered; scanned pages
// yield nothing.
type PDFExtractor struct {
	logger drift.Logger
}

var _ drift.TextExtractor = (*PDFExtractor)(nil)

func NewPDFExtractor(logger drift.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// ExtractText returns the text of every page, one line per page.
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %w", drift.ErrIO, path, err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("%w: %w", drift.ErrExtraction, err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pageText(pdfCtx, pageNr)
		if err != nil {
			e.logger.Debug("skipping unreadable page", "path", path, "page", pageNr, "error", err)
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}

	e.logger.Debug("pdf text extracted", "path", path, "pages", pdfCtx.PageCount, "text_pages", len(pages))
	if len(pages) == 0 {
		return "", drift.ErrNoExtractableText
	}
	return strings.Join(pages, "\n"), nil
}

func pageText(pdfCtx *model.Context, pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return textFromContent(data), nil
}

// literalRe matches PDF string literals: (text).
var literalRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContent collects the string operands of text-showing operators in a
// decoded content stream. Positioning operators become word or line breaks.
func textFromContent(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range literalRe.FindAllSubmatch(line, -1) {
				sb.WriteString(unescape(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range literalRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(unescape(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			sb.WriteByte(' ')
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			sb.WriteByte('\n')
		}
	}
	return normalizeSpace(sb.String())
}

// unescape decodes the backslash escapes allowed in PDF string literals.
func unescape(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b', 'f':
		case '0', '1', '2', '3', '4', '5', '6', '7':
			// Up to three octal digits.
			val := 0
			for n := 0; n < 3 && i < len(raw) && raw[i] >= '0' && raw[i] <= '7'; n++ {
				val = val*8 + int(raw[i]-'0')
				i++
			}
			i--
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// normalizeSpace collapses whitespace runs to single spaces and drops unprintable runes.
func normalizeSpace(text string) string {
	var sb strings.Builder
	pendingSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = sb.Len() > 0
		case unicode.IsPrint(r):
			if pendingSpace {
				sb.WriteByte(' ')
				pendingSpace = false
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
