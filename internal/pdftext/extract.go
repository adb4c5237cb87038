// Package pdftext pulls plain text out of PDF documents.
package pdftext

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extract returns the text drawn by every page's content stream, in page
// order. The result keeps raw spacing; callers collapse whitespace.
func Extract(data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	for page := 1; page <= ctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			return "", fmt.Errorf("extract page %d content: %w", page, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read page %d content: %w", page, err)
		}
		appendPageText(&sb, content)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// appendPageText scans a decoded content stream and appends the string
// arguments of the text-showing operators (Tj, ', ", TJ) to sb. String
// operands of other operators are discarded.
func appendPageText(sb *strings.Builder, content []byte) {
	var pending []string
	i, n := 0, len(content)
	for i < n {
		c := content[i]
		switch {
		case c == '%':
			for i < n && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := parseLiteral(content, i)
			pending = append(pending, s)
			i = next
		case c == '<':
			if i+1 < n && content[i+1] == '<' {
				i += 2
				continue
			}
			s, next := parseHex(content, i)
			pending = append(pending, s)
			i = next
		case c == '/':
			i++
			for i < n && !isSpace(content[i]) && !isDelim(content[i]) {
				i++
			}
		case isSpace(c) || isDelim(c):
			i++
		default:
			j := i
			for j < n && !isSpace(content[j]) && !isDelim(content[j]) {
				j++
			}
			switch tok := string(content[i:j]); tok {
			case "Tj", "'", "\"", "TJ":
				for _, s := range pending {
					sb.WriteString(s)
				}
				sb.WriteByte(' ')
				pending = pending[:0]
			default:
				if !isOperand(tok) {
					pending = pending[:0]
				}
			}
			i = j
		}
	}
}

// parseLiteral decodes a ( ) string starting at content[start]. Balanced
// parentheses nest without escaping.
func parseLiteral(content []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 1
	i := start + 1
	for i < len(content) && depth > 0 {
		c := content[i]
		switch c {
		case '\\':
			i++
			if i >= len(content) {
				return sb.String(), i
			}
			e := content[i]
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '(', ')', '\\':
				sb.WriteByte(e)
			case '\r':
				if i+1 < len(content) && content[i+1] == '\n' {
					i++
				}
			case '\n':
				// escaped newline continues the string
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && i+1 < len(content) && content[i+1] >= '0' && content[i+1] <= '7'; k++ {
						i++
						v = v*8 + int(content[i]-'0')
					}
					sb.WriteByte(byte(v))
				} else {
					sb.WriteByte(e)
				}
			}
			i++
		case '(':
			depth++
			sb.WriteByte(c)
			i++
		case ')':
			depth--
			if depth > 0 {
				sb.WriteByte(c)
			}
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

// parseHex decodes a < > string starting at content[start]. An odd digit
// count gets a trailing zero appended, as the format prescribes.
func parseHex(content []byte, start int) (string, int) {
	i := start + 1
	var digits []byte
	for i < len(content) && content[i] != '>' {
		c := content[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' {
			digits = append(digits, c)
		}
		i++
	}
	if i < len(content) {
		i++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	decoded, err := hex.DecodeString(string(digits))
	if err != nil {
		return "", i
	}
	return string(decoded), i
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isOperand(tok string) bool {
	switch tok {
	case "true", "false", "null":
		return true
	}
	c := tok[0]
	return c == '+' || c == '-' || c == '.' || c >= '0' && c <= '9'
}
