// Package inspecttest provides small well-formed documents for tests.
package inspecttest

import (
	"bytes"
	"fmt"
	"strings"
)

// JPEG returns bytes carrying a JPEG signature.
func JPEG() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0x00}, 64)...)
}

// PNG returns bytes carrying a PNG signature and IHDR chunk header.
func PNG() []byte {
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	return append(sig, bytes.Repeat([]byte{0x00}, 64)...)
}

// PDF returns a single-page PDF with a valid cross-reference table.
func PDF() []byte {
	return buildPDF("")
}

// EncryptedPDF returns a single-page PDF protected by a Standard security
// handler whose user password is not empty.
func EncryptedPDF() []byte {
	owner := strings.Repeat("a1", 32)
	user := strings.Repeat("5c", 32)
	encrypt := fmt.Sprintf("/Encrypt << /Filter /Standard /V 1 /R 2 /Length 40 /P -4 /O <%s> /U <%s> >> /ID [<0123456789abcdef0123456789abcdef> <0123456789abcdef0123456789abcdef>] ", owner, user)
	return buildPDF(encrypt)
}

func buildPDF(trailerExtra string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R %s>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, trailerExtra, xref)
	return buf.Bytes()
}
