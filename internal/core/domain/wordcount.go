package domain

import (
	"bufio"
	"bytes"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// WordCount asocia cada token literal (sensible a mayúsculas) con su número
// de apariciones. El orden de inserción es irrelevante.
type WordCount map[string]int

// Add suma n apariciones de token.
func (wc WordCount) Add(token string, n int) {
	wc[token] += n
}

// Total devuelve la suma de todas las cuentas.
func (wc WordCount) Total() int {
	total := 0
	for _, n := range wc {
		total += n
	}
	return total
}

// Tokens devuelve las claves ordenadas por valor de byte, sin collation de locale.
func (wc WordCount) Tokens() []string {
	tokens := make([]string, 0, len(wc))
	for token := range wc {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Equal compara dos mapas clave a clave.
func (wc WordCount) Equal(other WordCount) bool {
	if len(wc) != len(other) {
		return false
	}
	for token, n := range wc {
		m, ok := other[token]
		if !ok || m != n {
			return false
		}
	}
	return true
}

// WriteTo escribe una línea "token count" por entrada, ordenadas por token.
// Un mapa vacío produce una salida vacía.
func (wc WordCount) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for _, token := range wc.Tokens() {
		n, err := bw.WriteString(token + " " + strconv.Itoa(wc[token]) + "\n")
		written += int64(n)
		if err != nil {
			return written, errors.Wrap(err, "failed to write word count")
		}
	}
	return written, errors.Wrap(bw.Flush(), "failed to flush word count")
}

// ParseWordCount reconstruye un WordCount con la misma regla de línea que
// usa el validador. Las líneas mal formadas se ignoran.
func ParseWordCount(r io.Reader) (WordCount, error) {
	wc := make(WordCount)
	scanner := NewLineScanner(r)
	for scanner.Scan() {
		token, count, ok := ParseCountLine(scanner.Text())
		if ok {
			wc.Add(token, count)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read word count")
	}
	return wc, nil
}

// ParseCountLine interpreta "<token con posibles espacios> <count>". El último
// campo solo es la cuenta si son todo dígitos ASCII; el resto, unido con un
// espacio, es el token. ok es false para líneas vacías o mal formadas.
func ParseCountLine(line string) (token string, count int, ok bool) {
	fields := strings.FieldsFunc(line, isFieldSpace)
	if len(fields) < 2 {
		return "", 0, false
	}
	last := fields[len(fields)-1]
	if !isASCIIDigits(last) {
		return "", 0, false
	}
	count, err := strconv.Atoi(last)
	if err != nil {
		return "", 0, false
	}
	return strings.Join(fields[:len(fields)-1], " "), count, true
}

// IsBlankLine indica si la línea solo contiene espacios.
func IsBlankLine(line string) bool {
	return strings.TrimFunc(line, isFieldSpace) == ""
}

// isFieldSpace reproduce el conjunto de blancos de un split() sin argumentos:
// unicode.IsSpace más los separadores de información 0x1c-0x1f.
func isFieldSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

const maxLineSize = 64 * 1024 * 1024

// NewLineScanner devuelve un scanner con saltos de línea universales
// ("\n", "\r\n" y "\r") y buffer para líneas largas.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanUniversalLines)
	return scanner
}

func scanUniversalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// "\r" al final del buffer: hace falta ver el siguiente byte.
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
