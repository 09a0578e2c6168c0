// Package loader reads Pep/9 object code, and places program and
// operating system images in memory.
//
// Object code is text: whitespace separated pairs of hex digits, ended
// by the word 'zz'.
//
//	D1 FC 15 F1 FC 16 00 zz
package loader

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/ezrec/pep9/memory"
)

// ParseObject reads object code up to its 'zz' terminator.
func ParseObject(input io.Reader) (code []uint8, err error) {
	scanner := bufio.NewScanner(input)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		word := scanner.Text()
		if strings.EqualFold(word, "zz") {
			return
		}

		var value uint64
		value, err = strconv.ParseUint(word, 16, 8)
		if err != nil || len(word) != 2 {
			err = ErrByte{Index: len(code), Word: word}
			return
		}

		code = append(code, uint8(value))
	}

	err = scanner.Err()
	if err == nil {
		err = ErrNoTerminator
	}

	return
}

// FormatObject renders code as object code text, 16 words per line.
func FormatObject(code []uint8) string {
	words := make([]string, 0, len(code)+1)
	for _, value := range code {
		words = append(words, fmt.Sprintf("%02X", value))
	}
	words = append(words, "zz")

	var lines []string
	for chunk := range slices.Chunk(words, 16) {
		lines = append(lines, strings.Join(chunk, " "))
	}
	return strings.Join(lines, "\n") + "\n"
}

// Image is a block of object code and its load address.
type Image struct {
	Start uint16
	Code  []uint8
}

// Program is an image loaded at address 0.
func Program(code []uint8) Image {
	return Image{Code: code}
}

// OSStart returns the load address of an operating system of size bytes,
// so that its last byte lands on the burn address.
func OSStart(burn uint16, size int) (start uint16, err error) {
	if size <= 0 {
		err = ErrEmpty
		return
	}
	if size > int(burn)+1 {
		err = ErrTooLarge
		return
	}
	start = uint16(int(burn) - size + 1)
	return
}

// OS is an operating system image burned in below the burn address.
func OS(burn uint16, code []uint8) (img Image, err error) {
	start, err := OSStart(burn, len(code))
	if err != nil {
		return
	}
	img = Image{Start: start, Code: code}
	return
}

// End is the address after the last byte of the image.
func (img Image) End() int {
	return int(img.Start) + len(img.Code)
}

// Load copies the image into memory.
func (img Image) Load(mem *memory.Memory) (err error) {
	return mem.LoadObjectCode(img.Start, img.Code)
}
