package descriptor

import (
	"fmt"
	"strings"
)

const (
	checksumLen = 8

	inputCharset    = "0123456789()[],'/*abcdefgh@:$%{}IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

var checksumGenerator = [5]uint64{
	0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd,
}

func polymod(c uint64, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	for i, g := range checksumGenerator {
		if (c0>>i)&1 == 1 {
			c ^= g
		}
	}
	return c
}

// Checksum computes the 8-character checksum of a descriptor string, which
// must not already carry the '#' suffix.
func Checksum(desc string) (string, error) {
	c := uint64(1)
	cls, clsCount := uint64(0), 0

	for i, ch := range desc {
		pos := strings.IndexRune(inputCharset, ch)
		if pos < 0 {
			return "", newSyntaxError(i, "invalid character %q", ch)
		}
		// symbol within its group of 32
		c = polymod(c, uint64(pos&31))
		// group, three of them packed in one symbol
		cls = cls*3 + uint64(pos>>5)
		clsCount++
		if clsCount == 3 {
			c = polymod(c, cls)
			cls, clsCount = 0, 0
		}
	}
	if clsCount > 0 {
		c = polymod(c, cls)
	}
	for i := 0; i < checksumLen; i++ {
		c = polymod(c, 0)
	}
	c ^= 1

	sum := make([]byte, checksumLen)
	for i := range sum {
		sum[i] = checksumCharset[(c>>(5*(7-i)))&31]
	}
	return string(sum), nil
}

// AddChecksum returns desc followed by '#' and its checksum.
func AddChecksum(desc string) (string, error) {
	sum, err := Checksum(desc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s#%s", desc, sum), nil
}

// splitChecksum separates the optional checksum suffix from the descriptor
// and verifies it.
func splitChecksum(text string) (string, string, error) {
	i := strings.IndexByte(text, '#')
	if i < 0 {
		return text, "", nil
	}

	desc, sum := text[:i], text[i+1:]
	if len(sum) != checksumLen {
		return "", "", newSyntaxError(
			i, "checksum must be %d characters long", checksumLen,
		)
	}
	for j, ch := range sum {
		if !strings.ContainsRune(checksumCharset, ch) {
			return "", "", newSyntaxError(i+1+j, "invalid checksum character %q", ch)
		}
	}

	expected, err := Checksum(desc)
	if err != nil {
		return "", "", err
	}
	if sum != expected {
		return "", "", newSyntaxError(
			i, "checksum mismatch: got %s, expected %s", sum, expected,
		)
	}
	return desc, sum, nil
}
