package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexDump formats mem as lines of bits/8-byte blocks with an ascii column.
func HexDump(base uint64, mem []byte, bits int) []string {
	clean := func(p []byte) string {
		o := make([]byte, len(p))
		for i, c := range p {
			if c >= 0x20 && c <= 0x7e {
				o[i] = c
			} else {
				o[i] = '.'
			}
		}
		return string(o)
	}
	bsz := bits / 8
	if bsz < 1 {
		bsz = 1
	}
	hexFmt := fmt.Sprintf("0x%%0%dx:", bsz*2)
	lineSize := bsz * 8
	var out []string
	for i := 0; i < len(mem); i += lineSize {
		end := i + lineSize
		if end > len(mem) {
			end = len(mem)
		}
		line := mem[i:end]
		var blocks []string
		for j := 0; j < lineSize; j += bsz {
			if j >= len(line) {
				blocks = append(blocks, strings.Repeat(" ", bsz*2))
				continue
			}
			bend := j + bsz
			if bend > len(line) {
				bend = len(line)
			}
			block := hex.EncodeToString(line[j:bend])
			blocks = append(blocks, block+strings.Repeat("  ", bsz-(bend-j)))
		}
		out = append(out, fmt.Sprintf(hexFmt+" %s [%s]", base+uint64(i), strings.Join(blocks, " "), clean(line)))
	}
	return out
}
