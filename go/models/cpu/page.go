package cpu

import (
	"fmt"
	"strings"
)

type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte

	Desc string
}

func (p *Page) String() string {
	prots := []int{PROT_READ, PROT_WRITE, PROT_EXEC}
	chars := []string{"r", "w", "x"}
	prot := ""
	for i := range prots {
		if p.Prot&prots[i] != 0 {
			prot += chars[i]
		} else {
			prot += "-"
		}
	}
	desc := fmt.Sprintf("0x%x-0x%x %s", p.Addr, p.Addr+p.Size, prot)
	if p.Desc != "" {
		desc += fmt.Sprintf(" %s", p.Desc)
	}
	return desc
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.Addr+p.Size
}

func (p *Page) Overlaps(addr, size uint64) bool {
	return addr < p.Addr+p.Size && p.Addr < addr+size
}

type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// index of the page containing addr, or -1. Pages must be sorted.
func (p Pages) bsearch(addr uint64) int {
	l, r := 0, len(p)-1
	for l <= r {
		mid := (l + r) / 2
		e := p[mid]
		if addr < e.Addr {
			r = mid - 1
		} else if addr >= e.Addr+e.Size {
			l = mid + 1
		} else {
			return mid
		}
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	if i := p.bsearch(addr); i >= 0 {
		return p[i]
	}
	return nil
}

func (p Pages) FindRange(addr, size uint64) Pages {
	var ret Pages
	for _, v := range p {
		if v.Overlaps(addr, size) {
			ret = append(ret, v)
		}
	}
	return ret
}
