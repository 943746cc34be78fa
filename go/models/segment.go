package models

type SegmentData struct {
	Off        uint64
	Addr, Size uint64
	DataFunc   func() ([]byte, error)
}

func (s *SegmentData) Data() ([]byte, error) {
	return s.DataFunc()
}

func (s *SegmentData) ContainsVirt(addr uint64) bool {
	return s.Addr <= addr && addr < s.Addr+s.Size
}
