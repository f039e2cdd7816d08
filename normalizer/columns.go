package normalizer

import "github.com/giygas/nitrosamine-monitor/entities"

// columnSet keeps names in first-seen order.
type columnSet struct {
	names []string
	index map[string]int
}

func newColumnSet() *columnSet {
	return &columnSet{index: make(map[string]int)}
}

func (s *columnSet) add(name string) {
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
}

type rawBlock struct {
	header []string
	rows   [][]entities.Cell
}

// alignRaw concatenates accepted tables under the union of their headers.
func alignRaw(name string, blocks []rawBlock, header []string) entities.RawTable {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	out := entities.RawTable{Name: name, Header: header}
	for _, b := range blocks {
		for _, cells := range b.rows {
			row := make([]entities.Cell, len(header))
			for i := range row {
				row[i] = entities.Missing()
			}
			for i, h := range b.header {
				row[pos[h]] = cells[i]
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
