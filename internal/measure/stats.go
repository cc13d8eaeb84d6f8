package measure

// Stats holds the running statistics of one station.
type Stats struct {
	Min   Temperature
	Max   Temperature
	Sum   int64
	Count uint64
}

func NewStats(t Temperature) Stats {
	return Stats{Min: t, Max: t, Sum: int64(t), Count: 1}
}

func (s *Stats) Add(t Temperature) {
	s.Min = min(s.Min, t)
	s.Max = max(s.Max, t)
	s.Sum += int64(t)
	s.Count++
}

// Merge folds o into s. It is associative and commutative.
func (s *Stats) Merge(o Stats) {
	if o.Count == 0 {
		return
	}
	if s.Count == 0 {
		*s = o
		return
	}

	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
	s.Sum += o.Sum
	s.Count += o.Count
}

// Mean returns Sum/Count rounded to tenths, ties toward positive infinity.
func (s Stats) Mean() Temperature {
	if s.Count == 0 {
		return 0
	}

	// floor(sum/count + 1/2), in integers
	count := int64(s.Count)
	return Temperature(floorDiv(2*s.Sum+count, 2*count))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// AppendTo appends "min/mean/max".
func (s Stats) AppendTo(dst []byte) []byte {
	dst = AppendTenths(dst, s.Min)
	dst = append(dst, '/')
	dst = AppendTenths(dst, s.Mean())
	dst = append(dst, '/')
	return AppendTenths(dst, s.Max)
}

func (s Stats) String() string {
	return string(s.AppendTo(make([]byte, 0, 24)))
}
