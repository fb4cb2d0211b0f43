package activity

// Summarize reduces the bucket sequence into summary statistics. Pure
// function of its input; deterministic.
func Summarize(buckets []Bucket) Summary {
	s := Summary{TotalPeriods: len(buckets)}
	for _, b := range buckets {
		n := b.TransactionCount
		s.TotalActivity += n
		if n > s.PeakActivity {
			s.PeakActivity = n
		}
		switch {
		case n == 0:
			s.QuietPeriods++
			s.Distribution.None++
		case n <= 5:
			s.Distribution.Low++
		case n <= 20:
			s.Distribution.Medium++
		default:
			s.Distribution.High++
		}
	}
	if s.TotalPeriods > 0 {
		s.AverageActivity = float64(s.TotalActivity) / float64(s.TotalPeriods)
	}
	return s
}
