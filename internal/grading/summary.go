package grading

// Summary aggregates class-wide statistics for grade reports.
type Summary struct {
	Total        int
	Passing      int
	Failing      int
	PassRate     float64
	ClassAverage float64
	Distribution map[LetterGrade]int
}

// Summarize computes report statistics from a list of student averages.
// Pass/fail goes through IsPassing like everywhere else.
func Summarize(averages []float64) Summary {
	summary := Summary{
		Total:        len(averages),
		Distribution: make(map[LetterGrade]int, len(bands)+1),
	}
	for _, letter := range Letters() {
		summary.Distribution[letter] = 0
	}
	if len(averages) == 0 {
		return summary
	}
	var total float64
	for _, avg := range averages {
		total += avg
		if IsPassing(avg) {
			summary.Passing++
		}
		summary.Distribution[LetterGradeFor(avg)]++
	}
	summary.Failing = summary.Total - summary.Passing
	summary.ClassAverage = total / float64(summary.Total)
	summary.PassRate = float64(summary.Passing) / float64(summary.Total) * 100
	return summary
}
