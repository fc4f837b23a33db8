package ml

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Accuracy returns the share of matching labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d labels, %d predictions", ErrDimensionMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, ErrEmptyInput
	}
	hit := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue)), nil
}

// ClassMetrics holds precision, recall and f1 for one class or average.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// ClassRow is the report line of one class label.
type ClassRow struct {
	Label string `json:"label"`
	ClassMetrics
}

// ClassificationReport summarizes per-class and averaged metrics.
// Ratios with a zero denominator are reported as 0.
type ClassificationReport struct {
	Classes     []ClassRow   `json:"classes"`
	Accuracy    float64      `json:"accuracy"`
	MacroAvg    ClassMetrics `json:"macro_avg"`
	WeightedAvg ClassMetrics `json:"weighted_avg"`
}

// NewClassificationReport builds the report over the union of true and
// predicted labels.
func NewClassificationReport(yTrue, yPred []int) (ClassificationReport, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return ClassificationReport{}, err
	}

	seen := map[int]struct{}{}
	for i := range yTrue {
		seen[yTrue[i]] = struct{}{}
		seen[yPred[i]] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	rep := ClassificationReport{Accuracy: acc}
	total := len(yTrue)
	for _, l := range labels {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yTrue[i] == l && yPred[i] == l:
				tp++
			case yPred[i] == l:
				fp++
			case yTrue[i] == l:
				fn++
			}
		}
		m := ClassMetrics{
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   tp + fn,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		rep.Classes = append(rep.Classes, ClassRow{Label: strconv.Itoa(l), ClassMetrics: m})

		n := float64(len(labels))
		w := float64(m.Support) / float64(total)
		rep.MacroAvg.Precision += m.Precision / n
		rep.MacroAvg.Recall += m.Recall / n
		rep.MacroAvg.F1 += m.F1 / n
		rep.WeightedAvg.Precision += m.Precision * w
		rep.WeightedAvg.Recall += m.Recall * w
		rep.WeightedAvg.F1 += m.F1 * w
	}
	rep.MacroAvg.Support = total
	rep.WeightedAvg.Support = total
	return rep, nil
}

// String renders the report as a fixed-width table.
func (r ClassificationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(&b, "\n%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", "macro avg",
		r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", "weighted avg",
		r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
