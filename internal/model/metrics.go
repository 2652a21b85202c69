package model

import "github.com/propsignal/incentive-recommender/pkg/types"

// Accuracy returns the fraction of matching predictions.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ClassificationReport computes per-class precision, recall, F1, and support
// in a one-vs-rest fashion. classes maps label indices to class names.
func ClassificationReport(yTrue, yPred []int, classes []string) map[string]types.ClassMetrics {
	report := make(map[string]types.ClassMetrics, len(classes))
	for c, name := range classes {
		tp, fp, fn := 0, 0, 0
		for i := range yTrue {
			switch {
			case yPred[i] == c && yTrue[i] == c:
				tp++
			case yPred[i] == c && yTrue[i] != c:
				fp++
			case yPred[i] != c && yTrue[i] == c:
				fn++
			}
		}
		var m types.ClassMetrics
		m.Support = tp + fn
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report[name] = m
	}
	return report
}
