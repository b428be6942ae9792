// Package classifier provides the built-in classification backends: a CART
// decision tree, a bagged random forest with out-of-bag probabilities, and
// an L2-regularized logistic regression. All of them train deterministically
// from a seed and expose positive-class probabilities per row.
package classifier

import "errors"

func checkTrainingData(x [][]float64, y []int) error {
	if len(x) == 0 {
		return errors.New("classifier: empty training set")
	}
	if len(y) != len(x) {
		return errors.New("classifier: feature rows and labels differ in length")
	}
	p := len(x[0])
	if p == 0 {
		return errors.New("classifier: rows have no features")
	}
	for _, row := range x {
		if len(row) != p {
			return errors.New("classifier: ragged feature rows")
		}
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return errors.New("classifier: labels must be 0 or 1")
		}
	}
	return nil
}

func classWeightPair(weights map[int]float64) (wPos, wNeg float64) {
	wPos, wNeg = 1, 1
	if weights == nil {
		return wPos, wNeg
	}
	if w, ok := weights[1]; ok {
		wPos = w
	}
	if w, ok := weights[0]; ok {
		wNeg = w
	}
	return wPos, wNeg
}
