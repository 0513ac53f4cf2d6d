package ml

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry the mean of
// their training targets; internal nodes split on feature <= threshold.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Value     float64   `json:"v"`
	Leaf      bool      `json:"leaf"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
}

type treeConfig struct {
	maxDepth    int
	minSplit    int
	minLeaf     int
	maxFeatures int // 0 means consider every feature
}

// growTree fits a CART regression tree on the indexed subset of x/y,
// accumulating per-feature impurity decrease into importance.
func growTree(x [][]float64, y []float64, idx []int, cfg treeConfig, rng *rand.Rand, importance []float64) *treeNode {
	return grow(x, y, idx, cfg, rng, importance, 0)
}

func grow(x [][]float64, y []float64, idx []int, cfg treeConfig, rng *rand.Rand, importance []float64, depth int) *treeNode {
	node := &treeNode{Value: meanAt(y, idx), Leaf: true}
	if depth >= cfg.maxDepth || len(idx) < cfg.minSplit {
		return node
	}

	feature, threshold, gain, ok := bestSplit(x, y, idx, cfg, rng)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < cfg.minLeaf || len(right) < cfg.minLeaf {
		return node
	}

	importance[feature] += gain
	node.Leaf = false
	node.Feature = feature
	node.Threshold = threshold
	node.Left = grow(x, y, left, cfg, rng, importance, depth+1)
	node.Right = grow(x, y, right, cfg, rng, importance, depth+1)
	return node
}

// bestSplit scans candidate features for the threshold with the largest
// sum-of-squares reduction. Candidates are a random subset when
// maxFeatures is set, mirroring random forest column sampling.
func bestSplit(x [][]float64, y []float64, idx []int, cfg treeConfig, rng *rand.Rand) (feature int, threshold, gain float64, ok bool) {
	p := len(x[idx[0]])
	candidates := make([]int, p)
	for j := range candidates {
		candidates[j] = j
	}
	if cfg.maxFeatures > 0 && cfg.maxFeatures < p {
		rng.Shuffle(p, func(a, b int) { candidates[a], candidates[b] = candidates[b], candidates[a] })
		candidates = candidates[:cfg.maxFeatures]
	}

	total := sseAt(y, idx)
	n := len(idx)
	order := make([]int, n)

	bestGain := 0.0
	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var leftSum, leftSq float64
		rightSum, rightSq := sumsAt(y, idx)
		for k := 0; k < n-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v
			rightSum -= v
			rightSq -= v * v

			if x[order[k]][f] == x[order[k+1]][f] {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			if int(nl) < cfg.minLeaf || int(nr) < cfg.minLeaf {
				continue
			}
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if g := total - sse; g > bestGain {
				bestGain = g
				feature = f
				threshold = (x[order[k]][f] + x[order[k+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

func meanAt(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func sumsAt(y []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return sum, sq
}

func sseAt(y []float64, idx []int) float64 {
	sum, sq := sumsAt(y, idx)
	n := float64(len(idx))
	return sq - sum*sum/n
}
