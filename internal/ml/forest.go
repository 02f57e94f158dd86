package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrNotTrained is returned when scoring is attempted without a fitted model.
var ErrNotTrained = errors.New("ml: isolation forest is not trained")

// treeNode is a single node of an isolation tree. Trees are stored as flat
// node slices with index links so a fitted forest serializes to JSON for the
// artifact store. Left/Right are -1 on leaves.
type treeNode struct {
	SplitFeature int     `json:"f"`
	SplitValue   float64 `json:"v"`
	Left         int     `json:"l"`
	Right        int     `json:"r"`
	Size         int     `json:"n"`
}

// isolationTree holds one tree; node 0 is the root.
type isolationTree struct {
	Nodes []treeNode `json:"nodes"`
}

// IsolationForest isolates observations by random recursive partitioning.
// Anomalies sit in sparse regions and need fewer partitions to isolate, so
// they have shorter expected path lengths.
type IsolationForest struct {
	Trees         []isolationTree `json:"trees"`
	NumTrees      int             `json:"num_trees"`
	SubSampleSize int             `json:"sub_sample_size"`
	MaxDepth      int             `json:"max_depth"`
	Contamination float64         `json:"contamination"`
	// Offset is the contamination-quantile of the training corpus's sample
	// scores; Decision subtracts it so negative values mean anomalous.
	Offset float64 `json:"offset"`

	rng *rand.Rand
}

// NewIsolationForest creates an unfitted forest. The seed fixes the random
// partitioning so repeated trainings are reproducible.
func NewIsolationForest(numTrees, subSampleSize int, contamination float64, seed int64) *IsolationForest {
	maxDepth := int(math.Ceil(math.Log2(float64(subSampleSize))))
	return &IsolationForest{
		Trees:         make([]isolationTree, 0, numTrees),
		NumTrees:      numTrees,
		SubSampleSize: subSampleSize,
		MaxDepth:      maxDepth,
		Contamination: contamination,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Fit trains the forest on scaled feature vectors and calibrates the decision
// offset so that a contamination fraction of the corpus scores negative.
func (f *IsolationForest) Fit(vectors [][]float64) error {
	if len(vectors) == 0 {
		return fmt.Errorf("ml: cannot fit forest on empty corpus: %w", ErrDegenerateData)
	}

	for i := 0; i < f.NumTrees; i++ {
		sample := f.subSample(vectors)
		tree := isolationTree{}
		f.grow(&tree, sample, 0)
		f.Trees = append(f.Trees, tree)
	}

	// Calibrate the decision offset on the training corpus.
	scores := make([]float64, len(vectors))
	for i, vec := range vectors {
		scores[i] = f.sampleScore(vec)
	}
	sort.Float64s(scores)
	idx := int(f.Contamination * float64(len(scores)))
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	f.Offset = scores[idx]

	return nil
}

// Decision returns the signed anomaly score of a scaled vector: negative for
// anomalous points, positive for normal ones, roughly within [-0.5, 0.5].
func (f *IsolationForest) Decision(vec []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotTrained
	}
	return f.sampleScore(vec) - f.Offset, nil
}

// AnomalyRatio reports the fraction of the corpus the fitted forest flags as
// anomalous. On the training corpus this approximates the contamination by
// construction; it is a diagnostic, not a held-out accuracy metric.
func (f *IsolationForest) AnomalyRatio(vectors [][]float64) (float64, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	flagged := 0
	for _, vec := range vectors {
		d, err := f.Decision(vec)
		if err != nil {
			return 0, err
		}
		if d < 0 {
			flagged++
		}
	}
	return float64(flagged) / float64(len(vectors)), nil
}

// sampleScore is the negated normalized isolation score: -2^(-E[h(x)]/c(n)).
// More negative means more anomalous, matching the sign convention the
// calibrator expects.
func (f *IsolationForest) sampleScore(vec []float64) float64 {
	total := 0.0
	for i := range f.Trees {
		total += f.pathLength(&f.Trees[i], 0, vec, 0)
	}
	avg := total / float64(len(f.Trees))
	c := averagePathLength(f.SubSampleSize)
	return -math.Pow(2, -avg/c)
}

func (f *IsolationForest) subSample(vectors [][]float64) [][]float64 {
	size := f.SubSampleSize
	if size > len(vectors) {
		size = len(vectors)
	}
	shuffled := make([][]float64, len(vectors))
	copy(shuffled, vectors)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := f.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:size]
}

// grow appends the subtree for the given sample and returns its node index.
func (f *IsolationForest) grow(tree *isolationTree, sample [][]float64, depth int) int {
	idx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, treeNode{Left: -1, Right: -1, Size: len(sample)})

	if len(sample) <= 1 || depth >= f.MaxDepth || allIdentical(sample) {
		return idx
	}

	feature := f.rng.Intn(len(sample[0]))
	lo, hi := featureRange(sample, feature)
	if hi-lo < 1e-12 {
		return idx
	}
	split := lo + f.rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, vec := range sample {
		if vec[feature] < split {
			left = append(left, vec)
		} else {
			right = append(right, vec)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	tree.Nodes[idx].SplitFeature = feature
	tree.Nodes[idx].SplitValue = split
	tree.Nodes[idx].Left = f.grow(tree, left, depth+1)
	tree.Nodes[idx].Right = f.grow(tree, right, depth+1)
	return idx
}

func (f *IsolationForest) pathLength(tree *isolationTree, nodeIdx int, vec []float64, depth int) float64 {
	node := &tree.Nodes[nodeIdx]
	if node.Left < 0 {
		// Leaf: account for the expected depth of the points collapsed here.
		return float64(depth) + averagePathLength(node.Size)
	}
	if vec[node.SplitFeature] < node.SplitValue {
		return f.pathLength(tree, node.Left, vec, depth+1)
	}
	return f.pathLength(tree, node.Right, vec, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// search in a binary search tree: 2H(n-1) - 2(n-1)/n.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	return 2*harmonic(n-1) - 2*float64(n-1)/float64(n)
}

// harmonic approximates H(n) via ln(n) plus the Euler-Mascheroni constant.
func harmonic(n int) float64 {
	return math.Log(float64(n)) + 0.5772156649
}

func allIdentical(sample [][]float64) bool {
	first := sample[0]
	for _, vec := range sample[1:] {
		for j := range first {
			if math.Abs(vec[j]-first[j]) > 1e-10 {
				return false
			}
		}
	}
	return true
}

func featureRange(sample [][]float64, feature int) (float64, float64) {
	lo, hi := sample[0][feature], sample[0][feature]
	for _, vec := range sample {
		v := vec[feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
