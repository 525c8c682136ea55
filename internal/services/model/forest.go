package model

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// Forest is a bagged ensemble of CART regression trees. Each tree is grown on a
// bootstrap sample with all features considered at every split, and the
// prediction is the mean over trees.
type Forest struct {
	NumTrees int     `json:"n_estimators"`
	MaxDepth int     `json:"max_depth"`
	MinSplit int     `json:"min_samples_split"`
	Seed     int64   `json:"random_state"`
	Trees    []*Tree `json:"trees"`
}

// ForestOption configures Forest.
type ForestOption func(*Forest)

// WithTrees sets the number of trees.
func WithTrees(n int) ForestOption {
	return func(f *Forest) {
		if n > 0 {
			f.NumTrees = n
		}
	}
}

// WithMaxDepth caps tree depth.
func WithMaxDepth(d int) ForestOption {
	return func(f *Forest) {
		if d > 0 {
			f.MaxDepth = d
		}
	}
}

// WithMinSplit sets the minimum samples needed to split a node.
func WithMinSplit(n int) ForestOption {
	return func(f *Forest) {
		if n >= 2 {
			f.MinSplit = n
		}
	}
}

// WithSeed sets the bootstrap seed.
func WithSeed(seed int64) ForestOption {
	return func(f *Forest) {
		f.Seed = seed
	}
}

// NewForest creates an untrained forest (100 trees, depth 10, seed 42).
func NewForest(opts ...ForestOption) *Forest {
	f := &Forest{NumTrees: 100, MaxDepth: 10, MinSplit: 2, Seed: 42}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forest) Kind() string { return KindForest }

// Fit grows the trees concurrently. Tree i always uses seed Seed+i, so the result
// does not depend on scheduling.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("forest fit: %d rows, %d targets", len(X), len(y))
	}
	trees := make([]*Tree, f.NumTrees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := runtime.NumCPU()
	if workers > f.NumTrees {
		workers = f.NumTrees
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(f.Seed + int64(i)))
				idx := make([]int, len(X))
				for k := range idx {
					idx[k] = rng.Intn(len(X))
				}
				trees[i] = growTree(X, y, idx, f.MaxDepth, f.MinSplit)
			}
		}()
	}
	for i := 0; i < f.NumTrees; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	f.Trees = trees
	return nil
}

// Predict averages the tree outputs. An unfitted forest predicts NaN.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Tree is a regression tree stored as a flat node list; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split (Left/Right >= 0) or a leaf (Left == -1).
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Predict walks the tree: x[feature] <= threshold goes left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func growTree(X [][]float64, y []float64, idx []int, maxDepth, minSplit int) *Tree {
	t := &Tree{}
	t.build(X, y, idx, 0, maxDepth, minSplit)
	return t
}

func (t *Tree) build(X [][]float64, y []float64, idx []int, depth, maxDepth, minSplit int) int {
	at := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Left: -1, Right: -1, Value: mean(y, idx)})

	if depth >= maxDepth || len(idx) < minSplit {
		return at
	}
	feat, thr, ok := bestSplit(X, y, idx)
	if !ok {
		return at
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := t.build(X, y, left, depth+1, maxDepth, minSplit)
	r := t.build(X, y, right, depth+1, maxDepth, minSplit)
	t.Nodes[at].Feature = feat
	t.Nodes[at].Threshold = thr
	t.Nodes[at].Left = l
	t.Nodes[at].Right = r
	return at
}

// bestSplit finds the feature and threshold minimizing the summed squared error of
// the two children. Thresholds are midpoints between consecutive distinct values.
func bestSplit(X [][]float64, y []float64, idx []int) (int, float64, bool) {
	n := len(idx)
	totalSum, totalSq := 0.0, 0.0
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	bestFeat, bestThr, bestSSE := -1, 0.0, parentSSE
	order := make([]int, n)
	for f := range X[idx[0]] {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v
			cur, next := X[order[k]][f], X[order[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-1e-12 {
				bestFeat, bestThr, bestSSE = f, cur+(next-cur)/2, sse
			}
		}
	}
	return bestFeat, bestThr, bestFeat >= 0
}

func mean(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.0
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}
