package ml

import (
	"math"
	"math/rand"
	"sort"
)

// TreeParams bounds the growth of a single decision tree.
type TreeParams struct {
	// MaxDepth limits the tree depth. 0 grows until leaves are pure.
	MaxDepth int `json:"max_depth"`
	// MinSamplesSplit is the smallest node that may be split.
	MinSamplesSplit int `json:"min_samples_split"`
	// MinSamplesLeaf is the smallest allowed child.
	MinSamplesLeaf int `json:"min_samples_leaf"`
	// MaxFeatures is the number of non-constant features tried per split.
	// 0 means the estimator default.
	MaxFeatures int `json:"max_features"`
}

func (p TreeParams) normalized(nFeatures, defaultMaxFeatures int) TreeParams {
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MaxFeatures <= 0 {
		p.MaxFeatures = defaultMaxFeatures
	}
	if p.MaxFeatures > nFeatures {
		p.MaxFeatures = nFeatures
	}
	return p
}

const leafFeature = -1

// Node is one node of a fitted tree. Nodes live in a flat slice and refer
// to their children by index.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a fitted binary tree. Samples with x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leaf returns the value of the leaf reached by row.
func (t *Tree) leaf(row []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// Leaves returns the number of leaves.
func (t *Tree) Leaves() int {
	c := 0
	for _, n := range t.Nodes {
		if n.Feature == leafFeature {
			c++
		}
	}
	return c
}

// criterion scores candidate splits of one node.
type criterion interface {
	// reset moves every sample of idx to the right child.
	reset(idx []int)
	// push moves sample i from the right child to the left one.
	push(i int)
	// score is maximized by the best split.
	score(nl, nr int) float64
	// pure reports whether the samples share one target value.
	pure(idx []int) bool
	// value is the leaf prediction for the samples.
	value(idx []int) []float64
}

// giniCriterion minimizes the weighted gini impurity of the children.
type giniCriterion struct {
	y           []int
	k           int
	left, right []float64
}

func newGiniCriterion(y []int, k int) *giniCriterion {
	return &giniCriterion{y: y, k: k, left: make([]float64, k), right: make([]float64, k)}
}

func (c *giniCriterion) reset(idx []int) {
	clear(c.left)
	clear(c.right)
	for _, i := range idx {
		c.right[c.y[i]]++
	}
}

func (c *giniCriterion) push(i int) {
	c.left[c.y[i]]++
	c.right[c.y[i]]--
}

// n*gini = n - sum(count^2)/n, so the split with the largest sum of
// squared-count ratios has the lowest weighted impurity.
func (c *giniCriterion) score(nl, nr int) float64 {
	var sl, sr float64
	for j := 0; j < c.k; j++ {
		sl += c.left[j] * c.left[j]
		sr += c.right[j] * c.right[j]
	}
	return sl/float64(nl) + sr/float64(nr)
}

func (c *giniCriterion) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if c.y[i] != c.y[idx[0]] {
			return false
		}
	}
	return true
}

func (c *giniCriterion) value(idx []int) []float64 {
	v := make([]float64, c.k)
	for _, i := range idx {
		v[c.y[i]]++
	}
	for j := range v {
		v[j] /= float64(len(idx))
	}
	return v
}

// mseCriterion minimizes the summed squared error of the children.
type mseCriterion struct {
	y          []float64
	sumL, sumR float64
}

func newMSECriterion(y []float64) *mseCriterion { return &mseCriterion{y: y} }

func (c *mseCriterion) reset(idx []int) {
	c.sumL, c.sumR = 0, 0
	for _, i := range idx {
		c.sumR += c.y[i]
	}
}

func (c *mseCriterion) push(i int) {
	c.sumL += c.y[i]
	c.sumR -= c.y[i]
}

func (c *mseCriterion) score(nl, nr int) float64 {
	return c.sumL*c.sumL/float64(nl) + c.sumR*c.sumR/float64(nr)
}

func (c *mseCriterion) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if c.y[i] != c.y[idx[0]] {
			return false
		}
	}
	return true
}

func (c *mseCriterion) value(idx []int) []float64 {
	var s float64
	for _, i := range idx {
		s += c.y[i]
	}
	return []float64{s / float64(len(idx))}
}

// treeBuilder grows one CART tree over a row-major sample matrix.
type treeBuilder struct {
	x      []float64
	cols   int
	params TreeParams
	rng    *rand.Rand
	crit   criterion
	nodes  []Node
	feats  []int
	sorted []int
}

func growTree(x []float64, cols int, idx []int, params TreeParams, rng *rand.Rand, crit criterion) Tree {
	b := &treeBuilder{
		x:      x,
		cols:   cols,
		params: params,
		rng:    rng,
		crit:   crit,
		feats:  make([]int, cols),
		sorted: make([]int, len(idx)),
	}
	for j := range b.feats {
		b.feats[j] = j
	}
	b.grow(idx, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) at(i, j int) float64 { return b.x[i*b.cols+j] }

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature})

	n := len(idx)
	if n < b.params.MinSamplesSplit || n < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) || b.crit.pure(idx) {
		b.nodes[id].Value = b.crit.value(idx)
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		b.nodes[id].Value = b.crit.value(idx)
		return id
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if b.at(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit tries up to MaxFeatures non-constant features in random order.
// Constant features do not count against the budget.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.params.MinSamplesLeaf
	sorted := b.sorted[:n]

	b.rng.Shuffle(len(b.feats), func(i, j int) { b.feats[i], b.feats[j] = b.feats[j], b.feats[i] })

	bestScore := math.Inf(-1)
	bestFeature, bestThreshold := -1, 0.0
	tried := 0
	for _, f := range b.feats {
		if tried >= b.params.MaxFeatures {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.at(sorted[a], f) < b.at(sorted[c], f) })
		if b.at(sorted[n-1], f) <= b.at(sorted[0], f) {
			continue
		}
		tried++

		b.crit.reset(sorted)
		for i := 0; i < n-minLeaf; i++ {
			b.crit.push(sorted[i])
			nl := i + 1
			if nl < minLeaf {
				continue
			}
			cur, next := b.at(sorted[i], f), b.at(sorted[i+1], f)
			if next <= cur {
				continue
			}
			if s := b.crit.score(nl, n-nl); s > bestScore {
				bestScore = s
				bestFeature = f
				bestThreshold = midpoint(cur, next)
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func midpoint(a, b float64) float64 {
	t := a/2 + b/2
	if t >= b || math.IsInf(t, 0) || math.IsNaN(t) {
		return a
	}
	return t
}
