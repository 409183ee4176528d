package simplify

import (
	"fmt"
	"os"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"sdbgcore/bnt"
	"sdbgcore/sdbg"
)

// DumpDot renders the bounded neighborhood of g reachable from seeds
// (within maxSteps forward/backward hops) as a graphviz digraph,
// mirroring constructdbg.go's GraphvizDBGArr debug dump gated by a
// Graph bool flag. Invalid (already-removed) nodes are skipped.
func DumpDot(g *sdbg.SdBG, seeds []int, maxSteps int, graphfn string) error {
	gv := gographviz.NewGraph()
	gv.SetName("G")
	gv.SetDir(true)
	gv.SetStrict(false)

	visited := make(map[int]bool)
	queue := append([]int(nil), seeds...)
	for _, s := range seeds {
		visited[s] = true
	}
	for step := 0; len(queue) > 0 && step <= maxSteps; step++ {
		var next []int
		for _, n := range queue {
			if !g.IsValidNode(n) {
				continue
			}
			for b := byte(0); b < bnt.BaseTypeNum; b++ {
				if s := g.SuccessorByBase(n, b); s != -1 && !visited[s] {
					visited[s] = true
					next = append(next, s)
				}
				if p := g.PredecessorByBase(n, b); p != -1 && !visited[p] {
					visited[p] = true
					next = append(next, p)
				}
			}
		}
		queue = next
	}

	nodeName := func(n int) string { return strconv.Itoa(n) }
	for n := range visited {
		attr := map[string]string{
			"color": "Green",
			"shape": "record",
			"label": fmt.Sprintf("\"%s|mult:%d\"", coreString(g.Core(n)), g.Multiplicity(n)),
		}
		if err := gv.AddNode("G", nodeName(n), attr); err != nil {
			return err
		}
	}
	for n := range visited {
		if !g.IsValidNode(n) {
			continue
		}
		for b := byte(0); b < bnt.BaseTypeNum; b++ {
			s := g.SuccessorByBase(n, b)
			if s == -1 || !visited[s] {
				continue
			}
			attr := map[string]string{
				"color": "Blue",
				"label": fmt.Sprintf("\"%c\"", bnt.BntCharUp[b]),
			}
			if err := gv.AddEdge(nodeName(n), nodeName(s), true, attr); err != nil {
				return err
			}
		}
	}

	f, err := os.Create(graphfn)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(gv.String())
	return err
}

func coreString(core []byte) string {
	b := make([]byte, len(core))
	for i, c := range core {
		b[i] = bnt.BntCharUp[c]
	}
	return string(b)
}
