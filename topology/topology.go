// Package topology provides NUMA node/CPU enumeration and a small set
// of producer/consumer placement policies.
package topology

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Node is one NUMA node and the CPU ids assigned to it.
type Node struct {
	ID   int
	CPUs []int
}

var nodeDirRE = regexp.MustCompile(`^node(\d+)$`)

// Discover enumerates NUMA nodes from sysfs (/sys/devices/system/node).
// On a system with no NUMA sysfs tree (containers, non-Linux, single-node
// machines with the module absent), it synthesizes a single node 0
// holding every online CPU, so placement degrades to a no-op rather
// than failing outright.
func Discover() ([]Node, error) {
	const base = "/sys/devices/system/node"
	entries, err := os.ReadDir(base)
	if err != nil {
		return discoverFlat()
	}

	var nodes []Node
	for _, e := range entries {
		m := nodeDirRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, _ := strconv.Atoi(m[1])
		cpus, err := readCPUList(filepath.Join(base, e.Name(), "cpulist"))
		if err != nil {
			return nil, fmt.Errorf("topology: reading %s: %w", e.Name(), err)
		}
		nodes = append(nodes, Node{ID: id, CPUs: cpus})
	}
	if len(nodes) == 0 {
		return discoverFlat()
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

// discoverFlat synthesizes a single NUMA node spanning every CPU the Go
// runtime sees, for platforms with no NUMA sysfs tree.
func discoverFlat() ([]Node, error) {
	n := runtime.NumCPU()
	if n <= 0 {
		return nil, fmt.Errorf("topology: no CPUs detected")
	}
	cpus := make([]int, n)
	for i := range cpus {
		cpus[i] = i
	}
	return []Node{{ID: 0, CPUs: cpus}}, nil
}

// readCPUList parses a Linux sysfs cpulist file, e.g. "0-3,8,10-11".
func readCPUList(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 64*1024)
	var cpus []int
	for sc.Scan() {
		for _, field := range strings.Split(strings.TrimSpace(sc.Text()), ",") {
			if field == "" {
				continue
			}
			if lo, hi, ok := strings.Cut(field, "-"); ok {
				loN, err1 := strconv.Atoi(lo)
				hiN, err2 := strconv.Atoi(hi)
				if err1 != nil || err2 != nil {
					return nil, fmt.Errorf("topology: malformed range %q", field)
				}
				for c := loN; c <= hiN; c++ {
					cpus = append(cpus, c)
				}
			} else {
				c, err := strconv.Atoi(field)
				if err != nil {
					return nil, fmt.Errorf("topology: malformed cpu id %q", field)
				}
				cpus = append(cpus, c)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cpus, nil
}

// NodeForCPU returns the ID of the node in nodes that contains cpu, or
// -1 if no node claims it. Workers use this to recover the NUMA node
// their assigned CPU belongs to, for binding their queue/partition
// memory to that node at startup.
func NodeForCPU(nodes []Node, cpu int) int {
	for _, n := range nodes {
		for _, c := range n.CPUs {
			if c == cpu {
				return n.ID
			}
		}
	}
	return -1
}

// Policy selects how producer and consumer CPUs are drawn from the
// discovered NUMA nodes.
type Policy int

const (
	// SeparateNodes puts producers on the first node, consumers on the
	// second (or the second half of a single node's CPU list if only
	// one node was discovered).
	SeparateNodes Policy = iota
	// SameNode puts both groups on the same node; fails if their
	// combined count exceeds that node's CPU count.
	SameNode
	// Mixed round-robins sequentially across every discovered CPU.
	Mixed
)

// Plan assigns nProd producer CPUs and nCons consumer CPUs from nodes
// under policy. Returns ordered, disjoint CPU lists of exactly the
// requested lengths, or an error if the topology cannot satisfy the
// request; callers should treat that error as fatal rather than
// silently running unpinned.
func Plan(nodes []Node, nProd, nCons int, policy Policy) (prodCPUs, consCPUs []int, err error) {
	if nProd < 0 || nCons < 0 {
		return nil, nil, fmt.Errorf("topology: negative thread count")
	}
	if len(nodes) == 0 {
		return nil, nil, fmt.Errorf("topology: no NUMA nodes discovered")
	}

	switch policy {
	case SameNode:
		return planSameNode(nodes, nProd, nCons)
	case Mixed:
		return planMixed(nodes, nProd, nCons)
	default:
		return planSeparateNodes(nodes, nProd, nCons)
	}
}

func allCPUs(nodes []Node) []int {
	var all []int
	for _, n := range nodes {
		all = append(all, n.CPUs...)
	}
	return all
}

func planSeparateNodes(nodes []Node, nProd, nCons int) ([]int, []int, error) {
	var prodPool, consPool []int
	if len(nodes) >= 2 {
		prodPool = nodes[0].CPUs
		consPool = nodes[1].CPUs
	} else {
		cpus := nodes[0].CPUs
		mid := len(cpus) / 2
		prodPool, consPool = cpus[:mid], cpus[mid:]
	}
	prodCPUs, err := take(prodPool, nProd)
	if err != nil {
		return nil, nil, fmt.Errorf("topology: producers: %w", err)
	}
	consCPUs, err := take(consPool, nCons)
	if err != nil {
		return nil, nil, fmt.Errorf("topology: consumers: %w", err)
	}
	return prodCPUs, consCPUs, nil
}

func planSameNode(nodes []Node, nProd, nCons int) ([]int, []int, error) {
	for _, n := range nodes {
		if len(n.CPUs) >= nProd+nCons {
			prodCPUs, _ := take(n.CPUs, nProd)
			consCPUs, _ := take(n.CPUs[nProd:], nCons)
			return prodCPUs, consCPUs, nil
		}
	}
	return nil, nil, fmt.Errorf("topology: no node has %d CPUs for n_prod+n_cons", nProd+nCons)
}

func planMixed(nodes []Node, nProd, nCons int) ([]int, []int, error) {
	all := allCPUs(nodes)
	prodCPUs, err := take(all, nProd)
	if err != nil {
		return nil, nil, fmt.Errorf("topology: producers: %w", err)
	}
	consCPUs, err := take(all[nProd:], nCons)
	if err != nil {
		return nil, nil, fmt.Errorf("topology: consumers: %w", err)
	}
	return prodCPUs, consCPUs, nil
}

func take(pool []int, n int) ([]int, error) {
	if n > len(pool) {
		return nil, fmt.Errorf("need %d CPUs, have %d", n, len(pool))
	}
	out := make([]int, n)
	copy(out, pool[:n])
	return out, nil
}
