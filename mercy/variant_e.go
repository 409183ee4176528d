package mercy

import (
	"sort"

	"github.com/cespare/xxhash"
)

// LookupTable accelerates Variant E's existence queries against a
// sorted list of solid node cores: a coarse prefix index narrows a
// binary search to the bucket of cores sharing the query's leading
// lookupPrefixLen bases, mirroring InitLookupTable/BinarySearchKmer's
// two-level search (prefix bucket, then a narrowed binary search).
type LookupTable struct {
	cores         [][]byte // sorted ascending, lexicographic by base
	prefixLen     int
	bucketStart   []int
	bucketEnd     []int // exclusive
}

// lookupPrefixLen bases index the prefix table; must not exceed the
// shortest core's length.
const lookupPrefixLen = 2

// BuildLookupTable indexes a sorted (ascending) list of solid node
// cores for Variant E existence queries.
func BuildLookupTable(sortedCores [][]byte) *LookupTable {
	numBuckets := 1
	for i := 0; i < lookupPrefixLen; i++ {
		numBuckets *= 4
	}
	lt := &LookupTable{
		cores:       sortedCores,
		prefixLen:   lookupPrefixLen,
		bucketStart: make([]int, numBuckets),
		bucketEnd:   make([]int, numBuckets),
	}
	for b := range lt.bucketStart {
		lt.bucketStart[b] = -1
	}
	for i, c := range sortedCores {
		p := prefixIndex(c, lt.prefixLen)
		if lt.bucketStart[p] == -1 {
			lt.bucketStart[p] = i
		}
		lt.bucketEnd[p] = i + 1
	}
	return lt
}

func prefixIndex(core []byte, prefixLen int) int {
	p := 0
	for i := 0; i < prefixLen; i++ {
		p *= 4
		if i < len(core) {
			p += int(core[i])
		}
	}
	return p
}

// Search reports whether core exists among the indexed solid cores.
func (lt *LookupTable) Search(core []byte) bool {
	p := prefixIndex(core, lt.prefixLen)
	lo, hi := lt.bucketStart[p], lt.bucketEnd[p]
	if lo == -1 {
		return false
	}
	idx := sort.Search(hi-lo, func(i int) bool {
		return cmpBytes(lt.cores[lo+i], core) >= 0
	})
	return lo+idx < hi && cmpBytes(lt.cores[lo+idx], core) == 0
}

func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// ResolveVariantE runs mercy recovery after a provisional SdBG's node
// cores are known: for each read, walk its k-mer positions and, where
// a known core's successor core along the read is missing, probe the
// 4 possible one-base extensions against lt; a hit means a real edge
// exists elsewhere in the graph that this read's own sequence can
// bridge to, so the connecting (k+1)-mer is emitted. Missing
// predecessor cores are not probed.
func ResolveVariantE(reads [][]byte, k int, lt *LookupTable) []Edge {
	var out []Edge
	seen := make(map[uint64]bool) // xxhash of (core,a,b): same role as cuckoofilter.go's k-mer hash keys
	for _, read := range reads {
		numKmers := len(read) - k + 1
		for pos := 0; pos+1 < numKmers; pos++ {
			core := read[pos+1 : pos+k]
			if !lt.Search(core) {
				continue
			}
			nextCore := read[pos+2 : pos+k+1]
			if lt.Search(nextCore) {
				continue // both already solid nodes; no rescue needed
			}
			// nextCore is missing: check whether any of its 4 one-base
			// successors already exists in the graph, meaning a real edge
			// passes through it that this read can legitimately connect.
			for b := byte(0); b < 4; b++ {
				if probeExists(lt, nextCore, b) {
					h := edgeHash(core, read[pos], read[pos+k])
					if seen[h] {
						break
					}
					seen[h] = true
					out = append(out, Edge{
						Core: append([]byte(nil), core...),
						A:    read[pos],
						B:    read[pos+k],
					})
					break
				}
			}
		}
	}
	return out
}

// edgeHash keys the rescued-edge dedup set, avoiding inserting the
// same bridging (k+1)-mer twice across overlapping reads (same role
// xxhash.Sum64 plays in cuckoofilter.go's k-mer lookups).
func edgeHash(core []byte, a, b byte) uint64 {
	key := make([]byte, 0, len(core)+2)
	key = append(key, core...)
	key = append(key, a, b)
	return xxhash.Sum64(key)
}

func probeExists(lt *LookupTable, core []byte, nextBase byte) bool {
	shifted := append(append([]byte(nil), core[1:]...), nextBase)
	return lt.Search(shifted)
}
