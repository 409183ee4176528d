package cx1

// Lv1Item is one compact fill-phase record:
// either a signed differential offset from the previous occurrence's
// ledger index within the same bucket, or, if the gap doesn't fit,
// a negative index into the batch's overflow table.
type Lv1Item int32

// DefaultDiffLimit bounds how large a forward gap Lv1Item can encode
// directly; larger gaps spill into the overflow table. Grounded on
// cx1's EncodeEdgeOffset + overflow convention.
const DefaultDiffLimit = 1 << 20

// Lv1Batch is the phase-3 output for one batch of buckets
//: per-bucket compact offsets plus the
// overflow table any bucket spilled into, and the materialized
// occurrence ledger phase 4 will index back into.
type Lv1Batch struct {
	StartBucket, EndBucket int
	BucketOffsets          []int // len = EndBucket-StartBucket+1, CSR-style start offsets into Items
	Items                  []Lv1Item
	Overflow               []int64 // absolute ledger indices
	Ledger                 []EdgeOccurrence
}

// FillLv1 runs CX1 phase 3 for the bucket range [startBucket,
// endBucket): it rescans every sequence in src (the real CX1 pattern:
// each phase independently re-derives which occurrences it needs),
// keeping only occurrences whose bucket falls in range, and encodes
// each one as a differential offset from the previous occurrence seen
// in the same bucket.
func FillLv1(src EdgeSource, startBucket, endBucket int, diffLimit int32) Lv1Batch {
	batch := Lv1Batch{StartBucket: startBucket, EndBucket: endBucket}
	numBuckets := endBucket - startBucket
	perBucket := make([][]int64, numBuckets) // ledger indices, in bucket order

	for seqIdx := 0; seqIdx < src.NumItems(); seqIdx++ {
		src.ForEachEdge(seqIdx, func(occ EdgeOccurrence) {
			b := BucketOf(occ.Core)
			if b >= startBucket && b < endBucket {
				perBucket[b-startBucket] = append(perBucket[b-startBucket], int64(len(batch.Ledger)))
				batch.Ledger = append(batch.Ledger, occ)
			}
		})
	}

	batch.BucketOffsets = make([]int, numBuckets+1)
	for b := 0; b < numBuckets; b++ {
		batch.BucketOffsets[b+1] = batch.BucketOffsets[b] + len(perBucket[b])
	}
	batch.Items = make([]Lv1Item, batch.BucketOffsets[numBuckets])

	pos := 0
	for b := 0; b < numBuckets; b++ {
		var last int64 = -1
		for _, g := range perBucket[b] {
			if last == -1 {
				batch.Items[pos] = Lv1Item(g)
			} else {
				diff := g - last
				if diff > int64(diffLimit) || diff < -int64(diffLimit) {
					batch.Overflow = append(batch.Overflow, g)
					batch.Items[pos] = Lv1Item(-len(batch.Overflow))
				} else {
					batch.Items[pos] = Lv1Item(diff)
				}
			}
			last = g
			pos++
		}
	}
	return batch
}

// ResolveGlobalIndex decodes one Lv1Item back to its absolute ledger
// index, given the previous occurrence's absolute index in the same
// bucket (prev == -1 at the start of a bucket).
func ResolveGlobalIndex(item Lv1Item, prev int64) int64 {
	if prev == -1 {
		return int64(item)
	}
	if item < 0 {
		return -1 // caller must look this up via the overflow table instead
	}
	return prev + int64(item)
}
