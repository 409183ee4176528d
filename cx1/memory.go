package cx1

import "fmt"

// MemFlag selects how aggressively the planner claims host memory for
// lv1/lv2 buffers, mirroring MEGAHIT's cfg.mem_flag three-way
// switch (0 = conservative, 1 = auto/measured, 2 = use nearly all of
// it).
type MemFlag int

const (
	// MemFlagMin claims a fixed conservative fraction of HostMemBytes.
	MemFlagMin MemFlag = iota
	// MemFlagAuto sizes the budget from the observed total occurrence
	// count, so small inputs don't reserve more than they need.
	MemFlagAuto
	// MemFlagAll claims nearly all of HostMemBytes.
	MemFlagAll
)

// MemoryOptions configures phase 2.
type MemoryOptions struct {
	HostMemBytes   int64
	ReservedBytes  int64 // held back for the resident packed-sequence data etc.
	BytesPerLv1Item int64 // differential-offset or overflow-index slot width
	BytesPerLv2Item int64 // strided substring words + side arrays, per item
	MemFlag        MemFlag
}

// MemoryPlan is the phase-2 output: how many lv1/lv2 items a single
// batch may hold, and the bucket ranges that respects that budget.
type MemoryPlan struct {
	MaxItemsPerBatch int64
	Batches          [][2]int // half-open [startBucket, endBucket) ranges, in ascending order
}

// Plan computes a MemoryPlan from per-bucket occurrence counts. It
// never splits a single bucket across two batches (a bucket must be
// fully resident to sort its (k-1)-core group), so a bucket larger
// than MaxItemsPerBatch gets a batch of its own.
func Plan(bucketSizes []int64, opts MemoryOptions) (MemoryPlan, error) {
	var total int64
	for _, c := range bucketSizes {
		total += c
	}

	budget, err := adjustMem(total, opts)
	if err != nil {
		return MemoryPlan{}, err
	}

	plan := MemoryPlan{MaxItemsPerBatch: budget}
	start := 0
	var acc int64
	for i, c := range bucketSizes {
		if acc > 0 && acc+c > budget {
			plan.Batches = append(plan.Batches, [2]int{start, i})
			start = i
			acc = 0
		}
		acc += c
	}
	if start < len(bucketSizes) {
		plan.Batches = append(plan.Batches, [2]int{start, len(bucketSizes)})
	}
	return plan, nil
}

func adjustMem(totalItems int64, opts MemoryOptions) (int64, error) {
	usable := opts.HostMemBytes - opts.ReservedBytes
	if usable <= 0 {
		return 0, fmt.Errorf("cx1: host memory budget %d too small after reserving %d bytes", opts.HostMemBytes, opts.ReservedBytes)
	}
	perItem := opts.BytesPerLv1Item + opts.BytesPerLv2Item
	if perItem <= 0 {
		return 0, fmt.Errorf("cx1: per-item byte size must be positive")
	}

	var budget int64
	switch opts.MemFlag {
	case MemFlagMin:
		budget = usable / 4 / perItem
	case MemFlagAll:
		budget = usable * 9 / 10 / perItem
	default: // MemFlagAuto
		measured := totalItems
		fitsAll := measured * perItem
		if fitsAll <= usable/2 {
			budget = measured
		} else {
			budget = usable / 2 / perItem
		}
	}
	if budget < 1 {
		budget = 1
	}
	return budget, nil
}
