package partitions

// Block splits n entries into numPartitions contiguous partitions whose
// sizes differ by at most one, the larger partitions first. The partition
// count is clamped to [1, max(n, 1)].
func Block(n, numPartitions int) PartitionLayout {
	if n < 0 {
		n = 0
	}
	numPartitions = max(1, min(numPartitions, max(n, 1)))

	base, extra := n/numPartitions, n%numPartitions
	pl := PartitionLayout{
		K:       make([]int, numPartitions),
		Offsets: make([]int, numPartitions+1),
	}
	for p := range pl.K {
		pl.K[p] = base
		if p < extra {
			pl.K[p]++
		}
		pl.Offsets[p+1] = pl.Offsets[p] + pl.K[p]
	}
	pl.KpartMax = calculateKpartMax(pl.K)
	return pl
}

// BySize splits n entries into the fewest partitions of at most
// targetPartitionSize entries each
func BySize(n, targetPartitionSize int) PartitionLayout {
	return Block(n, calculateNumPartitions(n, targetPartitionSize))
}

func calculateNumPartitions(n, targetPartitionSize int) int {
	if targetPartitionSize < 1 {
		return 1
	}
	// Ensure at least one partition
	return max(1, (n+targetPartitionSize-1)/targetPartitionSize)
}

// calculateKpartMax finds maximum entries across all partitions
func calculateKpartMax(k []int) int {
	kpartMax := 0
	for _, n := range k {
		kpartMax = max(kpartMax, n)
	}
	return kpartMax
}
