package utils

// PartitionMap splits the index range [0, MaxIndex) into ParallelDegree
// contiguous buckets whose sizes differ by at most one
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// GetBucket finds the bucket holding index k, bucketNum is -1 when k is out of range
func (pm *PartitionMap) GetBucket(k int) (bucketNum, kMin, kMax int) {
	if k < 0 || k >= pm.MaxIndex {
		return -1, 0, 0
	}
	// Initial guess, off by at most one bucket
	bucketNum = min(pm.ParallelDegree*k/pm.MaxIndex, pm.ParallelDegree-1)
	for {
		kMin, kMax = pm.GetBucketRange(bucketNum)
		switch {
		case k < kMin:
			bucketNum--
		case k >= kMax:
			bucketNum++
		default:
			return
		}
	}
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) int {
	kMin, kMax := pm.GetBucketRange(bn)
	return kMax - kMin
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	var (
		Npart            = pm.MaxIndex / pm.ParallelDegree
		remainder        = pm.MaxIndex % pm.ParallelDegree
		startAdd, endAdd int
	)
	// spread the remainder over the first buckets
	if threadNum < remainder {
		startAdd, endAdd = threadNum, 1
	} else {
		startAdd = remainder
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
