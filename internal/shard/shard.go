// Package shard maps keys to servers.
package shard

import "github.com/zeebo/xxh3"

// Index returns the bucket of key among n buckets, in [0, n).
// Returns 0 when n <= 0.
func Index(key string, n int) int {
	return JumpHash(xxh3.HashString(key), n)
}

// JumpHash implements the Jump consistent hashing algorithm.
// Copied from: https://github.com/dgryski/go-jump
// Google's "Jump" Consistent Hash function: https://arxiv.org/abs/1406.2294
//
// When n grows to n+1, only about 1/(n+1) of the keys move, all of them to
// the new bucket.
func JumpHash(key uint64, numBuckets int) int {
	if numBuckets <= 0 {
		return 0
	}

	var b int64 = -1
	var j int64

	for j < int64(numBuckets) {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}

	return int(b)
}
