package streams

import (
	"context"
	"encoding/binary"
	"hash/fnv"
)

// PartitionedQueue routes messages with the same key to the same partition,
// so their relative order survives draining.
type PartitionedQueue[T any] struct {
	partitions []chan T
}

func newPartitionedQueue[T any](numPartitions, buffer int) *PartitionedQueue[T] {
	channels := make([]chan T, numPartitions)
	for i := range channels {
		channels[i] = make(chan T, buffer)
	}
	return &PartitionedQueue[T]{partitions: channels}
}

const (
	defaultNumPartitions = 8
	defaultBuffer        = 1024
)

func NewPartitionedQueue[T any]() *PartitionedQueue[T] {
	return newPartitionedQueue[T](defaultNumPartitions, defaultBuffer)
}

func (queue *PartitionedQueue[T]) PartitionCount() int { return len(queue.partitions) }

// Len is the number of buffered messages across all partitions.
func (queue *PartitionedQueue[T]) Len() int {
	n := 0
	for _, ch := range queue.partitions {
		n += len(ch)
	}
	return n
}

// Publish blocks until the partition has room or ctx is done.
func (queue *PartitionedQueue[T]) Publish(ctx context.Context, partitionKey string, msg T) error {
	idx := partitionIndex(partitionKey, len(queue.partitions))
	select {
	case queue.partitions[idx] <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain takes up to limit buffered messages without blocking. Partitions are
// emptied one after another, so per-key order is kept. limit <= 0 drains all.
func (queue *PartitionedQueue[T]) Drain(limit int) []T {
	var out []T
	for _, ch := range queue.partitions {
		out = drainPartition(ch, out, limit)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func drainPartition[T any](ch chan T, out []T, limit int) []T {
	for limit <= 0 || len(out) < limit {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
	return out
}

func (queue *PartitionedQueue[T]) Close() {
	for _, ch := range queue.partitions {
		close(ch)
	}
}

func partitionIndex(key string, n int) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	sum := hash.Sum(nil)
	v := binary.LittleEndian.Uint32(sum)
	return int(v % uint32(n))
}
