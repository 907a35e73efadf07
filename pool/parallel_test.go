// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParallelPoolBoundsConcurrency(t *testing.T) {
	var inFlight int32
	var maxSeen int32

	p := New(func(ctx context.Context, item int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&maxSeen)
			if cur <= old || atomic.CompareAndSwapInt32(&maxSeen, old, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return item * 2, nil
	}, 3)

	ctx := context.Background()
	futures := make([]*Future[int], 10)
	for i := 0; i < 10; i++ {
		futures[i] = p.Queue(ctx, i)
	}
	for _, f := range futures {
		_, err := f.Wait(ctx)
		require.NoError(t, err)
	}

	require.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(3))
}

func TestParallelPoolFlushNeverErrors(t *testing.T) {
	p := New(func(ctx context.Context, item int) (int, error) {
		if item == 2 {
			return 0, context.DeadlineExceeded
		}
		return item, nil
	}, 2)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p.Queue(ctx, i)
	}
	require.NotPanics(t, func() { p.Flush() })
	require.Equal(t, 0, p.GetQueueLength())
}

func TestParallelPoolStartsInEnqueueOrder(t *testing.T) {
	var mu sync.Mutex
	var startOrder []int

	started := make(chan struct{})
	release := make(chan struct{})

	p := New(func(ctx context.Context, item int) (int, error) {
		mu.Lock()
		startOrder = append(startOrder, item)
		mu.Unlock()
		started <- struct{}{}
		<-release
		return item, nil
	}, 1)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p.Queue(ctx, i)
		<-started
		release <- struct{}{}
	}

	require.Equal(t, []int{0, 1, 2, 3, 4}, startOrder)
}

func TestQueueListPreservesOrder(t *testing.T) {
	p := New(func(ctx context.Context, item int) (int, error) {
		time.Sleep(time.Duration(5-item) * time.Millisecond)
		return item * 10, nil
	}, 5)

	ctx := context.Background()
	future := p.QueueList(ctx, []int{0, 1, 2, 3, 4})
	results, err := future.Wait(ctx)
	require.NoError(t, err)
	for i, r := range results {
		require.Equal(t, i*10, r.Value)
		require.NoError(t, r.Err)
	}
}
