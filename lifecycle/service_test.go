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

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingService struct {
	name     string
	order    *[]string
	mu       *sync.Mutex
	done     bool
	startErr error
	stopErr  error
}

func (s *recordingService) Start(ctx context.Context) error {
	s.mu.Lock()
	*s.order = append(*s.order, "start:"+s.name)
	s.mu.Unlock()
	return s.startErr
}

func (s *recordingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	*s.order = append(*s.order, "stop:"+s.name)
	s.mu.Unlock()
	s.done = true
	return s.stopErr
}

func (s *recordingService) Done() bool { return s.done }

func TestStartForwardStopReverseOrder(t *testing.T) {
	var order []string
	var mu sync.Mutex
	base := NewBaseService(nil)
	base.AddChild(&recordingService{name: "a", order: &order, mu: &mu})
	base.AddChild(&recordingService{name: "b", order: &order, mu: &mu})
	base.AddChild(&recordingService{name: "c", order: &order, mu: &mu})

	require.NoError(t, base.Start(context.Background()))
	require.NoError(t, base.Stop(context.Background()))

	require.Equal(t, []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}, order)
}

func TestStopSkipsAlreadyDoneChild(t *testing.T) {
	var order []string
	var mu sync.Mutex
	base := NewBaseService(nil)
	already := &recordingService{name: "done-already", order: &order, mu: &mu, done: true}
	base.AddChild(already)
	base.AddChild(&recordingService{name: "fresh", order: &order, mu: &mu})

	require.NoError(t, base.Stop(context.Background()))
	require.Equal(t, []string{"stop:fresh"}, order)
}

func TestStartAbortsOnFirstError(t *testing.T) {
	var order []string
	var mu sync.Mutex
	base := NewBaseService(nil)
	base.AddChild(&recordingService{name: "a", order: &order, mu: &mu})
	base.AddChild(&recordingService{name: "fails", order: &order, mu: &mu, startErr: errors.New("boom")})
	base.AddChild(&recordingService{name: "never", order: &order, mu: &mu})

	err := base.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"start:a", "start:fails"}, order)
}

func TestServiceNeverStoppedTwice(t *testing.T) {
	base := NewBaseService(nil)
	require.NoError(t, base.Stop(context.Background()))
	require.True(t, base.Done())
	require.NoError(t, base.Stop(context.Background())) // second call is a no-op
}

func TestStartLoopDropsOverlappingIterations(t *testing.T) {
	base := NewBaseService(nil)
	var count int32
	var mu sync.Mutex
	release := make(chan struct{})

	base.StartLoop(context.Background(), time.Millisecond, time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		count++
		mu.Unlock()
		<-release
		return nil
	}, IterationOptions{})

	time.Sleep(20 * time.Millisecond)
	base.StopLoop()
	close(release)
	time.Sleep(5 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, int32(1), count, "overlapping iterations must be dropped, not queued")
}

func TestStartLoopAllowsParallelIterations(t *testing.T) {
	base := NewBaseService(nil)
	var count int32
	var mu sync.Mutex

	base.StartLoop(context.Background(), time.Millisecond, 2*time.Millisecond, func(ctx context.Context) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}, IterationOptions{AllowParallelIterations: true})

	time.Sleep(30 * time.Millisecond)
	base.StopLoop()

	mu.Lock()
	defer mu.Unlock()
	require.Greater(t, count, int32(1))
}
