package zkaccess

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkgate/v1/pkg/interfaces/access"
)

// ============================================================================
// worker_pool.go 测试
// ============================================================================

// TestVerifyWorkerPool_Process 测试并发处理混合请求
func TestVerifyWorkerPool_Process(t *testing.T) {
	f := setupFixture(t)
	gateway := newTestGateway(t, f)
	ctx := context.Background()

	require.NoError(t, gateway.Register(ctx, 67890, 5, []byte("doc")))

	grantProof, grantSignals := proveForTest(t, f, 10, 5, 67890)
	denyProof, denySignals := proveForTest(t, f, 3, 5, 67890)

	pool := NewVerifyWorkerPool(f.logger, gateway, 2, 16)
	pool.Start()

	var (
		mu       sync.Mutex
		grants   int
		denials  int
		failures int
		wg       sync.WaitGroup
	)
	callback := func(req *AccessRequest, decision *access.AccessDecision, err error) {
		mu.Lock()
		defer mu.Unlock()
		defer wg.Done()
		switch {
		case err != nil:
			failures++
		case decision.Granted:
			grants++
		default:
			denials++
		}
	}

	for i := 0; i < 4; i++ {
		wg.Add(2)
		require.NoError(t, pool.Submit(&AccessRequest{
			ResourceID:    67890,
			Proof:         grantProof,
			PublicSignals: grantSignals,
			Callback:      callback,
		}))
		require.NoError(t, pool.Submit(&AccessRequest{
			ResourceID:    67890,
			Proof:         denyProof,
			PublicSignals: denySignals,
			Callback:      callback,
		}))
	}

	wg.Wait()
	pool.Stop()

	require.Equal(t, 4, grants)
	require.Equal(t, 4, denials)
	require.Equal(t, 0, failures)

	stats := pool.Stats()
	require.Equal(t, int64(8), stats.Processed)
	require.Equal(t, int64(4), stats.Granted)
	require.Equal(t, int64(4), stats.Denied)
	require.Equal(t, int64(0), stats.Errors)
}

// TestVerifyWorkerPool_SubmitValidation 测试非法请求被拒绝
func TestVerifyWorkerPool_SubmitValidation(t *testing.T) {
	f := setupFixture(t)
	gateway := newTestGateway(t, f)

	pool := NewVerifyWorkerPool(f.logger, gateway, 1, 4)

	require.Error(t, pool.Submit(nil))
	require.Error(t, pool.Submit(&AccessRequest{ResourceID: 1}))
}

// TestVerifyWorkerPool_StopDeliversAllCallbacks 测试停机不吞回调
//
// Submit成功即承诺回调必达：与Stop竞争时已入队的请求
// 要么被worker处理，要么在停机排空时以错误回调收尾。
func TestVerifyWorkerPool_StopDeliversAllCallbacks(t *testing.T) {
	f := setupFixture(t)
	gateway := newTestGateway(t, f)
	ctx := context.Background()

	require.NoError(t, gateway.Register(ctx, 67890, 5, []byte("doc")))
	proof, signals := proveForTest(t, f, 10, 5, 67890)

	pool := NewVerifyWorkerPool(f.logger, gateway, 1, 32)
	pool.Start()

	var wg sync.WaitGroup
	submitted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		err := pool.Submit(&AccessRequest{
			ResourceID:    67890,
			Proof:         proof,
			PublicSignals: signals,
			Callback: func(*AccessRequest, *access.AccessDecision, error) {
				wg.Done()
			},
		})
		if err != nil {
			wg.Done()
			continue
		}
		submitted++
	}

	// 队列里还有积压就停机，排空逻辑必须把剩余回调全部送达
	pool.Stop()
	wg.Wait()

	// 正常处理计入Processed，停机排空计入Errors，两者合计覆盖全部提交
	stats := pool.Stats()
	require.Equal(t, 0, stats.Queued)
	require.Equal(t, int64(submitted), stats.Processed+stats.Errors)
}

// TestVerifyWorkerPool_SubmitAfterStop 测试停止后拒绝提交
func TestVerifyWorkerPool_SubmitAfterStop(t *testing.T) {
	f := setupFixture(t)
	gateway := newTestGateway(t, f)

	pool := NewVerifyWorkerPool(f.logger, gateway, 1, 4)
	pool.Start()
	pool.Stop()

	err := pool.Submit(&AccessRequest{
		ResourceID: 1,
		Callback:   func(*AccessRequest, *access.AccessDecision, error) {},
	})
	require.Error(t, err)
}
