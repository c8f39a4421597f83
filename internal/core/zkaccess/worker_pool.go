package zkaccess

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/zkgate/v1/pkg/interfaces/access"
	"github.com/zkgate/v1/pkg/interfaces/infrastructure/log"
)

// ============================================================================
// 访问验证工作线程池
// ============================================================================
//
// 🎯 **设计目的**：
// 配对验证是CPU密集操作，串行处理会把高峰期请求堆在一个核上。
// 线程池用固定数量的worker并发消费验证请求，避免goroutine无界增长。
//
// ⚠️ **注意**：
// - 队列满时Submit立即报错，由调用方决定降级策略
// - Stop会等待在途任务完成后才返回
//
// ============================================================================

// DecisionCallback 访问判定完成回调函数
//
// 📋 **参数**：
//   - req: 请求实例
//   - decision: 判定结果（成功时非nil）
//   - err: 错误信息（失败时非nil）
type DecisionCallback func(req *AccessRequest, decision *access.AccessDecision, err error)

// AccessRequest 待验证的访问请求
type AccessRequest struct {
	// ResourceID 目标资源
	ResourceID uint64

	// Proof 权限阈值证明
	Proof *access.ThresholdProof

	// PublicSignals 公开信号向量
	PublicSignals []*big.Int

	// Callback 判定完成回调
	Callback DecisionCallback
}

// VerifyWorkerPool 访问验证线程池
type VerifyWorkerPool struct {
	logger  log.Logger
	gateway *Gateway

	workers int
	queue   chan *AccessRequest

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// mu 把Submit与Stop串行化：stopped置位后不再有新请求入队，
	// 避免worker退出后入队的请求永远等不到回调
	mu      sync.RWMutex
	stopped bool

	// 统计信息
	processedCount atomic.Int64
	grantedCount   atomic.Int64
	deniedCount    atomic.Int64
	errorCount     atomic.Int64
}

// NewVerifyWorkerPool 创建验证线程池
func NewVerifyWorkerPool(logger log.Logger, gateway *Gateway, workers, queueLen int) *VerifyWorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueLen < 1 {
		queueLen = workers
	}
	return &VerifyWorkerPool{
		logger:  logger,
		gateway: gateway,
		workers: workers,
		queue:   make(chan *AccessRequest, queueLen),
		stopCh:  make(chan struct{}),
	}
}

// Start 启动全部工作线程
func (p *VerifyWorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.Infof("验证线程池已启动: workers=%d, queue=%d", p.workers, cap(p.queue))
}

// Stop 停止线程池，等待在途任务完成
//
// worker退出后再排空一次队列，与Submit竞争停机时
// 已入队的请求也会以错误回调收尾，不会被静默丢弃。
func (p *VerifyWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.stopCh)
		p.mu.Unlock()
	})
	p.wg.Wait()

	for {
		select {
		case req := <-p.queue:
			p.errorCount.Add(1)
			req.Callback(req, nil, fmt.Errorf("线程池已停止"))
		default:
			p.logger.Infof("验证线程池已停止: processed=%d", p.processedCount.Load())
			return
		}
	}
}

// Submit 提交访问请求
//
// 队列满时立即报错而不是阻塞，调用方据此做背压处理。
func (p *VerifyWorkerPool) Submit(req *AccessRequest) error {
	if req == nil || req.Callback == nil {
		return fmt.Errorf("非法请求: 缺少回调")
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return fmt.Errorf("线程池已停止")
	}

	select {
	case p.queue <- req:
		return nil
	default:
		return fmt.Errorf("验证队列已满: capacity=%d", cap(p.queue))
	}
}

// run 工作线程主循环
func (p *VerifyWorkerPool) run(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			// 排空队列中已提交的请求
			for {
				select {
				case req := <-p.queue:
					p.process(workerID, req)
				default:
					return
				}
			}
		case req := <-p.queue:
			p.process(workerID, req)
		}
	}
}

// process 处理单个访问请求
func (p *VerifyWorkerPool) process(workerID int, req *AccessRequest) {
	decision, err := p.gateway.RequestAccess(context.Background(), req.ResourceID, req.Proof, req.PublicSignals)

	p.processedCount.Add(1)
	switch {
	case err != nil:
		p.errorCount.Add(1)
		p.logger.Debugf("worker %d: 访问请求出错: resource=%d, err=%v", workerID, req.ResourceID, err)
	case decision.Granted:
		p.grantedCount.Add(1)
	default:
		p.deniedCount.Add(1)
	}

	req.Callback(req, decision, err)
}

// PoolStats 线程池统计信息
type PoolStats struct {
	Workers   int   `json:"workers"`
	Queued    int   `json:"queued"`
	Processed int64 `json:"processed"`
	Granted   int64 `json:"granted"`
	Denied    int64 `json:"denied"`
	Errors    int64 `json:"errors"`
}

// Stats 导出当前统计信息
func (p *VerifyWorkerPool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Queued:    len(p.queue),
		Processed: p.processedCount.Load(),
		Granted:   p.grantedCount.Load(),
		Denied:    p.deniedCount.Load(),
		Errors:    p.errorCount.Load(),
	}
}
