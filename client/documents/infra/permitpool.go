package infra

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"document-gateway/client/documents/domain"

	"github.com/go-logr/logr"
)

type waiter struct {
	ready chan struct{}
	// granted e dequeued só mudam com mu travado, antes de close(ready).
	granted  bool
	dequeued bool
}

// PermitPool é o controlador de admissão: no máximo `limit` admissões por
// janela, com fila FIFO para quem espera.
//
// Invariante: 0 <= available <= limit, e available > 0 implica fila vazia.
// Acquire, Release e o tick da janela mutam o estado sob o mesmo mutex.
type PermitPool struct {
	mu        sync.Mutex
	limit     int
	available int
	waiters   list.List
	closed    bool

	window time.Duration
	policy domain.ResetPolicy
	log    logr.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ domain.PermitPool = (*PermitPool)(nil)

type PermitPoolOption func(*PermitPool)

// WithResetPolicy escolhe a política de reposição (padrão domain.ResetFull).
func WithResetPolicy(policy domain.ResetPolicy) PermitPoolOption {
	return func(p *PermitPool) { p.policy = policy }
}

func WithPoolLogger(l logr.Logger) PermitPoolOption {
	return func(p *PermitPool) { p.log = l }
}

// NewPermitPool cria o pool com requestLimit permits e inicia o timer da
// janela. Pare com Close.
func NewPermitPool(window domain.Window, requestLimit int, opts ...PermitPoolOption) (*PermitPool, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if requestLimit < 1 {
		return nil, fmt.Errorf("%w: request limit must be >= 1, got %d", domain.ErrConfiguration, requestLimit)
	}

	p := &PermitPool{
		limit:     requestLimit,
		available: requestLimit,
		window:    window.Duration(),
		policy:    domain.ResetFull,
		log:       logr.Discard(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy != domain.ResetFull && p.policy != domain.Drip {
		return nil, fmt.Errorf("%w: unsupported reset policy %s", domain.ErrConfiguration, p.policy)
	}
	p.waiters.Init()

	go p.loop(time.NewTicker(p.window))
	return p, nil
}

func (p *PermitPool) Limit() int { return p.limit }

func (p *PermitPool) Window() time.Duration { return p.window }

func (p *PermitPool) Policy() domain.ResetPolicy { return p.policy }

// Available retorna quantos permits podem ser adquiridos sem esperar.
func (p *PermitPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// Waiting retorna quantos chamadores estão bloqueados em Acquire.
func (p *PermitPool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiters.Len()
}

// Acquire bloqueia até obter um permit ou até o ctx encerrar.
//
// Se o ctx encerrar durante a espera, retorna um erro que casa com
// domain.ErrCancelled e com ctx.Err(); nenhum permit fica consumido.
func (p *PermitPool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrClosed
	}
	if p.available > 0 && p.waiters.Len() == 0 {
		p.available--
		p.mu.Unlock()
		return nil
	}
	w := &waiter{ready: make(chan struct{})}
	elem := p.waiters.PushBack(w)
	p.mu.Unlock()

	select {
	case <-w.ready:
		if w.granted {
			return nil
		}
		return domain.ErrClosed
	case <-ctx.Done():
		p.mu.Lock()
		defer p.mu.Unlock()
		switch {
		case w.granted:
			// o grant correu com o cancelamento: o permit volta para o pool.
			p.releaseLocked()
		case !w.dequeued:
			p.waiters.Remove(elem)
		}
		return cancelled(ctx.Err())
	}
}

// Release devolve um permit: entrega direto ao waiter mais antigo ou
// incrementa o pool sem passar de limit. Nunca bloqueia.
func (p *PermitPool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

func (p *PermitPool) releaseLocked() {
	if p.closed {
		return
	}
	if w := p.dequeueLocked(); w != nil {
		p.grantLocked(w)
		return
	}
	if p.available < p.limit {
		p.available++
	}
}

// tick é o callback da janela.
func (p *PermitPool) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.policy == domain.Drip {
		p.releaseLocked()
		return
	}

	p.available = p.limit
	woken := 0
	for p.available > 0 {
		w := p.dequeueLocked()
		if w == nil {
			break
		}
		p.grantLocked(w)
		p.available--
		woken++
	}
	p.log.V(2).Info("admission window reset", "limit", p.limit, "woken", woken, "waiting", p.waiters.Len())
}

func (p *PermitPool) dequeueLocked() *waiter {
	front := p.waiters.Front()
	if front == nil {
		return nil
	}
	w := p.waiters.Remove(front).(*waiter)
	w.dequeued = true
	return w
}

func (p *PermitPool) grantLocked(w *waiter) {
	w.granted = true
	close(w.ready)
}

func (p *PermitPool) loop(t *time.Ticker) {
	defer close(p.done)
	defer t.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-t.C:
			p.tick()
		}
	}
}

// Close para o timer e acorda todos os waiters com domain.ErrClosed.
// Chamadas repetidas não têm efeito.
func (p *PermitPool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		for w := p.dequeueLocked(); w != nil; w = p.dequeueLocked() {
			close(w.ready)
		}
		p.mu.Unlock()

		close(p.stop)
		<-p.done
	})
	return nil
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrCancelled, err)
}
