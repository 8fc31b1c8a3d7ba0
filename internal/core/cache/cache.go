// package cache/cache.go

package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"dashboard-service/internal/domain"
)

// LoadFunc reconstrói o blob completo a partir da fonte de dados.
type LoadFunc func(ctx context.Context) (domain.DataBlob, error)

// DefaultTTL é a validade do blob quando nenhuma for configurada.
const DefaultTTL = 5 * time.Minute

// Store guarda o último blob montado e decide quando reconstruí-lo. Com o
// cache morno as leituras nunca bloqueiam: o conteúdo vencido continua sendo
// servido enquanto uma única reconstrução roda em segundo plano.
type Store struct {
	load   LoadFunc
	ttl    time.Duration
	logger *zap.Logger

	group singleflight.Group

	mu       sync.RWMutex
	blob     domain.DataBlob
	loadedAt time.Time
}

func NewStore(load LoadFunc, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{load: load, ttl: ttl, logger: logger}
}

// Get devolve o blob atual. Cache frio bloqueia até a primeira carga; cache
// vencido devolve o conteúdo anterior e dispara a renovação assíncrona.
func (s *Store) Get(ctx context.Context) (domain.DataBlob, error) {
	s.mu.RLock()
	blob := s.blob
	loadedAt := s.loadedAt
	s.mu.RUnlock()

	if !loadedAt.IsZero() {
		if time.Since(loadedAt) < s.ttl {
			return blob, nil
		}
		go func() {
			// Desacoplado do ctx do chamador: a resposta já foi servida.
			if _, err := s.refresh(context.Background()); err != nil {
				s.logger.Warn("renovação assíncrona do blob falhou", zap.Error(err))
			}
		}()
		return blob, nil
	}

	return s.refresh(ctx)
}

// Refresh força uma reconstrução imediata, mesmo com o cache ainda válido.
// Reconstruções simultâneas são colapsadas em uma só; em caso de falha o blob
// anterior é mantido e devolvido junto com o erro.
func (s *Store) Refresh(ctx context.Context) (domain.DataBlob, error) {
	return s.refresh(ctx)
}

// LoadedAt informa quando o blob atual foi montado; zero se nunca houve carga.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

func (s *Store) refresh(ctx context.Context) (domain.DataBlob, error) {
	v, err, _ := s.group.Do("blob", func() (interface{}, error) {
		blob, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.blob = blob
		s.loadedAt = time.Now()
		s.mu.Unlock()
		return blob, nil
	})
	if err != nil {
		s.mu.RLock()
		prev := s.blob
		hasPrev := !s.loadedAt.IsZero()
		s.mu.RUnlock()
		if hasPrev {
			return prev, err
		}
		return domain.DataBlob{}, err
	}
	return v.(domain.DataBlob), nil
}
