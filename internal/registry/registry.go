// Package registry maps (user, project) pairs onto isolated vector
// collections and records which embedding provider wrote each one.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/entity"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/lock"
	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/repository"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type Registry struct {
	repo             repository.RegistryRepository
	collectionPrefix string
	cache            *gocache.Cache
	locks            *lock.KeyedMutex
	logger           *zap.Logger
}

func New(repo repository.RegistryRepository, collectionPrefix string, logger *zap.Logger) *Registry {
	return &Registry{
		repo:             repo,
		collectionPrefix: collectionPrefix,
		cache:            gocache.New(cacheTTL, cacheCleanup),
		locks:            lock.NewKeyedMutex(),
		logger:           logger,
	}
}

// CollectionID derives the collection name deterministically from the owner
// and project name. The same pair always maps to the same collection, and
// hashing keeps arbitrary project names out of the store's naming rules.
func (r *Registry) CollectionID(user, project string) string {
	sum := sha256.Sum256([]byte(user + "_" + project))
	return r.collectionPrefix + hex.EncodeToString(sum[:])
}

// Ensure registers the project if it does not exist yet and returns its
// record. Re-registering an existing project is a no-op when the embedding
// provider and dimension match; a mismatch is rejected so a collection is
// never written with vectors from two different embedding spaces.
func (r *Registry) Ensure(ctx context.Context, user, project, provider string, dimension int) (*entity.Project, error) {
	unlock := r.locks.Lock(user + "/" + project)
	defer unlock()

	existing, err := r.lookupLocked(ctx, user, project)
	if err == nil {
		if existing.EmbeddingProvider != provider {
			return nil, fmt.Errorf("%w: collection written by %q, requested %q",
				entity.ErrEmbeddingProviderMismatch, existing.EmbeddingProvider, provider)
		}
		if existing.EmbeddingDimension != dimension {
			return nil, fmt.Errorf("%w: collection has %d dimensions, requested %d",
				entity.ErrDimensionMismatch, existing.EmbeddingDimension, dimension)
		}
		return existing, nil
	}
	if !errors.Is(err, entity.ErrProjectNotFound) {
		return nil, err
	}

	p := entity.Project{
		User:               user,
		Name:               project,
		CollectionID:       r.CollectionID(user, project),
		EmbeddingProvider:  provider,
		EmbeddingDimension: dimension,
		CreatedAt:          time.Now().UTC(),
	}
	if err := r.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	r.logger.Info("registered project",
		zap.String("user", user),
		zap.String("project", project),
		zap.String("collection_id", p.CollectionID))

	r.cache.Set(cacheKey(user, project), &p, gocache.DefaultExpiration)
	return &p, nil
}

// Lookup returns the project record, or ErrProjectNotFound.
func (r *Registry) Lookup(ctx context.Context, user, project string) (*entity.Project, error) {
	unlock := r.locks.Lock(user + "/" + project)
	defer unlock()
	return r.lookupLocked(ctx, user, project)
}

func (r *Registry) lookupLocked(ctx context.Context, user, project string) (*entity.Project, error) {
	if cached, ok := r.cache.Get(cacheKey(user, project)); ok {
		return cached.(*entity.Project), nil
	}

	p, err := r.repo.Get(ctx, user, project)
	if err != nil {
		return nil, err
	}

	r.cache.Set(cacheKey(user, project), p, gocache.DefaultExpiration)
	return p, nil
}

// Delete removes the project's registration. The caller tears down the
// collection and conversations; this only forgets the mapping.
func (r *Registry) Delete(ctx context.Context, user, project string) error {
	unlock := r.locks.Lock(user + "/" + project)
	defer unlock()

	r.cache.Delete(cacheKey(user, project))
	return r.repo.Delete(ctx, user, project)
}

func cacheKey(user, project string) string {
	return user + "/" + project
}
