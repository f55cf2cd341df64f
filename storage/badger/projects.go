package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
)

// ProjectRepository implements storage.ProjectRepository for BadgerDB.
type ProjectRepository struct {
	backend *Backend
}

var _ storage.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(backend *Backend) *ProjectRepository {
	return &ProjectRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *ProjectRepository) Close() error {
	return nil
}

// GetProject retrieves a project by name.
func (r *ProjectRepository) GetProject(ctx context.Context, name string) (*core.Project, error) {
	var result *core.Project
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProject(tx, makeProjectKey(name))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListProjects retrieves all projects, ordered by name.
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]*core.Project, error) {
	var results []*core.Project
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(projectPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var project *core.Project
			err := iter.Item().Value(func(val []byte) error {
				var err error
				project, err = storage.UnmarshalProject(val)
				return err
			})
			if err != nil {
				return err
			}
			if project != nil {
				results = append(results, project)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Project) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

// AddProject persists a new project.
func (r *ProjectRepository) AddProject(ctx context.Context, project *core.Project) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProjectKey(project.Name)

		existing, err := readProject(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrDuplicateKey
		}

		project.CreatedAt = time.Now().UTC()
		project.UpdatedAt = project.CreatedAt

		if err := tx.Set(key, storage.MarshalProject(project)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateProject replaces the stored record for the project's name.
func (r *ProjectRepository) UpdateProject(ctx context.Context, project *core.Project) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProjectKey(project.Name)

		old, err := readProject(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		project.CreatedAt = old.CreatedAt
		project.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalProject(project)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteProject removes a project by name.
func (r *ProjectRepository) DeleteProject(ctx context.Context, name string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeProjectKey(name)

		existing, err := readProject(tx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readProject reads a project from the transaction.
// Returns nil without error when the key is absent.
func readProject(tx *badger.Txn, key []byte) (*core.Project, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var project *core.Project
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		project, unmarshalErr = storage.UnmarshalProject(val)
		return unmarshalErr
	})
	return project, err
}
