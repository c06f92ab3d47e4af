package data

import (
	"context"
	"fmt"

	"github.com/jhoicas/webapi-poc/internal/domain"
	"github.com/jhoicas/webapi-poc/internal/domain/repository"
)

type entryState int

const (
	stateUnchanged entryState = iota // cargada o guardada; se compara con snapshot al guardar
	stateAdded
	stateDeleted
)

type entry[T any] struct {
	entity   *T
	snapshot T
	state    entryState
}

// meta describe cómo rastrear un tipo de entidad sin agregarle métodos.
type meta[T any] struct {
	name    string
	repo    func(repository.Repositories) repository.Repository[T]
	id      func(*T) int64
	clone   func(*T) T
	changed func(current, snapshot *T) bool
	prepare func(*T)        // resuelve claves foráneas desde la navegación; puede ser nil
	undo    func(*T) func() // restauración a medida; nil copia la entidad completa
}

// tracker es la parte de Set que usa SaveChanges, independiente del tipo.
type tracker interface {
	pending() int
	purge(ctx context.Context, repos repository.Repositories) (int, error)
	upsert(ctx context.Context, repos repository.Repositories, undo *undoLog) (int, error)
	accept()
	reset()
}

// Set es la colección rastreada de un tipo de entidad dentro de un Context.
// El ID de una entidad rastreada no debe modificarse a mano.
type Set[T any] struct {
	owner   *Context
	meta    meta[T]
	entries []*entry[T]
	byPtr   map[*T]*entry[T]
	byID    map[int64]*entry[T]
}

func newSet[T any](owner *Context, m meta[T]) *Set[T] {
	return &Set[T]{
		owner: owner,
		meta:  m,
		byPtr: make(map[*T]*entry[T]),
		byID:  make(map[int64]*entry[T]),
	}
}

// Add registra una entidad nueva; se inserta en el próximo SaveChanges.
// La entidad no debe tener ID: lo asigna el almacén.
func (s *Set[T]) Add(e *T) error {
	if err := s.owner.checkOpen(); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%s nil: %w", s.meta.name, domain.ErrInvalidInput)
	}
	if en, ok := s.byPtr[e]; ok {
		if en.state == stateDeleted {
			en.state = stateUnchanged
		}
		return nil
	}
	if id := s.meta.id(e); id != 0 {
		return fmt.Errorf("%s con ID %d ya asignado: %w", s.meta.name, id, domain.ErrInvalidInput)
	}
	s.track(e, stateAdded)
	return nil
}

// Find devuelve la entidad con ese ID: la instancia rastreada si existe o, si no,
// la fila del almacén (que pasa a rastrearse). Devuelve domain.ErrNotFound si no existe.
func (s *Set[T]) Find(ctx context.Context, id int64) (*T, error) {
	if err := s.owner.checkOpen(); err != nil {
		return nil, err
	}
	if en, ok := s.byID[id]; ok {
		if en.state == stateDeleted {
			return nil, fmt.Errorf("%s %d: %w", s.meta.name, id, domain.ErrNotFound)
		}
		return en.entity, nil
	}
	if id <= 0 {
		return nil, fmt.Errorf("%s %d: %w", s.meta.name, id, domain.ErrNotFound)
	}
	e, err := s.meta.repo(s.owner.store.Repositories()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%s %d: %w", s.meta.name, id, domain.ErrNotFound)
	}
	s.track(e, stateUnchanged)
	return e, nil
}

// List lee una página del almacén ordenada por ID. Las filas ya rastreadas se devuelven
// como la instancia rastreada; las marcadas para eliminar se omiten.
func (s *Set[T]) List(ctx context.Context, limit, offset int) ([]*T, error) {
	if err := s.owner.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.meta.repo(s.owner.store.Repositories()).List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, e := range rows {
		if en, ok := s.byID[s.meta.id(e)]; ok {
			if en.state != stateDeleted {
				out = append(out, en.entity)
			}
			continue
		}
		s.track(e, stateUnchanged)
		out = append(out, e)
	}
	return out, nil
}

// Remove marca una entidad para eliminar en el próximo SaveChanges.
// Una entidad agregada y aún no guardada simplemente deja de rastrearse.
func (s *Set[T]) Remove(e *T) error {
	if err := s.owner.checkOpen(); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%s nil: %w", s.meta.name, domain.ErrInvalidInput)
	}
	en, ok := s.byPtr[e]
	if !ok {
		id := s.meta.id(e)
		if id == 0 {
			return fmt.Errorf("%s sin ID y no rastreado: %w", s.meta.name, domain.ErrInvalidInput)
		}
		if other, ok := s.byID[id]; ok {
			other.state = stateDeleted
			return nil
		}
		s.track(e, stateDeleted)
		return nil
	}
	if en.state == stateAdded {
		s.untrack(en)
		return nil
	}
	en.state = stateDeleted
	return nil
}

// Local devuelve las entidades rastreadas que no están marcadas para eliminar.
func (s *Set[T]) Local() []*T {
	out := make([]*T, 0, len(s.entries))
	for _, en := range s.entries {
		if en.state != stateDeleted {
			out = append(out, en.entity)
		}
	}
	return out
}

func (s *Set[T]) track(e *T, st entryState) {
	en := &entry[T]{entity: e, snapshot: s.meta.clone(e), state: st}
	s.entries = append(s.entries, en)
	s.byPtr[e] = en
	if id := s.meta.id(e); id != 0 {
		s.byID[id] = en
	}
}

func (s *Set[T]) untrack(target *entry[T]) {
	for i, en := range s.entries {
		if en == target {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	delete(s.byPtr, target.entity)
	if id := s.meta.id(target.entity); id != 0 && s.byID[id] == target {
		delete(s.byID, id)
	}
}

func (s *Set[T]) pending() int {
	n := 0
	for _, en := range s.entries {
		switch en.state {
		case stateAdded, stateDeleted:
			n++
		default:
			if s.modified(en) {
				n++
			}
		}
	}
	return n
}

func (s *Set[T]) modified(en *entry[T]) bool {
	if s.meta.prepare == nil {
		return s.meta.changed(en.entity, &en.snapshot)
	}
	probe := s.meta.clone(en.entity)
	s.meta.prepare(&probe)
	return s.meta.changed(&probe, &en.snapshot)
}

func (s *Set[T]) purge(ctx context.Context, repos repository.Repositories) (int, error) {
	repo := s.meta.repo(repos)
	n := 0
	for _, en := range s.entries {
		if en.state != stateDeleted {
			continue
		}
		if err := repo.Delete(ctx, s.meta.id(en.entity)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Set[T]) upsert(ctx context.Context, repos repository.Repositories, undo *undoLog) (int, error) {
	repo := s.meta.repo(repos)
	n := 0
	for _, en := range s.entries {
		switch en.state {
		case stateAdded:
			s.remember(en.entity, undo)
			if s.meta.prepare != nil {
				s.meta.prepare(en.entity)
			}
			if err := repo.Create(ctx, en.entity); err != nil {
				return n, err
			}
			n++
		case stateUnchanged:
			if !s.modified(en) {
				continue
			}
			s.remember(en.entity, undo)
			if s.meta.prepare != nil {
				s.meta.prepare(en.entity)
			}
			if err := repo.Update(ctx, en.entity); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func (s *Set[T]) remember(e *T, undo *undoLog) {
	if s.meta.undo != nil {
		undo.push(s.meta.undo(e))
		return
	}
	prev := s.meta.clone(e)
	undo.push(func() { *e = prev })
}

// accept consolida el estado tras un commit exitoso.
func (s *Set[T]) accept() {
	kept := s.entries[:0]
	for _, en := range s.entries {
		id := s.meta.id(en.entity)
		if en.state == stateDeleted {
			delete(s.byPtr, en.entity)
			delete(s.byID, id)
			continue
		}
		en.state = stateUnchanged
		en.snapshot = s.meta.clone(en.entity)
		s.byID[id] = en
		kept = append(kept, en)
	}
	clear(s.entries[len(kept):])
	s.entries = kept
}

func (s *Set[T]) reset() {
	s.entries = nil
	clear(s.byPtr)
	clear(s.byID)
}
