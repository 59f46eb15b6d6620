// Package memory implementa los puertos de persistencia sobre mapas en memoria,
// con un TxRunner de copia y reemplazo que reproduce la semántica de
// Commit/Rollback. Pensado para tests y para correr la API sin PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jmoreno/kardex-api/internal/application/ledger"
	"github.com/jmoreno/kardex-api/internal/domain"
	"github.com/jmoreno/kardex-api/internal/domain/entity"
	"github.com/jmoreno/kardex-api/internal/domain/repository"
)

var _ ledger.TxRunner = (*Store)(nil)

var (
	_ repository.LocationRepository = (*locationRepo)(nil)
	_ repository.MovementRepository = (*movementRepo)(nil)
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.UserRepository     = (*userRepo)(nil)
)

// Store estado compartido protegido por mutex. Los repositorios se obtienen con
// Locations()/Movements()/Products()/Users(); Run ejecuta una transacción sobre
// una copia del estado y la publica solo si fn termina sin error.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	locations    map[string]entity.Location
	products     map[int64]entity.Product
	movements    map[int64]entity.Movement
	users        map[int64]entity.User
	nextProduct  int64
	nextMovement int64
	nextUser     int64
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: &state{
		locations:    make(map[string]entity.Location),
		products:     make(map[int64]entity.Product),
		movements:    make(map[int64]entity.Movement),
		users:        make(map[int64]entity.User),
		nextProduct:  1,
		nextMovement: 1,
		nextUser:     1,
	}}
}

func (st *state) clone() *state {
	cp := &state{
		locations:    make(map[string]entity.Location, len(st.locations)),
		products:     make(map[int64]entity.Product, len(st.products)),
		movements:    make(map[int64]entity.Movement, len(st.movements)),
		users:        make(map[int64]entity.User, len(st.users)),
		nextProduct:  st.nextProduct,
		nextMovement: st.nextMovement,
		nextUser:     st.nextUser,
	}
	for k, v := range st.locations {
		cp.locations[k] = v
	}
	for k, v := range st.products {
		cp.products[k] = v
	}
	for k, v := range st.movements {
		cp.movements[k] = cloneMovement(v)
	}
	for k, v := range st.users {
		cp.users[k] = v
	}
	return cp
}

// cloneMovement copia también los punteros opcionales para que una tx no
// comparta memoria con el estado publicado.
func cloneMovement(m entity.Movement) entity.Movement {
	if m.FromLocation != nil {
		v := *m.FromLocation
		m.FromLocation = &v
	}
	if m.ToLocation != nil {
		v := *m.ToLocation
		m.ToLocation = &v
	}
	return m
}

// Run ejecuta fn sobre una copia del estado; si fn devuelve nil la copia se
// publica (commit), si no se descarta (rollback). El mutex serializa las
// transacciones: contención de grano grueso, suficiente para un doble de test.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	locRepo repository.LocationRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := s.st.clone()
	if err := fn(&movementRepo{base{st: tx}}, &locationRepo{base{st: tx}}); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// Locations devuelve el repositorio de ubicaciones atado al store.
func (s *Store) Locations() repository.LocationRepository { return &locationRepo{base{s: s}} }

// Movements devuelve el repositorio de movimientos atado al store.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{base{s: s}} }

// Products devuelve el repositorio de productos atado al store.
func (s *Store) Products() repository.ProductRepository { return &productRepo{base{s: s}} }

// Users devuelve el repositorio de usuarios atado al store.
func (s *Store) Users() repository.UserRepository { return &userRepo{base{s: s}} }

// base resuelve el estado a usar: el de la tx si el repo está atado a una, o el
// publicado (bajo lock) si no.
type base struct {
	s  *Store // nil cuando el repo está atado a una tx
	st *state // no nil cuando el repo está atado a una tx
}

func (b *base) do(fn func(st *state) error) error {
	if b.st != nil {
		return fn(b.st)
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return fn(b.s.st)
}

// Orden estable para reproducir el ORDER BY de las consultas SQL: nombres
// ascendentes, ids descendentes (los listados devuelven lo más reciente primero).
func sortStrings(s []string) { sort.Strings(s) }

func sortInt64sDesc(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
}

// ── Locations ────────────────────────────────────────────────────────────────

type locationRepo struct{ base }

func (r *locationRepo) GetByName(name string) (*entity.Location, error) {
	var out *entity.Location
	err := r.do(func(st *state) error {
		if l, ok := st.locations[name]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r *locationRepo) GetForUpdate(names []string) ([]*entity.Location, error) {
	var out []*entity.Location
	err := r.do(func(st *state) error {
		for _, name := range names {
			if l, ok := st.locations[name]; ok {
				cp := l
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *locationRepo) Upsert(loc *entity.Location) error {
	return r.do(func(st *state) error {
		existing, ok := st.locations[loc.Name]
		if ok {
			existing.Quantity = loc.Quantity
			existing.UpdatedAt = loc.UpdatedAt
			st.locations[loc.Name] = existing
			return nil
		}
		st.locations[loc.Name] = *loc
		return nil
	})
}

func (r *locationRepo) Create(loc *entity.Location) error {
	return r.do(func(st *state) error {
		if _, ok := st.locations[loc.Name]; ok {
			return domain.ErrDuplicate
		}
		st.locations[loc.Name] = *loc
		return nil
	})
}

func (r *locationRepo) Update(name string, loc *entity.Location) error {
	return r.do(func(st *state) error {
		if _, ok := st.locations[name]; !ok {
			return domain.ErrNotFound
		}
		if loc.Name != name {
			if _, ok := st.locations[loc.Name]; ok {
				return domain.ErrDuplicate
			}
			delete(st.locations, name)
		}
		st.locations[loc.Name] = *loc
		return nil
	})
}

func (r *locationRepo) List(limit, offset int) ([]*entity.Location, error) {
	var out []*entity.Location
	err := r.do(func(st *state) error {
		names := make([]string, 0, len(st.locations))
		for name := range st.locations {
			names = append(names, name)
		}
		sortStrings(names)
		for i := offset; i < len(names) && len(out) < limit; i++ {
			l := st.locations[names[i]]
			out = append(out, &l)
		}
		return nil
	})
	return out, err
}

func (r *locationRepo) Delete(name string) error {
	return r.do(func(st *state) error {
		delete(st.locations, name)
		return nil
	})
}

// ── Movements ────────────────────────────────────────────────────────────────

type movementRepo struct{ base }

func (r *movementRepo) Create(m *entity.Movement) error {
	return r.do(func(st *state) error {
		m.ID = st.nextMovement
		st.nextMovement++
		st.movements[m.ID] = cloneMovement(*m)
		return nil
	})
}

func (r *movementRepo) GetByID(id int64) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.do(func(st *state) error {
		if m, ok := st.movements[id]; ok {
			cp := cloneMovement(m)
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) Update(m *entity.Movement) error {
	return r.do(func(st *state) error {
		if _, ok := st.movements[m.ID]; !ok {
			return domain.ErrNotFound
		}
		st.movements[m.ID] = cloneMovement(*m)
		return nil
	})
}

func (r *movementRepo) Delete(id int64) error {
	return r.do(func(st *state) error {
		delete(st.movements, id)
		return nil
	})
}

func (r *movementRepo) List(limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.do(func(st *state) error {
		ids := make([]int64, 0, len(st.movements))
		for id := range st.movements {
			ids = append(ids, id)
		}
		sortInt64sDesc(ids)
		for i := offset; i < len(ids) && len(out) < limit; i++ {
			m := cloneMovement(st.movements[ids[i]])
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) ListByLocation(name string, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.do(func(st *state) error {
		ids := make([]int64, 0, len(st.movements))
		for id, m := range st.movements {
			if touches(m, name) {
				ids = append(ids, id)
			}
		}
		sortInt64sDesc(ids)
		for i := offset; i < len(ids) && len(out) < limit; i++ {
			m := cloneMovement(st.movements[ids[i]])
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) NetByLocation(name string) (int64, error) {
	var net int64
	err := r.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ToLocation != nil && *m.ToLocation == name {
				net += m.Quantity
			}
			if m.FromLocation != nil && *m.FromLocation == name {
				net -= m.Quantity
			}
		}
		return nil
	})
	return net, err
}

func touches(m entity.Movement, name string) bool {
	if m.FromLocation != nil && *m.FromLocation == name {
		return true
	}
	return m.ToLocation != nil && *m.ToLocation == name
}

// ── Products ─────────────────────────────────────────────────────────────────

type productRepo struct{ base }

func (r *productRepo) Create(product *entity.Product) error {
	return r.do(func(st *state) error {
		for _, p := range st.products {
			if p.Name == product.Name {
				return domain.ErrDuplicate
			}
		}
		product.ID = st.nextProduct
		st.nextProduct++
		st.products[product.ID] = *product
		return nil
	})
}

func (r *productRepo) GetByID(id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productRepo) GetByName(name string) (*entity.Product, error) {
	var out *entity.Product
	err := r.do(func(st *state) error {
		for _, p := range st.products {
			if p.Name == name {
				cp := p
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Update(product *entity.Product) error {
	return r.do(func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrNotFound
		}
		for id, p := range st.products {
			if id != product.ID && p.Name == product.Name {
				return domain.ErrDuplicate
			}
		}
		st.products[product.ID] = *product
		return nil
	})
}

func (r *productRepo) List(limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.do(func(st *state) error {
		ids := make([]int64, 0, len(st.products))
		for id := range st.products {
			ids = append(ids, id)
		}
		sortInt64sDesc(ids)
		for i := offset; i < len(ids) && len(out) < limit; i++ {
			p := st.products[ids[i]]
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Delete(id int64) error {
	return r.do(func(st *state) error {
		delete(st.products, id)
		return nil
	})
}

// ── Users ────────────────────────────────────────────────────────────────────

type userRepo struct{ base }

func (r *userRepo) Create(user *entity.User) error {
	return r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Username == user.Username || u.Email == user.Email {
				return domain.ErrDuplicate
			}
		}
		user.ID = st.nextUser
		st.nextUser++
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(id int64) (*entity.User, error) {
	var out *entity.User
	err := r.do(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Email == email })
}

func (r *userRepo) GetByUsername(username string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Username == username })
}

func (r *userRepo) find(match func(entity.User) bool) (*entity.User, error) {
	var out *entity.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				cp := u
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}
