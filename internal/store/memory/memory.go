// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memory implements store.Manager in process memory. It backs
// unit tests of the services; transactions are serialized by one mutex
// and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"menudir/internal/models"
	"menudir/internal/store"
)

type state struct {
	users       map[int64]models.User
	tokens      map[string]models.SessionToken
	restaurants map[int64]models.Restaurant
	items       map[int64]models.MenuItem
	comments    map[int64]models.Comment
	lastID      int64
}

func newState() *state {
	return &state{
		users:       make(map[int64]models.User),
		tokens:      make(map[string]models.SessionToken),
		restaurants: make(map[int64]models.Restaurant),
		items:       make(map[int64]models.MenuItem),
		comments:    make(map[int64]models.Comment),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.lastID = s.lastID
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.restaurants {
		c.restaurants[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	return c
}

func (s *state) nextID() int64 {
	s.lastID++
	return s.lastID
}

func copyUser(u models.User) models.User {
	if u.TOTPSecret != nil {
		secret := *u.TOTPSecret
		u.TOTPSecret = &secret
	}
	if u.RestaurantID != nil {
		id := *u.RestaurantID
		u.RestaurantID = &id
	}
	return u
}

// Manager is an in-memory store.Manager.
type Manager struct {
	mu sync.Mutex
	st *state
}

// New returns an empty in-memory store.
func New() *Manager {
	return &Manager{st: newState()}
}

// view is a handle on the manager's state; inTx views run with the
// manager mutex already held.
type view struct {
	m    *Manager
	inTx bool
}

func (v view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.m.mu.Lock()
	return v.m.mu.Unlock
}

func (m *Manager) Users() store.UserRepository             { return userRepo{view{m: m}} }
func (m *Manager) Tokens() store.TokenRepository           { return tokenRepo{view{m: m}} }
func (m *Manager) Restaurants() store.RestaurantRepository { return restaurantRepo{view{m: m}} }
func (m *Manager) MenuItems() store.MenuItemRepository     { return menuItemRepo{view{m: m}} }
func (m *Manager) Comments() store.CommentRepository       { return commentRepo{view{m: m}} }
func (m *Manager) Rows() store.RowDumper                   { return rowRepo{view{m: m}} }

// WithTx runs fn while holding the store lock. When fn fails, every
// change it made is discarded.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, r store.Repositories) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	defer func() {
		if p := recover(); p != nil {
			m.st = snapshot
			panic(p)
		}
	}()

	if err := fn(ctx, txRepos{view{m: m, inTx: true}}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

type txRepos struct{ v view }

func (r txRepos) Users() store.UserRepository             { return userRepo{r.v} }
func (r txRepos) Tokens() store.TokenRepository           { return tokenRepo{r.v} }
func (r txRepos) Restaurants() store.RestaurantRepository { return restaurantRepo{r.v} }
func (r txRepos) MenuItems() store.MenuItemRepository     { return menuItemRepo{r.v} }
func (r txRepos) Comments() store.CommentRepository       { return commentRepo{r.v} }
func (r txRepos) Rows() store.RowDumper                   { return rowRepo{r.v} }

// ---------- users ----------

type userRepo struct{ v view }

func (r userRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	defer r.v.lock()()
	u, ok := r.v.m.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyUser(u)
	return &c, nil
}

func (r userRepo) FindByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	return r.FindByID(ctx, id)
}

func (r userRepo) find(match func(models.User) bool) (*models.User, error) {
	defer r.v.lock()()
	for _, u := range r.v.m.st.users {
		if match(u) {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r userRepo) FindByName(_ context.Context, name string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Name == name })
}

func (r userRepo) Create(_ context.Context, u *models.User) error {
	defer r.v.lock()()
	st := r.v.m.st
	for _, existing := range st.users {
		if existing.Email == u.Email || existing.Name == u.Name {
			return store.ErrDuplicate
		}
	}
	u.ID = st.nextID()
	st.users[u.ID] = copyUser(*u)
	return nil
}

func (r userRepo) update(id int64, fn func(u *models.User)) error {
	defer r.v.lock()()
	u, ok := r.v.m.st.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&u)
	r.v.m.st.users[id] = copyUser(u)
	return nil
}

func (r userRepo) SetTOTP(_ context.Context, id int64, secret *string, verified bool) error {
	return r.update(id, func(u *models.User) {
		u.TOTPSecret = secret
		u.TOTPVerified = verified
	})
}

func (r userRepo) SetRestaurant(_ context.Context, id int64, restaurantID *int64, perm models.Permission) error {
	return r.update(id, func(u *models.User) {
		u.RestaurantID = restaurantID
		u.Permission = perm
	})
}

func (r userRepo) ReleaseRestaurant(_ context.Context, restaurantID int64) error {
	defer r.v.lock()()
	for id, u := range r.v.m.st.users {
		if u.OwnsRestaurant(restaurantID) {
			u.RestaurantID = nil
			u.Permission = models.PermissionOrdinary
			r.v.m.st.users[id] = u
		}
	}
	return nil
}

// ---------- tokens ----------

type tokenRepo struct{ v view }

func (r tokenRepo) Find(_ context.Context, value string) (*models.SessionToken, error) {
	defer r.v.lock()()
	t, ok := r.v.m.st.tokens[value]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (r tokenRepo) Exists(_ context.Context, value string) (bool, error) {
	defer r.v.lock()()
	_, ok := r.v.m.st.tokens[value]
	return ok, nil
}

func (r tokenRepo) Create(_ context.Context, t *models.SessionToken) error {
	defer r.v.lock()()
	if _, ok := r.v.m.st.tokens[t.Value]; ok {
		return store.ErrTokenCollision
	}
	if _, ok := r.v.m.st.users[t.UserID]; !ok {
		return fmt.Errorf("create token: user %d does not exist", t.UserID)
	}
	r.v.m.st.tokens[t.Value] = *t
	return nil
}

func (r tokenRepo) Touch(_ context.Context, value string, at time.Time) error {
	defer r.v.lock()()
	t, ok := r.v.m.st.tokens[value]
	if !ok {
		return store.ErrNotFound
	}
	t.LastUsedAt = at
	r.v.m.st.tokens[value] = t
	return nil
}

func (r tokenRepo) SetTrusted(_ context.Context, value string) error {
	defer r.v.lock()()
	t, ok := r.v.m.st.tokens[value]
	if !ok {
		return store.ErrNotFound
	}
	t.Trusted = true
	r.v.m.st.tokens[value] = t
	return nil
}

func (r tokenRepo) Delete(_ context.Context, value string) error {
	defer r.v.lock()()
	delete(r.v.m.st.tokens, value)
	return nil
}

// ---------- restaurants ----------

type restaurantRepo struct{ v view }

func (r restaurantRepo) List(_ context.Context) ([]models.Restaurant, error) {
	defer r.v.lock()()
	list := make([]models.Restaurant, 0, len(r.v.m.st.restaurants))
	for _, rest := range r.v.m.st.restaurants {
		list = append(list, rest)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r restaurantRepo) Find(_ context.Context, id int64) (*models.Restaurant, error) {
	defer r.v.lock()()
	rest, ok := r.v.m.st.restaurants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rest, nil
}

func (r restaurantRepo) Create(_ context.Context, rest *models.Restaurant) error {
	defer r.v.lock()()
	rest.ID = r.v.m.st.nextID()
	r.v.m.st.restaurants[rest.ID] = *rest
	return nil
}

func (r restaurantRepo) Rename(_ context.Context, id int64, name string) error {
	defer r.v.lock()()
	rest, ok := r.v.m.st.restaurants[id]
	if !ok {
		return store.ErrNotFound
	}
	rest.Name = name
	r.v.m.st.restaurants[id] = rest
	return nil
}

// Delete mirrors the schema: children cascade, a still-owned restaurant
// is rejected like a foreign key violation.
func (r restaurantRepo) Delete(_ context.Context, id int64) error {
	defer r.v.lock()()
	st := r.v.m.st
	if _, ok := st.restaurants[id]; !ok {
		return store.ErrNotFound
	}
	for _, u := range st.users {
		if u.OwnsRestaurant(id) {
			return fmt.Errorf("delete restaurant: still owned by user %d", u.ID)
		}
	}
	for itemID, it := range st.items {
		if it.RestaurantID == id {
			delete(st.items, itemID)
		}
	}
	for commentID, c := range st.comments {
		if c.RestaurantID == id {
			delete(st.comments, commentID)
		}
	}
	delete(st.restaurants, id)
	return nil
}

// ---------- menu items ----------

type menuItemRepo struct{ v view }

func (r menuItemRepo) ListByRestaurant(_ context.Context, restaurantID int64) ([]models.MenuItem, error) {
	defer r.v.lock()()
	var items []models.MenuItem
	for _, it := range r.v.m.st.items {
		if it.RestaurantID == restaurantID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r menuItemRepo) Find(_ context.Context, id int64) (*models.MenuItem, error) {
	defer r.v.lock()()
	it, ok := r.v.m.st.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (r menuItemRepo) Create(_ context.Context, m *models.MenuItem) error {
	defer r.v.lock()()
	if _, ok := r.v.m.st.restaurants[m.RestaurantID]; !ok {
		return fmt.Errorf("create menu item: restaurant %d does not exist", m.RestaurantID)
	}
	m.ID = r.v.m.st.nextID()
	r.v.m.st.items[m.ID] = *m
	return nil
}

func (r menuItemRepo) Update(_ context.Context, m *models.MenuItem) error {
	defer r.v.lock()()
	existing, ok := r.v.m.st.items[m.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Name, existing.Description, existing.Price, existing.Course = m.Name, m.Description, m.Price, m.Course
	r.v.m.st.items[m.ID] = existing
	return nil
}

func (r menuItemRepo) Delete(_ context.Context, id int64) error {
	defer r.v.lock()()
	if _, ok := r.v.m.st.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.v.m.st.items, id)
	return nil
}

// ---------- comments ----------

type commentRepo struct{ v view }

func (r commentRepo) ListByRestaurant(_ context.Context, restaurantID int64) ([]models.Comment, error) {
	defer r.v.lock()()
	var comments []models.Comment
	for _, c := range r.v.m.st.comments {
		if c.RestaurantID == restaurantID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (r commentRepo) Create(_ context.Context, c *models.Comment) error {
	defer r.v.lock()()
	if _, ok := r.v.m.st.restaurants[c.RestaurantID]; !ok {
		return fmt.Errorf("create comment: restaurant %d does not exist", c.RestaurantID)
	}
	c.ID = r.v.m.st.nextID()
	r.v.m.st.comments[c.ID] = *c
	return nil
}

// ---------- rows ----------

type rowRepo struct{ v view }

func (r rowRepo) Restaurants(ctx context.Context) ([]map[string]any, error) {
	list, _ := restaurantRepo(r).List(ctx)
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	out := []map[string]any{}
	for _, rest := range list {
		out = append(out, map[string]any{"id": rest.ID, "name": rest.Name})
	}
	return out, nil
}

func itemRow(it models.MenuItem) map[string]any {
	return map[string]any{
		"id":            it.ID,
		"restaurant_id": it.RestaurantID,
		"name":          it.Name,
		"description":   it.Description,
		"price":         it.Price,
		"course":        it.Course,
	}
}

func (r rowRepo) Menu(ctx context.Context, restaurantID int64) ([]map[string]any, error) {
	items, _ := menuItemRepo(r).ListByRestaurant(ctx, restaurantID)
	out := []map[string]any{}
	for _, it := range items {
		out = append(out, itemRow(it))
	}
	return out, nil
}

func (r rowRepo) MenuItem(ctx context.Context, restaurantID, itemID int64) ([]map[string]any, error) {
	out := []map[string]any{}
	it, err := menuItemRepo(r).Find(ctx, itemID)
	if err == nil && it.RestaurantID == restaurantID {
		out = append(out, itemRow(*it))
	}
	return out, nil
}
