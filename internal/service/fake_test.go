package service

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"agendavip/internal/domain"
	"agendavip/internal/mailer"
)

// memStore - хранилище в памяти для тестов сервисов. Транзакция делает снимок
// и восстанавливает его при ошибке.
type memStore struct {
	mu     sync.Mutex
	nextID int64

	users          map[int64]domain.User
	sessions       map[string]domain.Session
	establishments map[int64]domain.Establishment
	professionals  map[int64]domain.Professional
	catalog        map[int64]domain.CatalogService
	rules          map[int64]domain.AvailabilityRule
	slots          map[int64]domain.Slot
	appointments   map[int64]domain.Appointment
	cancelled      []domain.CancelledAppointment
	reviews        map[int64]domain.Review
}

func newMemStore() *memStore {
	return &memStore{
		nextID:         1000,
		users:          map[int64]domain.User{},
		sessions:       map[string]domain.Session{},
		establishments: map[int64]domain.Establishment{},
		professionals:  map[int64]domain.Professional{},
		catalog:        map[int64]domain.CatalogService{},
		rules:          map[int64]domain.AvailabilityRule{},
		slots:          map[int64]domain.Slot{},
		appointments:   map[int64]domain.Appointment{},
		reviews:        map[int64]domain.Review{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	nextID       int64
	users        map[int64]domain.User
	sessions     map[string]domain.Session
	rules        map[int64]domain.AvailabilityRule
	slots        map[int64]domain.Slot
	appointments map[int64]domain.Appointment
	cancelled    []domain.CancelledAppointment
	reviews      map[int64]domain.Review
	professional map[int64]domain.Professional
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		nextID:       s.nextID,
		users:        maps.Clone(s.users),
		sessions:     maps.Clone(s.sessions),
		rules:        maps.Clone(s.rules),
		slots:        maps.Clone(s.slots),
		appointments: maps.Clone(s.appointments),
		cancelled:    append([]domain.CancelledAppointment(nil), s.cancelled...),
		reviews:      maps.Clone(s.reviews),
		professional: maps.Clone(s.professionals),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users = snap.users
	s.sessions = snap.sessions
	s.rules = snap.rules
	s.slots = snap.slots
	s.appointments = snap.appointments
	s.cancelled = snap.cancelled
	s.reviews = snap.reviews
	s.professionals = snap.professional
}

type fakeTxKey struct{}

// fakeTx сериализует транзакции, как блокировки строк в postgres сериализуют резервы.
type fakeTx struct {
	store *memStore
	mu    sync.Mutex
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- users / sessions ---

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) Create(_ context.Context, user domain.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.id()
	r.s.users[user.ID] = user
	return user.ID, nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("usuário", id)
	}
	return &u, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.NewNotFoundError("usuário", 0)
}

func (r fakeUserRepo) Update(_ context.Context, id int64, dto domain.UpdateUserDTO) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NewNotFoundError("usuário", id)
	}
	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	if dto.Phone != nil {
		u.Phone = *dto.Phone
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	r.s.users[id] = u
	return nil
}

func (r fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NewNotFoundError("usuário", id)
	}
	u.PasswordHash = hash
	r.s.users[id] = u
	return nil
}

func (r fakeUserRepo) SetEstablishment(_ context.Context, id, establishmentID int64, role domain.UserRole) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.NewNotFoundError("usuário", id)
	}
	u.EstablishmentID = &establishmentID
	u.Role = role
	r.s.users[id] = u
	return nil
}

func (r fakeUserRepo) SetPaymentCustomer(_ context.Context, id int64, customerID string, methodID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	u.PaymentCustomerID = &customerID
	u.DefaultPaymentMethodID = methodID
	r.s.users[id] = u
	return nil
}

func (r fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	return nil
}

func (r fakeUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var users []domain.User
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return page(users, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type fakeAuthRepo struct{ s *memStore }

func (r fakeAuthRepo) CreateSession(_ context.Context, session domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = session
	return nil
}

func (r fakeAuthRepo) ConsumeSession(_ context.Context, token string) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.RefreshToken == token {
			delete(r.s.sessions, id)
			if !session.ExpiresAt.After(time.Now()) {
				return nil, domain.ErrUnauthorized
			}
			return &session, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

func (r fakeAuthRepo) DeleteSessionsByUserID(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, session := range r.s.sessions {
		if session.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

type fakeTokenStore struct {
	mu          sync.Mutex
	blacklisted map[string]bool
	resets      map[string]int64
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{blacklisted: map[string]bool{}, resets: map[string]int64{}}
}

func (f *fakeTokenStore) Blacklist(_ context.Context, id string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklisted[id] = true
	return nil
}

func (f *fakeTokenStore) IsBlacklisted(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blacklisted[id], nil
}

func (f *fakeTokenStore) SaveResetToken(_ context.Context, token string, userID int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[token] = userID
	return nil
}

func (f *fakeTokenStore) ConsumeResetToken(_ context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.resets[token]
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	delete(f.resets, token)
	return userID, nil
}

// --- professionals / catalog ---

type fakeProfessionalRepo struct{ s *memStore }

func (r fakeProfessionalRepo) Create(_ context.Context, userID, establishmentID int64, role string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := r.s.id()
	u := r.s.users[userID]
	r.s.professionals[id] = domain.Professional{
		ID: id, UserID: userID, EstablishmentID: establishmentID, Role: role,
		Name: u.Name, Email: u.Email, Phone: u.Phone,
	}
	return id, nil
}

func (r fakeProfessionalRepo) GetByID(_ context.Context, id int64) (*domain.Professional, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.professionals[id]
	if !ok {
		return nil, domain.NewNotFoundError("profissional", id)
	}
	return &p, nil
}

func (r fakeProfessionalRepo) GetByUserID(_ context.Context, userID int64) (*domain.Professional, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.professionals {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, domain.NewNotFoundError("profissional", 0)
}

func (r fakeProfessionalRepo) Update(_ context.Context, id int64, dto domain.UpdateProfessionalDTO) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.professionals[id]
	if dto.Role != nil {
		p.Role = *dto.Role
	}
	r.s.professionals[id] = p
	return nil
}

func (r fakeProfessionalRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.professionals, id)
	return nil
}

func (r fakeProfessionalRepo) ListByEstablishment(_ context.Context, establishmentID int64) ([]domain.Professional, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Professional
	for _, p := range r.s.professionals {
		if p.EstablishmentID == establishmentID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

type fakeCatalogRepo struct{ s *memStore }

func (r fakeCatalogRepo) Create(_ context.Context, establishmentID int64, dto domain.CreateCatalogServiceDTO) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id := r.s.id()
	r.s.catalog[id] = domain.CatalogService{
		ID: id, EstablishmentID: establishmentID, Name: dto.Name,
		Description: dto.Description, Price: dto.Price, Duration: dto.Duration,
	}
	return id, nil
}

func (r fakeCatalogRepo) GetByID(_ context.Context, id int64) (*domain.CatalogService, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.catalog[id]
	if !ok {
		return nil, domain.NewNotFoundError("serviço", id)
	}
	return &c, nil
}

func (r fakeCatalogRepo) Update(_ context.Context, id int64, dto domain.UpdateCatalogServiceDTO) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.s.catalog[id]
	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.Duration != nil {
		c.Duration = *dto.Duration
	}
	if dto.Price != nil {
		c.Price = *dto.Price
	}
	r.s.catalog[id] = c
	return nil
}

func (r fakeCatalogRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.catalog, id)
	return nil
}

func (r fakeCatalogRepo) ListByEstablishment(_ context.Context, establishmentID int64) ([]domain.CatalogService, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.CatalogService
	for _, c := range r.s.catalog {
		if c.EstablishmentID == establishmentID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (r fakeCatalogRepo) ListCompletedByProfessional(_ context.Context, professionalID int64) ([]domain.CatalogService, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[int64]bool{}
	var list []domain.CatalogService
	for _, a := range r.s.appointments {
		if a.ProfessionalID == professionalID && a.Status == domain.AppointmentStatusCompleted && !seen[a.ServiceID] {
			seen[a.ServiceID] = true
			list = append(list, r.s.catalog[a.ServiceID])
		}
	}
	return list, nil
}

// --- schedule ---

type fakeScheduleRepo struct{ s *memStore }

func (r fakeScheduleRepo) Create(_ context.Context, rule domain.AvailabilityRule) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rule.ID = r.s.id()
	r.s.rules[rule.ID] = rule
	return rule.ID, nil
}

func (r fakeScheduleRepo) GetByID(_ context.Context, id int64) (*domain.AvailabilityRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rule, ok := r.s.rules[id]
	if !ok {
		return nil, domain.NewNotFoundError("configuração de agenda", id)
	}
	return &rule, nil
}

func (r fakeScheduleRepo) Update(_ context.Context, rule domain.AvailabilityRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.rules[rule.ID] = rule
	return nil
}

func (r fakeScheduleRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.rules, id)
	return nil
}

func (r fakeScheduleRepo) list(match func(domain.AvailabilityRule) bool) []domain.AvailabilityRule {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rules []domain.AvailabilityRule
	for _, rule := range r.s.rules {
		if match(rule) {
			rules = append(rules, rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Weekday != rules[j].Weekday {
			return rules[i].Weekday < rules[j].Weekday
		}
		return rules[i].StartTime < rules[j].StartTime
	})
	return rules
}

func (r fakeScheduleRepo) ListByProfessional(_ context.Context, professionalID int64) ([]domain.AvailabilityRule, error) {
	return r.list(func(rule domain.AvailabilityRule) bool { return rule.ProfessionalID == professionalID }), nil
}

func (r fakeScheduleRepo) ListByWeekday(_ context.Context, professionalID int64, weekday domain.Weekday) ([]domain.AvailabilityRule, error) {
	return r.list(func(rule domain.AvailabilityRule) bool {
		return rule.ProfessionalID == professionalID && rule.Weekday == weekday
	}), nil
}

func (r fakeScheduleRepo) ListByWeekdayForUpdate(ctx context.Context, professionalID int64, weekday domain.Weekday) ([]domain.AvailabilityRule, error) {
	return r.ListByWeekday(ctx, professionalID, weekday)
}

// --- slots ---

type fakeSlotRepo struct{ s *memStore }

func (r fakeSlotRepo) CreateMany(_ context.Context, professionalID, establishmentID int64, startsAt []time.Time) ([]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing := map[int64]bool{}
	for _, slot := range r.s.slots {
		if slot.ProfessionalID == professionalID {
			existing[slot.StartsAt.Unix()] = true
		}
	}

	created := []time.Time{}
	for _, at := range startsAt {
		if existing[at.Unix()] {
			continue
		}
		existing[at.Unix()] = true
		id := r.s.id()
		r.s.slots[id] = domain.Slot{ID: id, ProfessionalID: professionalID, EstablishmentID: establishmentID, StartsAt: at}
		created = append(created, at)
	}
	return created, nil
}

func (r fakeSlotRepo) GetByID(_ context.Context, id int64) (*domain.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, domain.NewNotFoundError("horário", id)
	}
	return &slot, nil
}

func (r fakeSlotRepo) List(_ context.Context, filter domain.SlotFilter) ([]domain.Slot, error) {
	slots := r.match(func(slot domain.Slot) bool {
		if filter.ProfessionalID != nil && slot.ProfessionalID != *filter.ProfessionalID {
			return false
		}
		if filter.From != nil && slot.StartsAt.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !slot.StartsAt.Before(*filter.To) {
			return false
		}
		return !filter.OnlyFree || !slot.Occupied
	})
	return page(slots, filter.Limit, filter.Offset), nil
}

func (r fakeSlotRepo) match(fn func(domain.Slot) bool) []domain.Slot {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var slots []domain.Slot
	for _, slot := range r.s.slots {
		if fn(slot) {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartsAt.Before(slots[j].StartsAt) })
	return slots
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r fakeSlotRepo) ListFreeForUpdate(_ context.Context, professionalID int64, from, to time.Time) ([]domain.Slot, error) {
	return r.match(func(slot domain.Slot) bool {
		return slot.ProfessionalID == professionalID && !slot.Occupied && inRange(slot.StartsAt, from, to)
	}), nil
}

func (r fakeSlotRepo) ListRangeForUpdate(_ context.Context, professionalID int64, from, to time.Time) ([]domain.Slot, error) {
	return r.match(func(slot domain.Slot) bool {
		return slot.ProfessionalID == professionalID && inRange(slot.StartsAt, from, to)
	}), nil
}

func (r fakeSlotRepo) Occupy(_ context.Context, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var changed int64
	for _, id := range ids {
		slot, ok := r.s.slots[id]
		if ok && !slot.Occupied {
			slot.Occupied = true
			r.s.slots[id] = slot
			changed++
		}
	}
	return changed, nil
}

func (r fakeSlotRepo) ReleaseRange(_ context.Context, professionalID int64, from, to time.Time) ([]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var released []time.Time
	for id, slot := range r.s.slots {
		if slot.ProfessionalID == professionalID && slot.Occupied && inRange(slot.StartsAt, from, to) {
			slot.Occupied = false
			r.s.slots[id] = slot
			released = append(released, slot.StartsAt)
		}
	}
	sort.Slice(released, func(i, j int) bool { return released[i].Before(released[j]) })
	return released, nil
}

func (r fakeSlotRepo) DeleteFree(_ context.Context, id int64, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok || slot.Occupied || !slot.StartsAt.After(now) {
		return false, nil
	}
	delete(r.s.slots, id)
	return true, nil
}

// --- appointments ---

type fakeAppointmentRepo struct{ s *memStore }

// enrich дополняет запись данными услуги, как join в postgres.
func (r fakeAppointmentRepo) enrich(a domain.Appointment) domain.Appointment {
	c := r.s.catalog[a.ServiceID]
	a.ServiceName = c.Name
	a.ServiceDuration = c.Duration
	a.ServicePrice = c.Price
	if u, ok := r.s.users[a.ClientID]; ok {
		a.ClientName, a.ClientEmail = u.Name, u.Email
	}
	if p, ok := r.s.professionals[a.ProfessionalID]; ok {
		a.ProfessionalName, a.ProfessionalEmail = p.Name, p.Email
	}
	return a
}

func (r fakeAppointmentRepo) Create(_ context.Context, a domain.Appointment) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	a.CreatedAt = time.Now()
	r.s.appointments[a.ID] = a
	return a.ID, nil
}

func (r fakeAppointmentRepo) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, domain.NewNotFoundError("agendamento", id)
	}
	a = r.enrich(a)
	return &a, nil
}

func (r fakeAppointmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r fakeAppointmentRepo) UpdateStatus(_ context.Context, id int64, status domain.AppointmentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.appointments[id]
	a.Status = status
	r.s.appointments[id] = a
	return nil
}

func (r fakeAppointmentRepo) Reschedule(_ context.Context, id, professionalID int64, startsAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.appointments[id]
	a.ProfessionalID = professionalID
	a.StartsAt = startsAt
	a.Status = domain.AppointmentStatusPending
	a.Notified1Day, a.Notified1Hour = false, false
	r.s.appointments[id] = a
	return nil
}

func (r fakeAppointmentRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.appointments, id)
	return nil
}

func (r fakeAppointmentRepo) filtered(filter domain.AppointmentFilter) []domain.Appointment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Appointment
	for _, a := range r.s.appointments {
		switch {
		case filter.ClientID != nil && a.ClientID != *filter.ClientID,
			filter.ProfessionalID != nil && a.ProfessionalID != *filter.ProfessionalID,
			filter.EstablishmentID != nil && a.EstablishmentID != *filter.EstablishmentID,
			filter.Status != nil && a.Status != *filter.Status:
			continue
		}
		list = append(list, r.enrich(a))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartsAt.Before(list[j].StartsAt) })
	return list
}

func (r fakeAppointmentRepo) List(_ context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	return page(r.filtered(filter), filter.Limit, filter.Offset), nil
}

func (r fakeAppointmentRepo) CountByFilter(_ context.Context, filter domain.AppointmentFilter) (int, error) {
	return len(r.filtered(filter)), nil
}

func (r fakeAppointmentRepo) ListOverlapping(_ context.Context, professionalID int64, from, to time.Time, excludeID int64) ([]domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Appointment
	for _, a := range r.s.appointments {
		a = r.enrich(a)
		if a.ID == excludeID || a.ProfessionalID != professionalID || !a.Status.HoldsSlots() {
			continue
		}
		if a.StartsAt.Before(to) && a.EndsAt().After(from) {
			list = append(list, a)
		}
	}
	return list, nil
}

func (r fakeAppointmentRepo) Archive(_ context.Context, record domain.CancelledAppointment) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.ID = r.s.id()
	r.s.cancelled = append(r.s.cancelled, record)
	return record.ID, nil
}

func (r fakeAppointmentRepo) ListCancelled(_ context.Context, filter domain.AppointmentFilter) ([]domain.CancelledAppointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.CancelledAppointment
	for _, c := range r.s.cancelled {
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}
		if filter.EstablishmentID != nil && c.EstablishmentID != *filter.EstablishmentID {
			continue
		}
		list = append(list, c)
	}
	return list, nil
}

func (r fakeAppointmentRepo) ListDueReminders(_ context.Context, kind domain.ReminderKind, from, to time.Time) ([]domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Appointment
	for _, a := range r.s.appointments {
		if a.Status != domain.AppointmentStatusConfirmed || !a.StartsAt.After(from) || a.StartsAt.After(to) {
			continue
		}
		if (kind == domain.ReminderOneDay && a.Notified1Day) || (kind == domain.ReminderOneHour && a.Notified1Hour) {
			continue
		}
		list = append(list, r.enrich(a))
	}
	return list, nil
}

func (r fakeAppointmentRepo) MarkNotified(_ context.Context, id int64, kind domain.ReminderKind) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.appointments[id]
	if kind == domain.ReminderOneDay {
		a.Notified1Day = true
	} else {
		a.Notified1Hour = true
	}
	r.s.appointments[id] = a
	return nil
}

// --- reviews ---

type fakeReviewRepo struct{ s *memStore }

func (r fakeReviewRepo) Create(_ context.Context, review domain.Review) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review.ID = r.s.id()
	r.s.reviews[review.ID] = review
	return review.ID, nil
}

func (r fakeReviewRepo) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.NewNotFoundError("avaliação", id)
	}
	return &review, nil
}

func (r fakeReviewRepo) ExistsForAppointment(_ context.Context, appointmentID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, review := range r.s.reviews {
		if review.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeReviewRepo) Update(_ context.Context, id int64, dto domain.UpdateReviewDTO) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review := r.s.reviews[id]
	if dto.Score != nil {
		review.Score = *dto.Score
	}
	if dto.Comment != nil {
		review.Comment = *dto.Comment
	}
	r.s.reviews[id] = review
	return nil
}

func (r fakeReviewRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.reviews, id)
	return nil
}

func (r fakeReviewRepo) ListByEstablishment(_ context.Context, establishmentID int64, limit int) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Review
	for _, review := range r.s.reviews {
		if review.EstablishmentID == establishmentID {
			list = append(list, review)
		}
	}
	return page(list, limit, 0), nil
}

func (r fakeReviewRepo) ListLatest(_ context.Context, limit int) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []domain.Review
	for _, review := range r.s.reviews {
		list = append(list, review)
	}
	return page(list, limit, 0), nil
}

// --- side effects ---

type recordedEmail struct {
	template string
	to       string
}

// fakeNotifier записывает уведомления вместо отправки.
type fakeNotifier struct {
	mu     sync.Mutex
	emails []recordedEmail
}

func (n *fakeNotifier) record(template, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, recordedEmail{template: template, to: to})
	return nil
}

func (n *fakeNotifier) templates() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.emails))
	for _, e := range n.emails {
		names = append(names, e.template)
	}
	return names
}

func (n *fakeNotifier) AppointmentConfirmed(_ context.Context, a domain.Appointment) error {
	return n.record(mailer.TemplateConfirmation, a.ClientEmail)
}

func (n *fakeNotifier) AppointmentRejected(_ context.Context, a domain.Appointment) error {
	return n.record(mailer.TemplateRejection, a.ClientEmail)
}

func (n *fakeNotifier) AppointmentCancelled(_ context.Context, a domain.Appointment, _ string) error {
	return n.record(mailer.TemplateCancellation, a.ClientEmail)
}

func (n *fakeNotifier) AppointmentRescheduled(_ context.Context, _, after domain.Appointment) error {
	return n.record(mailer.TemplateTimeChange, after.ClientEmail)
}

func (n *fakeNotifier) Reminder(_ context.Context, a domain.Appointment, kind domain.ReminderKind) error {
	name := mailer.TemplateReminderDay
	if kind == domain.ReminderOneHour {
		name = mailer.TemplateReminderHour
	}
	return n.record(name, a.ClientEmail)
}

func (n *fakeNotifier) PasswordReset(_ context.Context, user domain.User, _ string) error {
	return n.record(mailer.TemplatePasswordReset, user.Email)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.SlotEvent
}

func (p *fakePublisher) Publish(event domain.SlotEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) types() []domain.SlotEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]domain.SlotEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
