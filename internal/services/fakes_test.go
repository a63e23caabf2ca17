package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories. Each method holds the mutex for its whole body so
// conditional updates behave like single-document atomic writes.

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[primitive.ObjectID]*models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[primitive.ObjectID]*models.Ride)}
}

func cloneRide(r *models.Ride) *models.Ride {
	c := *r
	c.Passengers = append([]primitive.ObjectID{}, r.Passengers...)
	if r.Completion != nil {
		completion := *r.Completion
		c.Completion = &completion
	}
	return &c
}

func (f *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	now := time.Now()
	ride.CreatedAt, ride.UpdatedAt = now, now
	ride.Status = models.RideStatusActive
	if ride.Passengers == nil {
		ride.Passengers = []primitive.ObjectID{}
	}
	f.rides[ride.ID] = cloneRide(ride)
	return nil
}

func (f *fakeRideRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneRide(ride), nil
}

func (f *fakeRideRepo) Search(ctx context.Context, filter models.RideSearchFilter) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Ride
	for _, ride := range f.rides {
		if ride.Status != models.RideStatusActive || ride.SeatsAvailable <= 0 {
			continue
		}
		if !strings.Contains(strings.ToLower(ride.Origin), strings.ToLower(filter.Origin)) ||
			!strings.Contains(strings.ToLower(ride.Destination), strings.ToLower(filter.Destination)) {
			continue
		}
		if filter.VehicleType != "" && ride.VehicleType != filter.VehicleType {
			continue
		}
		out = append(out, cloneRide(ride))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (f *fakeRideRepo) AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[rideID]
	if !ok || ride.Status != models.RideStatusActive || ride.SeatsAvailable <= 0 ||
		ride.DriverID == userID || ride.HasPassenger(userID) {
		return nil, interfaces.ErrNotFound
	}
	ride.SeatsAvailable--
	ride.Passengers = append(ride.Passengers, userID)
	ride.UpdatedAt = time.Now()
	return cloneRide(ride), nil
}

func (f *fakeRideRepo) ListActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Ride
	for _, ride := range f.rides {
		if ride.Status == models.RideStatusActive && ride.IsParticipant(userID) {
			out = append(out, cloneRide(ride))
		}
	}
	return out, nil
}

func (f *fakeRideRepo) BeginCompletion(ctx context.Context, rideID primitive.ObjectID, completion *models.RideCompletion) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[rideID]
	if !ok || ride.Status != models.RideStatusActive {
		return nil, interfaces.ErrNotFound
	}
	c := *completion
	ride.Status = models.RideStatusCompleting
	ride.Completion = &c
	return cloneRide(ride), nil
}

func (f *fakeRideRepo) DeleteCompleting(ctx context.Context, rideID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[rideID]
	if !ok || ride.Status != models.RideStatusCompleting {
		return interfaces.ErrNotFound
	}
	delete(f.rides, rideID)
	return nil
}

func (f *fakeRideRepo) ListCompleting(ctx context.Context, cutoff time.Time) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Ride
	for _, ride := range f.rides {
		if ride.Status == models.RideStatusCompleting && ride.Completion != nil && ride.Completion.StartedAt.Before(cutoff) {
			out = append(out, cloneRide(ride))
		}
	}
	return out, nil
}

func (f *fakeRideRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rides)
}

type fakeCompletedRepo struct {
	mu     sync.Mutex
	byRide map[primitive.ObjectID]*models.CompletedRide
	// failMarkSettled makes the next MarkSettled call fail once.
	failMarkSettled error
}

func newFakeCompletedRepo() *fakeCompletedRepo {
	return &fakeCompletedRepo{byRide: make(map[primitive.ObjectID]*models.CompletedRide)}
}

func (f *fakeCompletedRepo) Create(ctx context.Context, completed *models.CompletedRide) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byRide[completed.RideID]; ok {
		return interfaces.ErrDuplicate
	}
	if completed.ID.IsZero() {
		completed.ID = primitive.NewObjectID()
	}
	completed.CreatedAt = time.Now()
	c := *completed
	f.byRide[completed.RideID] = &c
	return nil
}

func (f *fakeCompletedRepo) GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.CompletedRide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	completed, ok := f.byRide[rideID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *completed
	return &c, nil
}

func (f *fakeCompletedRepo) MarkSettled(ctx context.Context, rideID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failMarkSettled; err != nil {
		f.failMarkSettled = nil
		return err
	}
	completed, ok := f.byRide[rideID]
	if !ok {
		return interfaces.ErrNotFound
	}
	completed.Settled = true
	return nil
}

func (f *fakeCompletedRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.CompletedRide, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CompletedRide
	for _, completed := range f.byRide {
		if completed.RiderID == userID || completed.DriverID == userID {
			c := *completed
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeCompletedRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byRide)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) add(name string) primitive.ObjectID {
	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		UserType: models.UserTypeUser,
	}
	_ = f.Create(context.Background(), user)
	return user.ID
}

func (f *fakeUserRepo) get(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.users[id]
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == strings.ToLower(user.Email) {
			return interfaces.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(user.Email)
	u := *user
	f.users[user.ID] = &u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == strings.ToLower(email) {
			u := *user
			return &u, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeUserRepo) ApplyRideSettlement(ctx context.Context, settlement *models.RideSettlement) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[settlement.UserID]
	if !ok {
		return false, interfaces.ErrNotFound
	}
	for _, settled := range user.SettledRides {
		if settled == settlement.RideID {
			return false, nil
		}
	}
	user.GreenPoints += settlement.GreenPoints
	user.SettledRides = append(user.SettledRides, settlement.RideID)
	if settlement.Rating != nil {
		user.Rating, user.RatingsCount = utils.RunningMean(user.Rating, user.RatingsCount, *settlement.Rating)
	}
	return true, nil
}

func (f *fakeUserRepo) ApplyRating(ctx context.Context, userID primitive.ObjectID, rating float64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	user.Rating, user.RatingsCount = utils.RunningMean(user.Rating, user.RatingsCount, rating)
	u := *user
	return &u, nil
}

func (f *fakeUserRepo) AddGreenPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	user.GreenPoints += points
	u := *user
	return &u, nil
}

type fakeMethodRepo struct {
	mu      sync.Mutex
	methods map[primitive.ObjectID]*models.PaymentMethod
	seq     int
	// beforeDebit runs under the lock ahead of a conditional debit, letting a
	// test change the method between the read and the write.
	beforeDebit func(m *models.PaymentMethod)
}

func newFakeMethodRepo() *fakeMethodRepo {
	return &fakeMethodRepo{methods: make(map[primitive.ObjectID]*models.PaymentMethod)}
}

func (f *fakeMethodRepo) seed(userID primitive.ObjectID, typ models.PaymentMethodType, state models.PaymentMethodState, balance float64, credits int) *models.PaymentMethod {
	method := &models.PaymentMethod{
		UserID:  userID,
		Type:    typ,
		State:   state,
		Balance: balance,
		Credits: credits,
	}
	if err := f.Create(context.Background(), method); err != nil {
		panic(err)
	}
	return method
}

func (f *fakeMethodRepo) snapshot(id primitive.ObjectID) models.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.methods[id]
}

func (f *fakeMethodRepo) defaults(userID primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.methods {
		if m.UserID == userID && m.State == models.PaymentMethodStateDefault {
			n++
		}
	}
	return n
}

func (f *fakeMethodRepo) hasDefaultLocked(userID, except primitive.ObjectID) bool {
	for _, m := range f.methods {
		if m.UserID == userID && m.ID != except && m.State == models.PaymentMethodStateDefault {
			return true
		}
	}
	return false
}

func (f *fakeMethodRepo) Create(ctx context.Context, method *models.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method.State == "" {
		method.State = models.PaymentMethodStateActive
	}
	if method.State == models.PaymentMethodStateDefault && f.hasDefaultLocked(method.UserID, primitive.NilObjectID) {
		return interfaces.ErrDuplicate
	}
	if method.ID.IsZero() {
		method.ID = primitive.NewObjectID()
	}
	// Strictly increasing creation times keep newest-first ordering stable.
	f.seq++
	method.CreatedAt = time.Unix(int64(f.seq), 0)
	method.UpdatedAt = method.CreatedAt
	m := *method
	f.methods[method.ID] = &m
	return nil
}

func (f *fakeMethodRepo) GetActive(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok || m.UserID != userID || !m.IsActive() {
		return nil, interfaces.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakeMethodRepo) ListActive(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaymentMethod
	for _, m := range f.methods {
		if m.UserID == userID && m.IsActive() {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault() != out[j].IsDefault() {
			return out[i].IsDefault()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeMethodRepo) CountActive(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	methods, _ := f.ListActive(ctx, userID)
	return int64(len(methods)), nil
}

func (f *fakeMethodRepo) DemoteDefaults(ctx context.Context, userID, keep primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.methods {
		if m.UserID == userID && m.ID != keep && m.State == models.PaymentMethodStateDefault {
			m.State = models.PaymentMethodStateActive
		}
	}
	return nil
}

func (f *fakeMethodRepo) Promote(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok || m.UserID != userID || !m.IsActive() {
		return nil, interfaces.ErrNotFound
	}
	if f.hasDefaultLocked(userID, id) {
		return nil, interfaces.ErrDuplicate
	}
	m.State = models.PaymentMethodStateDefault
	c := *m
	return &c, nil
}

func (f *fakeMethodRepo) PromoteNewest(ctx context.Context, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	f.mu.Lock()
	var newest *models.PaymentMethod
	for _, m := range f.methods {
		if m.UserID == userID && m.State == models.PaymentMethodStateActive {
			if newest == nil || m.CreatedAt.After(newest.CreatedAt) {
				newest = m
			}
		}
	}
	f.mu.Unlock()
	if newest == nil {
		return nil, interfaces.ErrNotFound
	}
	return f.Promote(ctx, newest.ID, userID)
}

func (f *fakeMethodRepo) Deactivate(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok || m.UserID != userID || !m.IsActive() {
		return nil, interfaces.ErrNotFound
	}
	before := *m
	m.State = models.PaymentMethodStateInactive
	return &before, nil
}

func (f *fakeMethodRepo) DebitBalance(ctx context.Context, id primitive.ObjectID, amount, delta float64) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if ok && f.beforeDebit != nil {
		f.beforeDebit(m)
	}
	if !ok || m.Type != models.PaymentMethodGreenWallet || !m.IsActive() || m.Balance < amount {
		return nil, interfaces.ErrNotFound
	}
	m.Balance += delta
	c := *m
	return &c, nil
}

func (f *fakeMethodRepo) DebitCredits(ctx context.Context, id primitive.ObjectID, needed, delta int) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if ok && f.beforeDebit != nil {
		f.beforeDebit(m)
	}
	if !ok || m.Type != models.PaymentMethodEcoCredits || !m.IsActive() || m.Credits < needed {
		return nil, interfaces.ErrNotFound
	}
	m.Credits += delta
	c := *m
	return &c, nil
}

func (f *fakeMethodRepo) AdjustBalance(ctx context.Context, id primitive.ObjectID, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	m.Balance += delta
	return nil
}

func (f *fakeMethodRepo) AdjustCredits(ctx context.Context, id primitive.ObjectID, delta int) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	m.Credits += delta
	c := *m
	return &c, nil
}

func (f *fakeMethodRepo) EnsureEcoCredits(ctx context.Context, userID primitive.ObjectID) (*models.PaymentMethod, bool, error) {
	f.mu.Lock()
	for _, m := range f.methods {
		if m.UserID == userID && m.Type == models.PaymentMethodEcoCredits && m.IsActive() {
			c := *m
			f.mu.Unlock()
			return &c, false, nil
		}
	}
	f.mu.Unlock()

	method := &models.PaymentMethod{
		UserID:   userID,
		Type:     models.PaymentMethodEcoCredits,
		State:    models.PaymentMethodStateActive,
		Nickname: "Eco Credits",
	}
	if err := f.Create(ctx, method); err != nil {
		return nil, false, err
	}
	return method, true, nil
}

type fakeTxnRepo struct {
	mu   sync.Mutex
	txns []*models.Transaction
	// createErr, when set, fails every Create.
	createErr error
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{}
}

func (f *fakeTxnRepo) all() []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Transaction, 0, len(f.txns))
	for _, t := range f.txns {
		out = append(out, *t)
	}
	return out
}

func (f *fakeTxnRepo) Create(ctx context.Context, txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.txns {
		if existing.TransactionID == txn.TransactionID {
			return interfaces.ErrDuplicate
		}
		if txn.BonusKey != "" && existing.BonusKey == txn.BonusKey {
			return interfaces.ErrDuplicate
		}
	}
	if txn.ID.IsZero() {
		txn.ID = primitive.NewObjectID()
	}
	t := *txn
	f.txns = append(f.txns, &t)
	return nil
}

func (f *fakeTxnRepo) GetByBonusKey(ctx context.Context, bonusKey string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.BonusKey == bonusKey {
			c := *t
			return &c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeTxnRepo) forUser(userID primitive.ObjectID) []*models.Transaction {
	var out []*models.Transaction
	for _, t := range f.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeTxnRepo) ListForUser(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]*models.TransactionWithMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txns := f.forUser(userID)
	out := []*models.TransactionWithMethod{}
	for i := skip; i < len(txns) && len(out) < limit; i++ {
		out = append(out, &models.TransactionWithMethod{Transaction: *txns[i]})
	}
	return out, nil
}

func (f *fakeTxnRepo) CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.forUser(userID))), nil
}

func (f *fakeTxnRepo) Totals(ctx context.Context, userID primitive.ObjectID, since time.Time) (*models.GreenPeriodStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.GreenPeriodStats{}
	for _, t := range f.forUser(userID) {
		if t.Status != models.TransactionStatusCompleted || t.CreatedAt.Before(since) {
			continue
		}
		stats.CO2SavedKg += t.CarbonOffsetKg
		stats.GreenPointsEarned += t.GreenPointsEarned
		if t.Type == models.TransactionTypeRidePayment {
			stats.RidesCompleted++
			stats.MoneySpent += t.Amount
		}
		if stats.MemberSince == nil || t.CreatedAt.Before(*stats.MemberSince) {
			created := t.CreatedAt
			stats.MemberSince = &created
		}
	}
	return stats, nil
}

type fakeSafetyRepo struct {
	mu        sync.Mutex
	settings  map[primitive.ObjectID]*models.SafetySettings
	incidents []*models.IncidentReport
}

func newFakeSafetyRepo() *fakeSafetyRepo {
	return &fakeSafetyRepo{settings: make(map[primitive.ObjectID]*models.SafetySettings)}
}

func cloneSafety(s *models.SafetySettings) *models.SafetySettings {
	c := *s
	c.EmergencyContacts = append([]models.EmergencyContact{}, s.EmergencyContacts...)
	return &c
}

func (f *fakeSafetyRepo) getLocked(userID primitive.ObjectID) *models.SafetySettings {
	s, ok := f.settings[userID]
	if !ok {
		d := models.DefaultSafetySettings(userID)
		d.ID = primitive.NewObjectID()
		s = &d
		f.settings[userID] = s
	}
	return s
}

func (f *fakeSafetyRepo) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.SafetySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneSafety(f.getLocked(userID)), nil
}

func (f *fakeSafetyRepo) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs *models.SafetyPreferences) (*models.SafetySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.getLocked(userID)
	if prefs.LiveTracking != nil {
		s.LiveTracking = *prefs.LiveTracking
	}
	if prefs.SafetyAlerts != nil {
		s.SafetyAlerts = *prefs.SafetyAlerts
	}
	if prefs.ShareLocationWithContacts != nil {
		s.ShareLocationWithContacts = *prefs.ShareLocationWithContacts
	}
	if prefs.AutoNotifyOnRideStart != nil {
		s.AutoNotifyOnRideStart = *prefs.AutoNotifyOnRideStart
	}
	return cloneSafety(s), nil
}

func (f *fakeSafetyRepo) AddEmergencyContact(ctx context.Context, userID primitive.ObjectID, contact *models.EmergencyContact, max int) (*models.SafetySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok || len(s.EmergencyContacts) >= max {
		return nil, interfaces.ErrNotFound
	}
	for _, existing := range s.EmergencyContacts {
		if existing.Phone == contact.Phone || strings.EqualFold(existing.Name, contact.Name) {
			return nil, interfaces.ErrNotFound
		}
	}
	s.EmergencyContacts = append(s.EmergencyContacts, *contact)
	return cloneSafety(s), nil
}

func (f *fakeSafetyRepo) RemoveEmergencyContact(ctx context.Context, userID, contactID primitive.ObjectID) (*models.SafetySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	for i, existing := range s.EmergencyContacts {
		if existing.ID == contactID {
			s.EmergencyContacts = append(s.EmergencyContacts[:i], s.EmergencyContacts[i+1:]...)
			return cloneSafety(s), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeSafetyRepo) IncrementCounters(ctx context.Context, userID primitive.ObjectID, rides, positive, reports int) (*models.SafetySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.getLocked(userID)
	s.TotalRides += rides
	s.PositiveFeedback += positive
	s.SafetyReports += reports
	return cloneSafety(s), nil
}

func (f *fakeSafetyRepo) SetSafetyScore(ctx context.Context, userID primitive.ObjectID, score float64) (*models.SafetySettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	s.SafetyScore = score
	return cloneSafety(s), nil
}

func (f *fakeSafetyRepo) CreateIncident(ctx context.Context, report *models.IncidentReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	report.CreatedAt = time.Now()
	r := *report
	f.incidents = append(f.incidents, &r)
	return nil
}

func (f *fakeSafetyRepo) ListIncidents(ctx context.Context, reporterID primitive.ObjectID) ([]*models.IncidentReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.IncidentReport
	for i := len(f.incidents) - 1; i >= 0; i-- {
		if f.incidents[i].ReporterID == reporterID {
			r := *f.incidents[i]
			out = append(out, &r)
		}
	}
	return out, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[primitive.ObjectID]*models.UserSettings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[primitive.ObjectID]*models.UserSettings)}
}

func cloneSettings(s *models.UserSettings) *models.UserSettings {
	c := *s
	c.Achievements = append([]models.Achievement{}, s.Achievements...)
	return &c
}

func (f *fakeSettingsRepo) GetOrCreate(ctx context.Context, defaults *models.UserSettings) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[defaults.UserID]
	if !ok {
		s = cloneSettings(defaults)
		s.ID = primitive.NewObjectID()
		f.settings[defaults.UserID] = s
	}
	return cloneSettings(s), nil
}

func (f *fakeSettingsRepo) Get(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneSettings(s), nil
}

func (f *fakeSettingsRepo) UpdateSections(ctx context.Context, userID primitive.ObjectID, sections map[string]interface{}) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	for key, value := range sections {
		switch key {
		case "vehicle_preferences":
			s.VehiclePreferences = value.(models.VehiclePreferences)
		case "notifications":
			s.Notifications = value.(models.NotificationPreferences)
		case "ride_preferences":
			s.RidePreferences = value.(models.RidePreferences)
		case "privacy":
			s.Privacy = value.(models.PrivacyPreferences)
		case "app_preferences":
			s.AppPreferences = value.(models.AppPreferences)
		case "green_goals":
			s.GreenGoals = value.(models.GreenGoals)
		}
	}
	return cloneSettings(s), nil
}

func (f *fakeSettingsRepo) AddAchievement(ctx context.Context, userID primitive.ObjectID, a *models.Achievement) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	for _, existing := range s.Achievements {
		if existing.Type == a.Type {
			return nil, interfaces.ErrDuplicate
		}
	}
	s.Achievements = append(s.Achievements, *a)
	return cloneSettings(s), nil
}

func (f *fakeSettingsRepo) Reset(ctx context.Context, defaults *models.UserSettings) (*models.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[defaults.UserID]
	if !ok {
		s = cloneSettings(defaults)
		s.ID = primitive.NewObjectID()
		f.settings[defaults.UserID] = s
		return cloneSettings(s), nil
	}
	achievements := s.Achievements
	id := s.ID
	*s = *cloneSettings(defaults)
	s.ID = id
	s.Achievements = achievements
	return cloneSettings(s), nil
}

// recordingEvents captures published events.
type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEvents) PublishEvent(ctx context.Context, eventType string, recipients []primitive.ObjectID, data interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

func (r *recordingEvents) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// recordingFeedback counts positive feedback per user.
type recordingFeedback struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]int
}

func newRecordingFeedback() *recordingFeedback {
	return &recordingFeedback{users: make(map[primitive.ObjectID]int)}
}

func (r *recordingFeedback) RecordPositiveFeedback(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID]++
	return nil
}

func (r *recordingFeedback) count(userID primitive.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

func float64Ptr(v float64) *float64 { return &v }
