// Package store owns the application state: a single in-memory aggregate
// holding every collection, seeded with demo data. There is no database
// behind it; the process is a local simulation of a backend. Callers never
// see the aggregate itself, only narrow operation-shaped methods, so one
// feature cannot reach into another's collections.
package store

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/walidbsn/tasdiq/internal/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrBadReference = errors.New("referenced entity does not exist")
	ErrNotPermitted = errors.New("operation not permitted")
)

// Store is the single mutable state aggregate. All mutations run under one
// lock so every operation observes and produces a consistent whole.
type Store struct {
	mu sync.RWMutex

	users         []model.User
	listings      []model.ServiceListing
	offers        []model.Offer
	ratings       []model.Rating
	notifications []model.Notification
	transactions  []model.Transaction
	conversations map[string]*model.Conversation
	siteServices  []model.SiteService
	campaigns     []model.AdCampaign
}

// New returns an empty store. Most callers want NewSeeded.
func New() *Store {
	return &Store{conversations: make(map[string]*model.Conversation)}
}

// ---- users ----

func cloneUser(u model.User) model.User {
	c := u
	c.Badges = append([]string(nil), u.Badges...)
	c.RatingsReceived = append([]model.Rating(nil), u.RatingsReceived...)
	if u.Confirmer != nil {
		p := *u.Confirmer
		c.Confirmer = &p
	}
	if u.Freelancer != nil {
		p := model.FreelancerProfile{Skills: append([]string(nil), u.Freelancer.Skills...)}
		c.Freelancer = &p
	}
	return c
}

func (s *Store) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

// UserByID returns a copy of the user, or ErrNotFound.
func (s *Store) UserByID(id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.userIndex(id); i >= 0 {
		return cloneUser(s.users[i]), nil
	}
	return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// UserByEmail matches case-insensitively, the way the login screen does.
func (s *Store) UserByEmail(email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if strings.EqualFold(s.users[i].Email, email) {
			return cloneUser(s.users[i]), nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

// Users returns a copy of the whole user collection in insertion order.
func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.users))
	for i, u := range s.users {
		out[i] = cloneUser(u)
	}
	return out
}

// AdminUser returns the first admin account, or ErrNotFound if none exists.
func (s *Store) AdminUser() (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if s.users[i].Role == model.RoleAdmin {
			return cloneUser(s.users[i]), nil
		}
	}
	return model.User{}, fmt.Errorf("admin account: %w", ErrNotFound)
}

// AddUser appends a new user, enforcing email uniqueness.
func (s *Store) AddUser(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if u.Email != "" && strings.EqualFold(s.users[i].Email, u.Email) {
			return ErrEmailTaken
		}
	}
	s.users = append(s.users, cloneUser(u))
	return nil
}

// UpdateUser applies fn to the stored user under the write lock. If fn
// returns an error nothing is changed.
func (s *Store) UpdateUser(id string, fn func(*model.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	draft := cloneUser(s.users[i])
	if err := fn(&draft); err != nil {
		return err
	}
	s.users[i] = draft
	return nil
}

// ---- service listings ----

func (s *Store) listingIndex(id string) int {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Listings() []model.ServiceListing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ServiceListing(nil), s.listings...)
}

func (s *Store) ListingByID(id string) (model.ServiceListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.listingIndex(id); i >= 0 {
		return s.listings[i], nil
	}
	return model.ServiceListing{}, fmt.Errorf("listing %s: %w", id, ErrNotFound)
}

// AddListing enforces the global invariant that a listing belongs to an
// existing confirmer or freelancer.
func (s *Store) AddListing(l model.ServiceListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(l.UserID)
	if i < 0 {
		return fmt.Errorf("listing owner %s: %w", l.UserID, ErrBadReference)
	}
	switch s.users[i].Role {
	case model.RoleConfirmer, model.RoleFreelancer:
	default:
		return fmt.Errorf("role %s cannot own listings: %w", s.users[i].Role, ErrNotPermitted)
	}
	s.listings = append(s.listings, l)
	return nil
}

func (s *Store) UpdateListing(id string, fn func(*model.ServiceListing) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.listingIndex(id)
	if i < 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	draft := s.listings[i]
	if err := fn(&draft); err != nil {
		return err
	}
	s.listings[i] = draft
	return nil
}

func (s *Store) DeleteListing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.listingIndex(id)
	if i < 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	s.listings = append(s.listings[:i], s.listings[i+1:]...)
	return nil
}

// ---- offers ----

func (s *Store) offerIndex(id string) int {
	for i := range s.offers {
		if s.offers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Offers() []model.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Offer(nil), s.offers...)
}

func (s *Store) OfferByID(id string) (model.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.offerIndex(id); i >= 0 {
		return s.offers[i], nil
	}
	return model.Offer{}, fmt.Errorf("offer %s: %w", id, ErrNotFound)
}

// CreateOffer atomically appends the offer and the notification addressed to
// its receiver. Both parties must exist; a linked listing, when set, must
// exist too.
func (s *Store) CreateOffer(o model.Offer, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(o.FromUserID) < 0 {
		return fmt.Errorf("offer sender %s: %w", o.FromUserID, ErrBadReference)
	}
	if s.userIndex(o.ToUserID) < 0 {
		return fmt.Errorf("offer receiver %s: %w", o.ToUserID, ErrBadReference)
	}
	if o.ServiceID != "" && s.listingIndex(o.ServiceID) < 0 {
		return fmt.Errorf("offer listing %s: %w", o.ServiceID, ErrBadReference)
	}
	s.offers = append(s.offers, o)
	s.notifications = append(s.notifications, n)
	return nil
}

// ApplyOfferTransition runs decide against the current offer under the write
// lock and stores the status it returns. When decide errors, the offer is
// left untouched.
func (s *Store) ApplyOfferTransition(id string, decide func(model.Offer) (model.OfferStatus, error)) (model.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.offerIndex(id)
	if i < 0 {
		return model.Offer{}, fmt.Errorf("offer %s: %w", id, ErrNotFound)
	}
	next, err := decide(s.offers[i])
	if err != nil {
		return model.Offer{}, err
	}
	s.offers[i].Status = next
	return s.offers[i], nil
}

// SubmitRating appends the rating produced by build, flips the offer's
// IsRated flag, and recomputes the rated user's average in the same critical
// section, keeping the materialized cache consistent with the ratings
// collection. build sees the current offer and does the gating.
func (s *Store) SubmitRating(offerID string, build func(model.Offer) (model.Rating, error)) (model.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.offerIndex(offerID)
	if i < 0 {
		return model.Rating{}, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
	}
	r, err := build(s.offers[i])
	if err != nil {
		return model.Rating{}, err
	}
	j := s.userIndex(r.ToUserID)
	if j < 0 {
		return model.Rating{}, fmt.Errorf("rated user %s: %w", r.ToUserID, ErrBadReference)
	}

	s.ratings = append(s.ratings, r)
	s.offers[i].IsRated = true

	u := &s.users[j]
	u.RatingsReceived = append(u.RatingsReceived, r)
	u.AvgRating = averageStars(u.RatingsReceived)
	return r, nil
}

// averageStars is the arithmetic mean of all stars, rounded to one decimal.
func averageStars(rs []model.Rating) float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rs {
		sum += r.Stars
	}
	return math.Round(float64(sum)/float64(len(rs))*10) / 10
}

func (s *Store) Ratings() []model.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Rating(nil), s.ratings...)
}

// RatingForOffer returns the rating linked to an offer, if any.
func (s *Store) RatingForOffer(offerID string) (model.Rating, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.ratings {
		if r.OfferID == offerID {
			return r, true
		}
	}
	return model.Rating{}, false
}

// ---- notifications ----

func (s *Store) AddNotification(n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(n.UserID) < 0 {
		return fmt.Errorf("notification target %s: %w", n.UserID, ErrBadReference)
	}
	s.notifications = append(s.notifications, n)
	return nil
}

// NotificationsFor returns the user's notifications, newest first.
func (s *Store) NotificationsFor(userID string) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UnreadCount counts the user's notifications with IsRead false.
func (s *Store) UnreadCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count
}

// MarkNotificationRead flips the read flag on one notification. The flip has
// no cascading effects.
func (s *Store) MarkNotificationRead(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if s.notifications[i].UserID != userID {
				return fmt.Errorf("notification %s: %w", id, ErrNotPermitted)
			}
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// MarkAllNotificationsRead flips every unread notification for the user.
func (s *Store) MarkAllNotificationsRead(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			n++
		}
	}
	return n
}

// ---- transactions ----

// Transactions returns the seeded ledger. Nothing appends to it at runtime.
func (s *Store) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Transaction(nil), s.transactions...)
}

// ---- conversations ----

// ConversationID keys a conversation by the sorted pair of participant ids.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

func cloneConversation(c *model.Conversation) model.Conversation {
	return model.Conversation{
		ID:           c.ID,
		Participants: append([]string(nil), c.Participants...),
		Messages:     append([]model.Message(nil), c.Messages...),
	}
}

// Conversation returns the conversation between two users, if one exists.
func (s *Store) Conversation(a, b string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.conversations[ConversationID(a, b)]; ok {
		return cloneConversation(c), true
	}
	return model.Conversation{}, false
}

// AppendMessage adds a message to the conversation between the two users,
// creating the conversation on first use.
func (s *Store) AppendMessage(a, b string, m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(a) < 0 || s.userIndex(b) < 0 {
		return fmt.Errorf("conversation participants: %w", ErrBadReference)
	}
	id := ConversationID(a, b)
	c, ok := s.conversations[id]
	if !ok {
		lo, hi := a, b
		if hi < lo {
			lo, hi = hi, lo
		}
		c = &model.Conversation{ID: id, Participants: []string{lo, hi}}
		s.conversations[id] = c
	}
	c.Messages = append(c.Messages, m)
	return nil
}

// ---- site services ----

func (s *Store) SiteServices() []model.SiteService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.SiteService(nil), s.siteServices...)
}

func (s *Store) SiteServiceByID(id string) (model.SiteService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ss := range s.siteServices {
		if ss.ID == id {
			return ss, nil
		}
	}
	return model.SiteService{}, fmt.Errorf("site service %s: %w", id, ErrNotFound)
}

func (s *Store) AddSiteService(ss model.SiteService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.siteServices = append(s.siteServices, ss)
}

func (s *Store) UpdateSiteService(id string, fn func(*model.SiteService) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.siteServices {
		if s.siteServices[i].ID == id {
			draft := s.siteServices[i]
			if err := fn(&draft); err != nil {
				return err
			}
			s.siteServices[i] = draft
			return nil
		}
	}
	return fmt.Errorf("site service %s: %w", id, ErrNotFound)
}

func (s *Store) DeleteSiteService(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.siteServices {
		if s.siteServices[i].ID == id {
			s.siteServices = append(s.siteServices[:i], s.siteServices[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("site service %s: %w", id, ErrNotFound)
}

// ---- ad campaigns ----

func (s *Store) Campaigns() []model.AdCampaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AdCampaign(nil), s.campaigns...)
}

func (s *Store) CampaignsFor(userID string) []model.AdCampaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AdCampaign
	for _, c := range s.campaigns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) AddCampaign(c model.AdCampaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(c.UserID) < 0 {
		return fmt.Errorf("campaign owner %s: %w", c.UserID, ErrBadReference)
	}
	s.campaigns = append(s.campaigns, c)
	return nil
}

func (s *Store) UpdateCampaign(id string, fn func(*model.AdCampaign) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.campaigns {
		if s.campaigns[i].ID == id {
			draft := s.campaigns[i]
			if err := fn(&draft); err != nil {
				return err
			}
			s.campaigns[i] = draft
			return nil
		}
	}
	return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
}

// ---- admin ----

// Counts summarizes collection sizes for the admin dashboard.
type Counts struct {
	Users         int `json:"users"`
	Listings      int `json:"listings"`
	Offers        int `json:"offers"`
	Ratings       int `json:"ratings"`
	Notifications int `json:"notifications"`
	Transactions  int `json:"transactions"`
	Campaigns     int `json:"campaigns"`
}

func (s *Store) CollectionCounts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Users:         len(s.users),
		Listings:      len(s.listings),
		Offers:        len(s.offers),
		Ratings:       len(s.ratings),
		Notifications: len(s.notifications),
		Transactions:  len(s.transactions),
		Campaigns:     len(s.campaigns),
	}
}
