package model

import "time"

// Role is the closed set of account types on the platform.
type Role string

const (
	RoleMerchant   Role = "merchant"
	RoleConfirmer  Role = "confirmer"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMerchant, RoleConfirmer, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// ConfirmerProfile carries the fields that only exist for confirmer accounts.
type ConfirmerProfile struct {
	Region string `json:"region"` // wilaya the confirmer operates in
}

// FreelancerProfile carries the fields that only exist for freelancer accounts.
type FreelancerProfile struct {
	Skills []string `json:"skills"`
}

// User is a platform account. Role-specific data lives in the profile
// structs, which are nil for every other role; consumers switch on Role
// rather than probing optional fields.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email,omitempty"`
	Password      string     `json:"-"` // bcrypt hash, never returned
	Role          Role       `json:"role"`
	Status        UserStatus `json:"status"`
	WalletBalance int64      `json:"wallet_balance"`
	Badges        []string   `json:"badges,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`

	Confirmer  *ConfirmerProfile  `json:"confirmer,omitempty"`
	Freelancer *FreelancerProfile `json:"freelancer,omitempty"`

	// AvgRating and RatingsReceived are a materialized cache, recomputed
	// together with every rating insert.
	AvgRating       float64  `json:"avg_rating"`
	RatingsReceived []Rating `json:"ratings_received,omitempty"`
}

type ServiceCategory string

const (
	CategoryConfirmation ServiceCategory = "confirmation"
	CategoryDesign       ServiceCategory = "design"
	CategoryVideo        ServiceCategory = "video"
	CategoryMarketing    ServiceCategory = "marketing"
	CategoryWriting      ServiceCategory = "writing"
	CategoryDevelopment  ServiceCategory = "development"
)

func (c ServiceCategory) Valid() bool {
	switch c {
	case CategoryConfirmation, CategoryDesign, CategoryVideo, CategoryMarketing, CategoryWriting, CategoryDevelopment:
		return true
	}
	return false
}

type PriceType string

const (
	PricePerOrder PriceType = "per_order"
	PriceFixed    PriceType = "fixed"
)

// ServiceListing is a standing advertisement of a service a confirmer or
// freelancer offers, independent of any specific offer.
type ServiceListing struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Category    ServiceCategory `json:"category"`
	Description string          `json:"description"`
	Price       int64           `json:"price"`
	PriceType   PriceType       `json:"price_type"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsPinned    bool            `json:"is_pinned"`
}

type OfferStatus string

const (
	OfferPending               OfferStatus = "pending"
	OfferAccepted              OfferStatus = "accepted"
	OfferRejected              OfferStatus = "rejected"
	OfferDelivered             OfferStatus = "delivered"
	OfferModificationRequested OfferStatus = "modification_requested"
	OfferCompleted             OfferStatus = "completed"
	OfferCancelled             OfferStatus = "cancelled"
)

// Terminal reports whether the status has no legal exits.
func (s OfferStatus) Terminal() bool {
	return s == OfferRejected || s == OfferCompleted || s == OfferCancelled
}

// Offer is a negotiated price/detail proposal between two users, moving
// through a lifecycle from proposal to completion or rejection.
type Offer struct {
	ID         string      `json:"id"`
	FromUserID string      `json:"from_user_id"`
	ToUserID   string      `json:"to_user_id"`
	ServiceID  string      `json:"service_id,omitempty"`
	Details    string      `json:"details"`
	Price      int64       `json:"price"`
	Status     OfferStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	IsRated    bool        `json:"is_rated"`
}

// Rating is created at most once per offer, after completion, by the party
// that paid.
type Rating struct {
	ID         string    `json:"id"`
	OfferID    string    `json:"offer_id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Stars      int       `json:"stars"` // 1 to 5
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type NotificationType string

const (
	NotifOffer   NotificationType = "offer"
	NotifMessage NotificationType = "message"
	NotifSystem  NotificationType = "system"
	NotifBadge   NotificationType = "badge"
)

// NotificationLink points the client at the view a notification refers to.
type NotificationLink struct {
	View    string            `json:"view"`
	Params  map[string]string `json:"params,omitempty"`
}

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Text      string           `json:"text"`
	Type      NotificationType `json:"type"`
	Link      NotificationLink `json:"link"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

type TransactionStatus string

const (
	TxCompleted TransactionStatus = "completed"
	TxPending   TransactionStatus = "pending"
	TxFailed    TransactionStatus = "failed"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxPayment    TransactionType = "payment"
	TxRefund     TransactionType = "refund"
	TxEarning    TransactionType = "earning"
)

// Transaction is a read-only ledger entry; nothing mutates the ledger at
// runtime beyond seed data.
type Transaction struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Description string            `json:"description"`
	Amount      int64             `json:"amount"` // signed
	Status      TransactionStatus `json:"status"`
	Type        TransactionType   `json:"type"`
}

type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// Conversation is keyed by the sorted pair of participant ids.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
}

type CampaignStatus string

const (
	CampaignPendingReview CampaignStatus = "pending_review"
	CampaignApproved      CampaignStatus = "approved"
	CampaignRejected      CampaignStatus = "rejected"
	CampaignRunning       CampaignStatus = "running"
	CampaignCompleted     CampaignStatus = "completed"
)

type AdCampaign struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url,omitempty"`
	AdLink      string         `json:"ad_link,omitempty"`
	PostLink    string         `json:"post_link,omitempty"`
	Status      CampaignStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SiteService is a service sold by the platform itself rather than a user.
type SiteService struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
}
