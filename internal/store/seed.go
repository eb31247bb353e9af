package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/walidbsn/tasdiq/internal/model"
)

// DemoPassword is the password every seeded account accepts.
const DemoPassword = "tasdiq123"

func mustTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return t
}

// NewSeeded builds a store preloaded with the demo dataset: a merchant, two
// confirmers, two freelancers (one suspended), and an admin, plus listings,
// offers in assorted lifecycle states, one rating, a transaction ledger,
// notifications, site services, campaigns, and a conversation. User rating
// aggregates are recomputed from the ratings collection rather than stored
// by hand.
func NewSeeded() *Store {
	s := New()

	// MinCost keeps startup fast; these are demo credentials, not secrets.
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	pw := string(hash)

	s.users = []model.User{
		{
			ID: "merchant1", Name: "تاجر تجريبي", Email: "merchant@example.com",
			Password: pw, Role: model.RoleMerchant, Status: model.UserActive,
			WalletBalance: 50000, Badges: []string{"تاجر موثوق"},
		},
		{
			ID: "confirmer1", Name: "أمين بوعلام", Email: "confirmer@example.com",
			Password: pw, Role: model.RoleConfirmer, Status: model.UserActive,
			WalletBalance: 12500, AvatarURL: "https://picsum.photos/seed/user1/100",
			Confirmer: &model.ConfirmerProfile{Region: "الجزائر العاصمة"},
		},
		{
			ID: "confirmer2", Name: "فاطمة الزهراء", Email: "confirmer2@example.com",
			Password: pw, Role: model.RoleConfirmer, Status: model.UserActive,
			WalletBalance: 8000, AvatarURL: "https://picsum.photos/seed/user2/100",
			Confirmer: &model.ConfirmerProfile{Region: "وهران"},
		},
		{
			ID: "freelancer1", Name: "سارة Creative", Email: "freelancer@example.com",
			Password: pw, Role: model.RoleFreelancer, Status: model.UserActive,
			WalletBalance: 25000, Badges: []string{"مستقل متميز"},
			AvatarURL:  "https://picsum.photos/seed/fr1/100",
			Freelancer: &model.FreelancerProfile{Skills: []string{"تصميم صور", "مونتاج فيديو"}},
		},
		{
			ID: "freelancer2", Name: "علي ميديا", Email: "freelancer2@example.com",
			Password: pw, Role: model.RoleFreelancer, Status: model.UserSuspended,
			WalletBalance: 18000, AvatarURL: "https://picsum.photos/seed/fr2/100",
			Freelancer: &model.FreelancerProfile{Skills: []string{"إدارة حملات فيسبوك", "كتابة محتوى"}},
		},
		{
			ID: "admin1", Name: "Khaled Admin", Email: "admin@example.com",
			Password: pw, Role: model.RoleAdmin, Status: model.UserActive,
			WalletBalance: 999999,
		},
	}

	s.listings = []model.ServiceListing{
		{ID: "sl1", UserID: "confirmer1", Title: "تأكيد طلبات لولاية الجزائر", Category: model.CategoryConfirmation,
			Description: "تأكيد احترافي لجميع طلباتكم في ولاية الجزائر العاصمة وضواحيها.", Price: 500,
			PriceType: model.PricePerOrder, ImageURL: "https://picsum.photos/seed/s1/400/300"},
		{ID: "sl2", UserID: "confirmer2", Title: "تأكيد طلبات لولاية وهران", Category: model.CategoryConfirmation,
			Description: "خبرة في تأكيد طلبات مستحضرات التجميل والاكسسوارات.", Price: 450,
			PriceType: model.PricePerOrder, ImageURL: "https://picsum.photos/seed/s2/400/300"},
		{ID: "sl3", UserID: "freelancer1", Title: "تصميم صور إعلانية احترافية", Category: model.CategoryDesign,
			Description: "تصميم 5 صور إعلانية جذابة ومناسبة لمنصات التواصل الاجتماعي.", Price: 10000,
			PriceType: model.PriceFixed, ImageURL: "https://picsum.photos/seed/s3/400/300", IsPinned: true},
		{ID: "sl4", UserID: "freelancer1", Title: "مونتاج فيديو إعلاني قصير", Category: model.CategoryVideo,
			Description: "مونتاج فيديو قصير (حتى 30 ثانية) لعرض منتجك بشكل احترافي.", Price: 15000,
			PriceType: model.PriceFixed, ImageURL: "https://picsum.photos/seed/s4/400/300"},
		{ID: "sl5", UserID: "freelancer2", Title: "إدارة حملات فيسبوك", Category: model.CategoryMarketing,
			Description: "إدارة حملة إعلانية على فيسبوك لمدة أسبوع مع تحسين النتائج.", Price: 20000,
			PriceType: model.PriceFixed, ImageURL: "https://picsum.photos/seed/s5/400/300"},
	}

	s.offers = []model.Offer{
		{ID: "o1", FromUserID: "merchant1", ToUserID: "confirmer1", ServiceID: "sl1",
			Details: "تأكيد 20 طلبية لولاية الجزائر", Price: 10000, Status: model.OfferPending,
			CreatedAt: mustTime("2024-05-20T10:00:00Z")},
		{ID: "o2", FromUserID: "merchant1", ToUserID: "freelancer1", ServiceID: "sl3",
			Details: "تصميم 5 صور إعلانية لمنتج جديد", Price: 10000, Status: model.OfferAccepted,
			CreatedAt: mustTime("2024-05-19T14:00:00Z")},
		{ID: "o3", FromUserID: "merchant1", ToUserID: "confirmer2",
			Details: "تأكيد طلبات عاجلة لولاية وهران", Price: 5000, Status: model.OfferCompleted,
			CreatedAt: mustTime("2024-05-18T11:00:00Z"), IsRated: true},
		{ID: "o4", FromUserID: "confirmer1", ToUserID: "merchant1",
			Details: "عرض لتأكيد 100 طلبية بسعر خاص", Price: 48000, Status: model.OfferRejected,
			CreatedAt: mustTime("2024-05-17T09:00:00Z")},
		{ID: "o5", FromUserID: "merchant1", ToUserID: "freelancer2", ServiceID: "sl5",
			Details: "إدارة حملة إعلانية لمنتج ساعات", Price: 20000, Status: model.OfferCompleted,
			CreatedAt: mustTime("2024-05-15T16:00:00Z")},
	}

	s.ratings = []model.Rating{
		{ID: "r1", OfferID: "o3", FromUserID: "merchant1", ToUserID: "confirmer2",
			Stars: 5, Comment: "خدمة ممتازة وسريعة، شكراً جزيلاً!", CreatedAt: mustTime("2024-05-18T18:00:00Z")},
	}

	s.transactions = []model.Transaction{
		{ID: "t1", Date: "2023-10-26", Description: "دفع خدمة تصميم لـ سارة Creative", Amount: -10000, Status: model.TxCompleted, Type: model.TxPayment},
		{ID: "t2", Date: "2023-10-25", Description: "إيداع في المحفظة", Amount: 50000, Status: model.TxCompleted, Type: model.TxDeposit},
		{ID: "t3", Date: "2023-10-24", Description: "سحب أرباح", Amount: -20000, Status: model.TxPending, Type: model.TxWithdrawal},
		{ID: "t4", Date: "2023-10-22", Description: "أرباح من تاجر تجريبي", Amount: 5000, Status: model.TxCompleted, Type: model.TxEarning},
	}

	s.notifications = []model.Notification{
		{ID: "n1", UserID: "confirmer1", Text: "عرض جديد من \"تاجر تجريبي\" لتأكيد مجموعة طلبات.",
			Type: model.NotifOffer, Link: model.NotificationLink{View: "offers", Params: map[string]string{"offer_id": "o1"}},
			CreatedAt: mustTime("2024-05-20T10:00:00Z")},
		{ID: "n2", UserID: "merchant1", Text: "وافق \"أمين بوعلام\" على عرضك.",
			Type: model.NotifOffer, Link: model.NotificationLink{View: "offers", Params: map[string]string{"offer_id": "o1"}},
			CreatedAt: mustTime("2024-05-20T09:50:00Z")},
		{ID: "n3", UserID: "freelancer1", Text: "رسالة جديدة من \"تاجر تجريبي\".",
			Type: model.NotifMessage, Link: model.NotificationLink{View: "messages"}, IsRead: true,
			CreatedAt: mustTime("2024-05-20T09:00:00Z")},
		{ID: "n4", UserID: "merchant1", Text: "تم إكمال طلبك من طرف \"فاطمة الزهراء\". يمكنك الآن تقييم الخدمة.",
			Type: model.NotifSystem, Link: model.NotificationLink{View: "offers", Params: map[string]string{"offer_id": "o3"}}, IsRead: true,
			CreatedAt: mustTime("2024-05-19T12:00:00Z")},
	}

	s.siteServices = []model.SiteService{
		{ID: "ss1", Title: "إدارة الحملات الإعلانية", Description: "خبراء في إدارة حملاتك على فيسبوك وجوجل لتحقيق أفضل النتائج.", Provider: "Expert Ads", Price: 30000, Category: "إدارة حملات"},
		{ID: "ss2", Title: "خدمات إبداعية", Description: "مصممون ومحررو فيديو لإنشاء محتوى إعلاني جذاب لمنتجاتك.", Provider: "Creative Studio", Price: 15000, Category: "خدمات إبداعية"},
		{ID: "ss3", Title: "إنشاء متجر إلكتروني", Description: "احصل على متجر إلكتروني احترافي ومتكامل لبيع منتجاتك.", Provider: "Store Builders", Price: 80000, Category: "تطوير متاجر"},
		{ID: "ss4", Title: "خدمة تأكيد الطلبيات", Description: "فريق متخصص لرفع نسبة تأكيد طلباتك وتقليل المرتجعات.", Provider: "Confirmex", Price: 25000, Category: "تأكيد طلبات"},
	}

	s.campaigns = []model.AdCampaign{
		{ID: "ac1", UserID: "merchant1", Name: "حملة ساعات العيد", Description: "أفضل الساعات بأفضل الأسعار لمناسبة العيد.",
			ImageURL: "https://picsum.photos/seed/ad1/400/300", Status: model.CampaignRunning, CreatedAt: mustTime("2024-05-18T11:00:00Z")},
		{ID: "ac2", UserID: "merchant1", Name: "حملة العطور الصيفية", Description: "عطور منعشة للصيف.",
			ImageURL: "https://picsum.photos/seed/ad2/400/300", Status: model.CampaignCompleted, CreatedAt: mustTime("2024-04-10T11:00:00Z")},
		{ID: "ac3", UserID: "merchant1", Name: "مراجعة تصميم جديد", Description: "تصميم جديد لمنتج حقائب اليد.",
			Status: model.CampaignPendingReview, CreatedAt: mustTime("2024-05-20T11:00:00Z")},
	}

	s.conversations["freelancer1_merchant1"] = &model.Conversation{
		ID:           "freelancer1_merchant1",
		Participants: []string{"freelancer1", "merchant1"},
		Messages: []model.Message{
			{ID: "m4", SenderID: "merchant1", Text: "أهلاً سارة، بخصوص تصميم الصور، متى يمكن أن تكون جاهزة؟", CreatedAt: mustTime("2024-05-19T15:00:00Z")},
			{ID: "m5", SenderID: "freelancer1", Text: "أهلاً بك، ستكون جاهزة غداً مساءً إن شاء الله.", CreatedAt: mustTime("2024-05-20T08:00:00Z"), IsRead: true},
		},
	}

	// Derive each user's rating cache from the ratings collection so the
	// materialized fields start out consistent.
	for i := range s.users {
		var received []model.Rating
		for _, r := range s.ratings {
			if r.ToUserID == s.users[i].ID {
				received = append(received, r)
			}
		}
		s.users[i].RatingsReceived = received
		s.users[i].AvgRating = averageStars(received)
	}

	return s
}
