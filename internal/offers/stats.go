package offers

import (
	"math"

	"github.com/walidbsn/tasdiq/internal/model"
)

// Stats summarizes one user's side of the offer collection.
type Stats struct {
	TotalOffers     int     `json:"total_offers"`
	CompletedOffers int     `json:"completed_offers"`
	TotalEarnings   int64   `json:"total_earnings"`  // completed offers received
	TotalSpending   int64   `json:"total_spending"`  // completed offers sent
	SuccessRate     float64 `json:"success_rate"`    // completed / total, percent
	PendingOffers   int     `json:"pending_offers"`
	AcceptedOffers  int     `json:"accepted_offers"`
	RejectedOffers  int     `json:"rejected_offers"`
}

// ComputeStats derives the statistics view from the offers the user is a
// party to. Pure; the input slice is not modified.
func ComputeStats(all []model.Offer, userID string) Stats {
	var st Stats
	for _, o := range all {
		if o.FromUserID != userID && o.ToUserID != userID {
			continue
		}
		st.TotalOffers++
		switch o.Status {
		case model.OfferCompleted:
			st.CompletedOffers++
			if o.ToUserID == userID {
				st.TotalEarnings += o.Price
			}
			if o.FromUserID == userID {
				st.TotalSpending += o.Price
			}
		case model.OfferPending:
			st.PendingOffers++
		case model.OfferAccepted:
			st.AcceptedOffers++
		case model.OfferRejected:
			st.RejectedOffers++
		}
	}
	if st.TotalOffers > 0 {
		rate := float64(st.CompletedOffers) / float64(st.TotalOffers) * 100
		st.SuccessRate = math.Round(rate*10) / 10
	}
	return st
}
