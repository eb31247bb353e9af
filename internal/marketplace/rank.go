package marketplace

import (
	"sort"
	"strings"

	"github.com/walidbsn/tasdiq/internal/model"
)

// Criteria filters the marketplace browse view. Zero values mean "no filter";
// Region only applies when Role is confirmer.
type Criteria struct {
	Search string
	Role   model.Role
	Region string
}

// RankedListing pairs a listing with its owner so callers can render
// provider name and rating without a second lookup.
type RankedListing struct {
	Listing model.ServiceListing `json:"listing"`
	Owner   model.User           `json:"owner"`
}

// Rank returns the listings that match the criteria, pinned entries first,
// then by provider reputation. Listings whose owner is missing or not a
// provider role are dropped. The result is deterministic for a given input.
func Rank(listings []model.ServiceListing, users []model.User, crit Criteria) []RankedListing {
	owners := make(map[string]model.User, len(users))
	for _, u := range users {
		owners[u.ID] = u
	}
	search := strings.ToLower(strings.TrimSpace(crit.Search))

	var out []RankedListing
	for _, l := range listings {
		owner, ok := owners[l.UserID]
		if !ok {
			continue
		}
		if owner.Role != model.RoleConfirmer && owner.Role != model.RoleFreelancer {
			continue
		}
		if owner.Status == model.UserSuspended {
			continue
		}
		if crit.Role != "" && crit.Role != "all" && owner.Role != crit.Role {
			continue
		}
		if crit.Role == model.RoleConfirmer && crit.Region != "" && crit.Region != "all" {
			if owner.Confirmer == nil || owner.Confirmer.Region != crit.Region {
				continue
			}
		}
		if search != "" {
			title := strings.ToLower(l.Title)
			name := strings.ToLower(owner.Name)
			if !strings.Contains(title, search) && !strings.Contains(name, search) {
				continue
			}
		}
		out = append(out, RankedListing{Listing: l, Owner: owner})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Listing.IsPinned != out[j].Listing.IsPinned {
			return out[i].Listing.IsPinned
		}
		return score(out[i].Owner) > score(out[j].Owner)
	})
	return out
}

// score weighs average rating heavily and uses review volume as a
// tie-breaker between providers with the same average.
func score(u model.User) float64 {
	return u.AvgRating*10 + float64(len(u.RatingsReceived))
}

// Regions lists the distinct regions of active confirmers, sorted, for the
// browse filter dropdown.
func Regions(users []model.User) []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range users {
		if u.Role != model.RoleConfirmer || u.Confirmer == nil {
			continue
		}
		r := u.Confirmer.Region
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
