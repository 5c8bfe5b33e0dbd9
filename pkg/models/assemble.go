package models

import "igfollowers/pkg/instagram"

// Assemble pairs each identifier, in collection order, with its resolved
// count and canonical profile URL. Identifiers missing from results get a
// nil count.
func Assemble(identifiers []string, results []AttributeResult, baseURL string) []Record {
	byID := make(map[string]AttributeResult, len(results))
	for _, r := range results {
		byID[r.Identifier] = r
	}

	records := make([]Record, 0, len(identifiers))
	for _, id := range identifiers {
		rec := Record{
			Username:   id,
			ProfileURL: instagram.ProfileURL(baseURL, id),
		}
		if r, ok := byID[id]; ok && r.Followers != nil {
			n := *r.Followers
			rec.FollowersCount = &n
		}
		records = append(records, rec)
	}
	return records
}
