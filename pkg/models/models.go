package models

// AttributeResult is the outcome of resolving one follower's own follower count.
// Followers is nil when no extraction strategy produced a value; a nil count
// never means zero.
type AttributeResult struct {
	Identifier string `json:"username"`
	Followers  *int64 `json:"followers_count"`
	SourceURL  string `json:"profile_url"`
	Strategy   string `json:"strategy,omitempty"`
}

// Resolved reports whether a count was extracted
func (r AttributeResult) Resolved() bool {
	return r.Followers != nil
}

// Record is one exported row
type Record struct {
	Username       string `json:"username"`
	FollowersCount *int64 `json:"followers_count"`
	ProfileURL     string `json:"profile_url"`
}

// Count returns a pointer to n, for building results
func Count(n int64) *int64 {
	return &n
}
