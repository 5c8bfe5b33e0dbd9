// Package ratelimit paces profile page visits so that concurrent resolution
// workers together stay under a navigation budget.
//
//	limiter := ratelimit.PerMinute(cfg.Resolution.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
