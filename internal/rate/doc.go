// Package rate enforces per-identifier and per-IP sign-in attempt budgets
// using Redis fixed-window counters. The limiter is optional: the engine
// runs without one when no Redis client is configured, which is the common
// remote-mode deployment.
package rate
