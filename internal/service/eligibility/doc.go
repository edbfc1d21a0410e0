// Package eligibility decides whether an address may proceed for a program.
//
// A check runs four stages in a fixed order: normalize, blacklist, whitelist
// (capacity against current occupancy) and status list (occupancy against the
// default limit). The first stage that reaches a decision stops the run and
// every stage that ran leaves a step in the returned trace.
//
// The service layer depends only on the ports in ports.go. It never imports
// net/http or database/sql directly.
package eligibility
