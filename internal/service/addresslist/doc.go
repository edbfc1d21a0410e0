// Package addresslist implements administration of the blacklist and
// whitelist tables of a tracked database.
//
// Every write re-derives the normalized key from the current address fields
// with the same Normalizer the eligibility check uses, so a stored entry
// always matches the key a check will look up. Two entries of the same list
// may never share (normalized key, state, zip).
package addresslist
