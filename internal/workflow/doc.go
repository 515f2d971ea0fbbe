// Package workflow implements the property sale workflow on top of a
// models.Store.
//
// A property moves new → received → accepted → sold, and can be canceled
// from any state but sold. Offers drive the first transitions: the first
// offer moves a property to received, accepting one moves it to accepted
// and fixes the selling price. At most one offer per property is accepted
// at any time; every read-check-write on a property runs in one store
// transaction under a per-property lock.
//
// Committed transitions are published as models.Event values to an
// optional Publisher.
package workflow
