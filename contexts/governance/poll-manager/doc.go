// Package pollmanager implements the governed commit-reveal poll manager
// inside the governance context.
//
// The module owns poll creation and update, the one-time authority binding,
// the commit/reveal voting protocol, anomaly flagging and quorum-gated
// finalization. Block height is the only notion of time. Business rules
// live in the domain and application layers; storage, ledger, authority
// and clock concerns sit behind ports.
package pollmanager
