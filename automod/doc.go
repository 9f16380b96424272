// Auto-moderation rules engine for multi-tenant chat guilds.
//
// This package tree contains a rules engine that augments human moderators
// on a chat platform. Every inbound message event is run through a batch of
// content rules (rate, duplicate, caps, mentions, emoji, links, invites,
// keywords) under the owning guild's policy. Detected violations are
// appended to a durable ledger, and cumulative per-user counts drive an
// escalating punishment ladder (warn, mute, human review). The outcome of
// processing is a decision plus side-effects: message deletion, punishment
// dispatch, counters, and operator notifications.
//
// See `cmd/warden` for the daemon built on this package tree.
package automod
