// Package competitions defines the EvalIA domain model: users and their
// roles, competition events with their rules and metrics, submissions,
// and the per-event standings leaderboards are computed from.
//
// The types here carry no storage or transport concerns. They validate
// themselves (EventDraft.Validate, Rules.CheckFile) and answer questions
// about their state (Event.AcceptsSubmissions, Role.Satisfies) so every
// caller enforces the same rules.
package competitions
