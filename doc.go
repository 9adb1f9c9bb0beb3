// Package accounts provides email verification and credential lifecycle
// primitives (signup, verification codes, JWT sessions, password resets)
// plus HTTP helpers for JSON clients.
//
// Account lifecycle:
//   - Accounts carry an AccountStatus field that is persisted via Bun. An
//     account starts unverified and becomes verified exactly once; the
//     transition clears the pending verification code atomically.
//   - AccountStateMachine centralizes the transition graph, hooks, and
//     persistence. Invoke Transition with ActorRef metadata, or use the
//     Accounts repository's Verify helper.
//
// Commands:
//   - SignupHandler, VerifyEmailHandler, InitializePasswordResetHandler, and
//     FinalizePasswordResetHandler wrap each flow in a transaction with a
//     bounded timeout. Results come back through OnResponse callbacks so HTTP
//     and non-HTTP callers share the same entry points.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the state
//     machine, and the command handlers to describe signup, verification,
//     login, and password reset events. Sinks run best-effort (errors are
//     logged) so you can forward to a database or queue without blocking
//     authentication.
package accounts
