// Package tasks runs background jobs over stored accounts with progress reporting.
//
// # Profile Refresh
//
// [RefreshEngine.Refresh] re-fetches the Steam profile of every stored account through a worker pool:
//   - Accounts are listed once from the [AccountStore] and queued as jobs
//   - Workers share a token-bucket limiter so the Steam Web API sees a steady request rate
//   - Changed persona names and avatars are written back; unchanged accounts are left alone
//   - Failures are collected per account and never stop the other workers
//
// # Progress Reporting
//
// Progress updates are sent on a caller-supplied channel without blocking. The [ProgressUpdate] struct carries the
// phase, step counters and a message for CLI/UI rendering; updates are dropped when the channel is full.
package tasks
