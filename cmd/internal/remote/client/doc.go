// Package client calls the planner auth API. Every call goes through retry.Call, so
// transient failures are retried on the policy's schedule and whatever finally fails comes
// back as a *classify.Error carrying a user-facing message.
package client
