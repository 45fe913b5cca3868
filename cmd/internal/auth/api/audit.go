package authapi

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Audit events go to the structured log under a fixed "audit" group. Raw identities and
// tokens never appear here; only fingerprints.

func (h *Handler) auditLoginFailed(ctx context.Context, ip net.IP, ua, identityFP, reason string) {
	h.audit(ctx, "auth.login.failed", ip, ua,
		slog.String("identity_fp", identityFP),
		slog.String("reason", reason),
	)
}

func (h *Handler) auditLoginSuccess(ctx context.Context, ip net.IP, ua, identityFP, tokenID string) {
	h.audit(ctx, "auth.login.success", ip, ua,
		slog.String("identity_fp", identityFP),
		slog.String("token_id", tokenID),
	)
}

func (h *Handler) auditLoginRateLimited(ctx context.Context, ip net.IP, ua string, retryAfter time.Duration) {
	h.audit(ctx, "auth.login.rate_limited", ip, ua,
		slog.Int64("retry_after_s", int64(retryAfter.Seconds())),
	)
}

func (h *Handler) audit(ctx context.Context, action string, ip net.IP, ua string, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	all := make([]any, 0, len(attrs)+3)
	all = append(all, slog.String("action", action))
	if ip != nil {
		all = append(all, slog.String("ip", ip.String()))
	}
	if ua = strings.TrimSpace(ua); ua != "" {
		all = append(all, slog.String("user_agent", ua))
	}
	for _, a := range attrs {
		all = append(all, a)
	}
	h.log.LogAttrs(ctx, slog.LevelInfo, "audit", slog.Group("audit", all...))
}
