package app

import (
	"context"
	"time"

	"bitealert_reminder_service/internal/domain/audit"

	"github.com/sirupsen/logrus"
)

// AuditServiceImpl implements audit.Recorder on top of the audit
// repository. Writes are fire-and-forget: any failure is logged and
// swallowed so the triggering business operation never fails on audit.
type AuditServiceImpl struct {
	repo        audit.Repository
	dedupWindow time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

func NewAuditService(r audit.Repository, dedupWindow time.Duration, logger *logrus.Logger) *AuditServiceImpl {
	return &AuditServiceImpl{
		repo:        r,
		dedupWindow: dedupWindow,
		logger:      logger,
		now:         time.Now,
	}
}

// Append writes one audit entry. Reschedule entries for the same
// subject and actor inside the trailing dedup window are dropped to
// absorb client-side double submits; completions are always recorded,
// each one is a distinct meaningful event.
func (s *AuditServiceImpl) Append(ctx context.Context, e audit.Entry) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if e.ActorRole == "" {
		e.ActorRole = audit.UnattributedStaff.Role
	}

	if e.Action == audit.ActionDoseRescheduled && s.dedupWindow > 0 {
		since := e.OccurredAt.Add(-s.dedupWindow)
		exists, err := s.repo.ExistsSince(ctx, e.Action, e.BiteCaseID, e.DoseLabel, e.ActorName, since)
		if err != nil {
			s.logger.WithError(err).Warn("Audit dedup check failed, recording entry anyway")
		} else if exists {
			s.logger.WithFields(logrus.Fields{
				"bite_case_id": e.BiteCaseID,
				"dose":         e.DoseLabel,
			}).Debug("Duplicate reschedule audit entry suppressed")
			return
		}
	}

	if err := s.repo.Insert(ctx, &e); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":       e.Action,
			"bite_case_id": e.BiteCaseID,
		}).Error("Failed to write audit entry")
	}
}
