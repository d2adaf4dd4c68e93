package service

import (
	"time"

	"github.com/popeskul/cadence/internal/models"
)

// State is the delivery lifecycle state of a submission.
type State string

const (
	StatePending   State = "pending"
	StateScheduled State = "scheduled"
	StateActive    State = "active"
	StateDone      State = "done"
)

// DeliveryState derives the lifecycle state from the stored pointers.
func DeliveryState(sub *models.Submission) State {
	switch {
	case !sub.IsReady():
		return StatePending
	case isFinished(sub):
		return StateDone
	case !sub.LastSentTime.Valid:
		return StateScheduled
	default:
		return StateActive
	}
}

// IsDue reports whether the next message of sub should be sent at now.
func IsDue(sub *models.Submission, now time.Time) bool {
	if !sub.IsReady() || isFinished(sub) {
		return false
	}

	if !sub.LastSentTime.Valid {
		return !now.Before(sub.StartTime)
	}

	return now.Sub(sub.LastSentTime.Time) >= sub.Cadence.Interval()
}

// isFinished is the single terminal condition: a do-not-repeat submission
// that has sent and whose cursor wrapped back to the head.
func isFinished(sub *models.Submission) bool {
	return sub.Repeat == models.DoNotRepeat &&
		sub.LastSentTime.Valid &&
		sub.MessageToSend.Valid &&
		sub.MessageToSend.UUID == sub.FirstMessageID.UUID
}
