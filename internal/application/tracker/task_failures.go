package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// ManagerMailer mails the site managers
type ManagerMailer interface {
	MailManagers(ctx context.Context, subject, text string) error
}

// TaskFailureMailer tells the managers about background tasks that gave
// up, so stuck wiki edits do not go unnoticed
type TaskFailureMailer struct {
	mailer ManagerMailer
	logger *zap.Logger
}

// NewTaskFailureMailer creates a new TaskFailureMailer
func NewTaskFailureMailer(mailer ManagerMailer, logger *zap.Logger) *TaskFailureMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskFailureMailer{mailer: mailer, logger: logger}
}

// TaskFailed implements scheduler.FailureNotifier
func (m *TaskFailureMailer) TaskFailed(ctx context.Context, task *scheduler.Task, err error) {
	subject := fmt.Sprintf("Task %s failed", task.Name)
	var b strings.Builder
	fmt.Fprintf(&b, "Task %d (%s) failed after %d attempts.\n\n", task.ID, task.Name, task.Attempts)
	fmt.Fprintf(&b, "Parameters: %s\n", string(task.Params))
	fmt.Fprintf(&b, "Error: %v\n", err)
	if mailErr := m.mailer.MailManagers(ctx, subject, b.String()); mailErr != nil {
		m.logger.Error("Failed to report failed task",
			zap.Int64("task_id", task.ID),
			zap.String("task", task.Name),
			zap.Error(mailErr))
	}
}

var _ scheduler.FailureNotifier = (*TaskFailureMailer)(nil)
