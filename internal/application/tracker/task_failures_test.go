package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mail"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/scheduler"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTaskFailureMailer(t *testing.T) {
	task, err := scheduler.NewTask(scheduler.TaskMediaAddToWiki, PageTaskParams{PageID: 101, UserID: 1}, time.Now(), 3)
	require.NoError(t, err)
	task.ID = 42
	task.Attempts = 3

	t.Run("mails the managers", func(t *testing.T) {
		sender := &mail.MemorySender{}
		m := NewTaskFailureMailer(mail.NewMailer(sender, []string{"office@example.org"}, nil), nil)
		m.TaskFailed(context.Background(), task, errors.New("edit conflict"))

		sent := sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"office@example.org"}, sent[0].To)
		assert.Equal(t, "Task media.add_to_wiki failed", sent[0].Subject)
		assert.Contains(t, sent[0].Text, "Task 42 (media.add_to_wiki) failed after 3 attempts.")
		assert.Contains(t, sent[0].Text, `"page_id":101`)
		assert.Contains(t, sent[0].Text, "Error: edit conflict")
	})

	t.Run("no managers configured", func(t *testing.T) {
		sender := &mail.MemorySender{}
		m := NewTaskFailureMailer(mail.NewMailer(sender, nil, nil), nil)
		m.TaskFailed(context.Background(), task, errors.New("boom"))
		assert.Empty(t, sender.Sent())
	})

	t.Run("mail errors are logged", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		m := NewTaskFailureMailer(failingMailer{}, zap.New(core))
		m.TaskFailed(context.Background(), task, errors.New("boom"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "Failed to report failed task", entry.Message)
		assert.Equal(t, int64(42), entry.ContextMap()["task_id"])
	})
}

type failingMailer struct{}

func (failingMailer) MailManagers(context.Context, string, string) error {
	return errors.New("smtp down")
}
