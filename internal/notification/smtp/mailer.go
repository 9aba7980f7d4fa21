// Package smtp sends notification mail through a plain SMTP relay. Delivery
// runs on a small worker pool so webhook handling never blocks on the relay.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"sync"

	"github.com/korelearn/tutor-management/internal/notification"
)

type mailJob struct {
	To      string
	Subject string
	Body    string
}

type Config struct {
	Host       string
	Port       string
	Username   string
	Password   string
	Sender     string
	MaxWorkers int
	QueueSize  int
}

type Mailer struct {
	config Config
	logger *slog.Logger

	jobQueue chan mailJob
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

func NewMailer(config Config, logger *slog.Logger) *Mailer {
	ctx, cancel := context.WithCancel(context.Background())

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.Sender == "" {
		config.Sender = "no-reply@localhost"
	}

	m := &Mailer{
		config:   config,
		logger:   logger,
		jobQueue: make(chan mailJob, config.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.startWorkers()
	return m
}

func (m *Mailer) startWorkers() {
	m.once.Do(func() {
		for i := 0; i < m.config.MaxWorkers; i++ {
			m.wg.Add(1)
			go func(id int) {
				defer m.wg.Done()
				for {
					select {
					case job := <-m.jobQueue:
						m.logger.Debug("mail worker processing job", "worker_id", id, "to", job.To)
						m.deliver(job)
					case <-m.ctx.Done():
						m.logger.Debug("mail worker shutting down", "worker_id", id)
						return
					}
				}
			}(i)
		}

		m.logger.Info("mail worker pool started",
			"max_workers", m.config.MaxWorkers,
			"queue_size", cap(m.jobQueue))
	})
}

// Send renders the template and enqueues delivery. A full queue is treated
// as a delivery failure; callers log and move on.
func (m *Mailer) Send(ctx context.Context, to, template string, data map[string]string) error {
	subject, body, err := render(template, data)
	if err != nil {
		return err
	}

	job := mailJob{To: to, Subject: subject, Body: body}

	select {
	case m.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("mail queue full, dropping message to %s", to)
	}
}

func (m *Mailer) deliver(job mailJob) {
	var auth smtp.Auth
	if m.config.Username != "" && m.config.Password != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := m.config.Host + ":" + m.config.Port

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.config.Sender, job.To, job.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			job.Body,
	)

	if err := smtp.SendMail(addr, auth, m.config.Sender, []string{job.To}, msg); err != nil {
		m.logger.Error("smtp send failed", "to", job.To, "error", err)
		return
	}
	m.logger.Info("mail sent", "to", job.To, "via", addr)
}

// Shutdown stops the workers after the in-flight deliveries finish.
func (m *Mailer) Shutdown() {
	m.logger.Info("shutting down mailer")
	m.cancel()
	m.wg.Wait()
	m.logger.Info("mailer shutdown complete")
}

var _ notification.Notifier = (*Mailer)(nil)
