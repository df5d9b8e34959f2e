package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"eventix/internal/logger"
	"eventix/internal/metrics"
	"eventix/internal/money"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "emails"
	failedKey = "emails:failed"

	maxTries = 3
)

// Email types, used as the metrics label.
const (
	TypeBookingConfirmed = "booking_confirmed"
	TypeBookingUpdated   = "booking_updated"
	TypeBookingCancelled = "booking_cancelled"
	TypeTopUpReceipt     = "topup_receipt"
	TypeGeneric          = "generic"
)

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Config struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string

	RetryDelay time.Duration
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service queues outgoing mail in Redis and delivers it over SMTP from a
// single worker started with Start.
type Service struct {
	redis *redis.Client
	cfg   Config
	send  sendFunc
}

func New(rdb *redis.Client, cfg Config) *Service {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Service{redis: rdb, cfg: cfg, send: smtp.SendMail}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, EmailJob{Type: TypeGeneric, To: to, Name: name, Subject: subject, Body: body})
}

func (s *Service) enqueue(ctx context.Context, job EmailJob) error {
	if job.Created.IsZero() {
		job.Created = time.Now()
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Error("failed to marshal email job", "error", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue email", "to", job.To, "type", job.Type, "error", err)
		metrics.RecordEmail(job.Type, "queue_failed")
		return err
	}

	logger.Info("email queued", "to", job.To, "type", job.Type)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad email job", "error", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Error("failed to send email", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.RetryDelay):
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			metrics.RecordEmail(job.Type, "retry")
		} else {
			s.saveFailed(job, err)
			metrics.RecordEmail(job.Type, "failed")
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Info("email sent", "to", job.To, "type", job.Type)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return s.send(addr, auth, s.cfg.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, string(data))
	logger.Error("email moved to failed queue", "to", job.To, "type", job.Type)
}

// QueueLength reports pending jobs and mirrors the value into the queue gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

const footer = "\n\n- Eventix Team"

func (s *Service) SendBookingConfirmation(ctx context.Context, to, name, eventName, venue string, when time.Time, quantity int, total money.Amount) error {
	body := fmt.Sprintf(`Hi %s,

Your tickets are confirmed!

Event: %s
Venue: %s
Date: %s
Tickets: %d
Paid from wallet: %s

Download your e-ticket from the Eventix app.`, name, eventName, venue, when.Format("Jan 2, 2006 at 3:04 PM"), quantity, total)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeBookingConfirmed,
		To:      to,
		Name:    name,
		Subject: "Booking Confirmed - " + eventName,
		Body:    body + footer,
	})
}

// SendBookingUpdated notifies a quantity change. A positive delta was charged
// to the wallet, a negative one refunded.
func (s *Service) SendBookingUpdated(ctx context.Context, to, name, eventName string, from, quantity int, delta money.Amount) error {
	movement := "No wallet change."
	switch {
	case delta > 0:
		movement = fmt.Sprintf("Charged from wallet: %s", delta)
	case delta < 0:
		movement = fmt.Sprintf("Refunded to wallet: %s", -delta)
	}

	body := fmt.Sprintf(`Hi %s,

Your booking for %s was updated from %d to %d ticket(s).

%s`, name, eventName, from, quantity, movement)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeBookingUpdated,
		To:      to,
		Name:    name,
		Subject: "Booking Updated - " + eventName,
		Body:    body + footer,
	})
}

func (s *Service) SendCancellation(ctx context.Context, to, name, eventName string, quantity int, refund money.Amount) error {
	body := fmt.Sprintf(`Hi %s,

Your booking has been cancelled:

Event: %s
Tickets: %d
Refunded to wallet: %s`, name, eventName, quantity, refund)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeBookingCancelled,
		To:      to,
		Name:    name,
		Subject: "Booking Cancelled - " + eventName,
		Body:    body + footer,
	})
}

func (s *Service) SendTopUpReceipt(ctx context.Context, to, name string, amount, balance money.Amount) error {
	body := fmt.Sprintf(`Hi %s,

We received your wallet top-up.

Amount: %s
New balance: %s`, name, amount, balance)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeTopUpReceipt,
		To:      to,
		Name:    name,
		Subject: "Wallet Top-up Receipt",
		Body:    body + footer,
	})
}
