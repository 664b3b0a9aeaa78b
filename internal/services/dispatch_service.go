package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/dwelly/negotiation-service/internal/config"
	"github.com/dwelly/negotiation-service/internal/models"
	"github.com/dwelly/negotiation-service/internal/repositories"
	"github.com/dwelly/negotiation-service/internal/utils"
)

const (
	dispatchBatchSize   = 100
	dispatchMaxAttempts = 8
)

// DispatchService drains the notification outbox. The in-app row is
// already visible the moment the transition commits; this service only
// handles the out-of-band channels (email, SMS), so a provider outage
// never fails or delays a state transition. Failed sends back off
// exponentially and give up after dispatchMaxAttempts.
type DispatchService struct {
	cfg            *config.Config
	notifRepo      repositories.NotificationRepository
	userRepo       repositories.UserRepository
	sendgridClient *sendgrid.Client
	twilioClient   *twilio.RestClient
	cron           *cron.Cron
}

func NewDispatchService(
	cfg *config.Config,
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) *DispatchService {
	s := &DispatchService{
		cfg:       cfg,
		notifRepo: notifRepo,
		userRepo:  userRepo,
	}
	if cfg.SendgridAPIKey != "" {
		s.sendgridClient = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	if cfg.TwilioAccountSID != "" {
		s.twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	return s
}

// Start schedules the dispatcher loop. Call Stop on shutdown.
func (s *DispatchService) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("@every 1m", func() {
		if err := s.RunOnce(context.Background()); err != nil {
			utils.Logger.WithError(err).Error("Notification dispatch run failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	utils.Logger.Info("Notification dispatcher started")
	return nil
}

func (s *DispatchService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce drains one batch of due rows. Exported so tests and the dev
// seed path can drive it without the cron schedule.
func (s *DispatchService) RunOnce(ctx context.Context) error {
	due, err := s.notifRepo.ListDueForDispatch(ctx, time.Now().UTC(), dispatchBatchSize)
	if err != nil {
		return err
	}

	for _, n := range due {
		if err := s.dispatchOne(ctx, n); err != nil {
			attempts := n.Attempts + 1
			terminal := attempts >= dispatchMaxAttempts
			next := time.Now().UTC().Add(backoffDelay(attempts))
			if mErr := s.notifRepo.MarkDispatchFailed(ctx, n.ID, attempts, next, terminal); mErr != nil {
				utils.Logger.WithError(mErr).Errorf("Failed to record dispatch failure for %s", n.ID)
			}
			utils.Logger.WithError(err).Warnf("Dispatch attempt %d for notification %s failed", attempts, n.ID)
			continue
		}
		if err := s.notifRepo.MarkDispatched(ctx, n.ID); err != nil {
			// Worst case the row is re-sent next run; delivery is
			// at-least-once by contract.
			utils.Logger.WithError(err).Errorf("Failed to mark notification %s dispatched", n.ID)
		}
	}
	return nil
}

func backoffDelay(attempts int) time.Duration {
	d := time.Minute << (attempts - 1)
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

func (s *DispatchService) dispatchOne(ctx context.Context, n *models.Notification) error {
	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		// Recipient deleted their account; nothing to deliver.
		return nil
	}

	if s.cfg.LDFlag_NotificationEmailEnabled && s.sendgridClient != nil && user.Email != "" {
		if err := s.sendEmail(user, n); err != nil {
			return err
		}
	}
	if s.cfg.LDFlag_NotificationSMSEnabled && s.twilioClient != nil && user.Phone != "" {
		if err := s.sendSMS(user, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *DispatchService) sendEmail(user *models.User, n *models.Notification) error {
	from := mail.NewEmail("Dwelly", s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(user.FirstName+" "+user.LastName, user.Email)
	msg := mail.NewSingleEmail(from, n.Title, to, n.Message, notificationEmailHTML(n))

	resp, err := s.sendgridClient.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (s *DispatchService) sendSMS(user *models.User, n *models.Notification) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(user.Phone)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(n.Title + ": " + n.Message)

	_, err := s.twilioClient.Api.CreateMessage(params)
	return err
}

func notificationEmailHTML(n *models.Notification) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f6f8;">
  <div style="max-width: 600px; margin: auto; background: #fff; border: 1px solid #e1e4e8; border-radius: 8px;">
    <div style="padding: 15px 20px; border-bottom: 1px solid #e1e4e8;">
      <h1 style="margin: 0; font-size: 20px; color: #24292e;">%s</h1>
    </div>
    <div style="padding: 20px; color: #444;">
      <p style="margin-top: 0;">%s</p>
      <p style="color: #888; font-size: 12px;">Open the app to respond.</p>
    </div>
  </div>
</body>
</html>`, n.Title, n.Message)
}
