package config

import (
	"os"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/dwelly/negotiation-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string

	DBURL string

	// RSA public key (PEM) used to verify access tokens minted by the
	// auth service.
	RSAPublicKeyPEM []byte

	SendgridAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Feature-flag snapshots
	LDFlag_SendgridFromEmail        string
	LDFlag_AllowReapplyAfterDecline bool
	LDFlag_NotificationEmailEnabled bool
	LDFlag_NotificationSMSEnabled   bool
}

const LDConnectionTimeout = 5 * time.Second

// build-time overrides, set with -ldflags
var (
	AppName             string
	LDServerContextKey  string
	LDServerContextKind string
)

// LoadConfig reads the runtime environment and snapshots feature flags.
// Required values are fatal when missing; the process has nothing
// useful to do without them.
func LoadConfig() *Config {
	if AppName == "" {
		AppName = "negotiation-service"
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appURL := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appURL == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}
	pubKeyPEM := os.Getenv("RSA_PUBLIC_KEY_PEM")
	if pubKeyPEM == "" {
		utils.Logger.Fatal("RSA_PUBLIC_KEY_PEM env var is missing")
	}

	cfg := &Config{
		AppName:          AppName,
		AppPort:          appPort,
		AppUrl:           appURL,
		DBURL:            dbURL,
		RSAPublicKeyPEM:  []byte(pubKeyPEM),
		SendgridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		// Flag defaults used when LaunchDarkly is not configured.
		LDFlag_AllowReapplyAfterDecline: false,
		LDFlag_NotificationEmailEnabled: false,
		LDFlag_NotificationSMSEnabled:   false,
	}

	loadFeatureFlags(cfg, env)

	utils.Logger.Infof("Loaded config for %s (%s)", AppName, env)
	return cfg
}

// loadFeatureFlags snapshots flag values once at boot, the same way the
// rest of the platform consumes LaunchDarkly: no live re-evaluation,
// restart to pick up changes.
func loadFeatureFlags(cfg *Config, env string) {
	ldSDK := os.Getenv("LD_SDK_KEY")
	if ldSDK == "" {
		utils.Logger.Warn("LD_SDK_KEY not set; using feature-flag defaults")
		return
	}

	ldClient, err := ld.MakeClient(ldSDK, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	kind := LDServerContextKind
	if kind == "" {
		kind = "service"
	}
	key := LDServerContextKey
	if key == "" {
		key = AppName + "-" + env
	}
	ctx := ldcontext.NewWithKind(ldcontext.Kind(kind), key)

	fromEmail, err := ldClient.StringVariation("sendgrid_from_email", ctx, "")
	if err != nil {
		utils.Logger.WithError(err).Fatal("sendgrid_from_email flag error")
	}
	cfg.LDFlag_SendgridFromEmail = fromEmail

	reapply, err := ldClient.BoolVariation("allow_reapply_after_decline", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("allow_reapply_after_decline flag error")
	}
	cfg.LDFlag_AllowReapplyAfterDecline = reapply

	emailOn, err := ldClient.BoolVariation("notification_email_enabled", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("notification_email_enabled flag error")
	}
	cfg.LDFlag_NotificationEmailEnabled = emailOn

	smsOn, err := ldClient.BoolVariation("notification_sms_enabled", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("notification_sms_enabled flag error")
	}
	cfg.LDFlag_NotificationSMSEnabled = smsOn
}

func (c *Config) Close() {
}
