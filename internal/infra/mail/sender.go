package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/infra/metrics"
)

const implicitTLSPort = 465

type ConfigSource interface {
	Get(ctx context.Context) (*entity.RelayConfig, error)
}

type Options struct {
	ConnectTimeout  time.Duration
	GreetingTimeout time.Duration
	SocketTimeout   time.Duration // inactivity bound, refreshed before every command

	// Display name used when the stored config has none.
	DefaultFromName string
}

func DefaultOptions() Options {
	return Options{
		ConnectTimeout:  10 * time.Second,
		GreetingTimeout: 10 * time.Second,
		SocketTimeout:   15 * time.Second,
		DefaultFromName: "Premunia",
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = def.ConnectTimeout
	}
	if o.GreetingTimeout <= 0 {
		o.GreetingTimeout = def.GreetingTimeout
	}
	if o.SocketTimeout <= 0 {
		o.SocketTimeout = def.SocketTimeout
	}
	if strings.TrimSpace(o.DefaultFromName) == "" {
		o.DefaultFromName = def.DefaultFromName
	}
	return o
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// RelayTransport sends one message per connection through the configured
// SMTP relay. It never retries.
type RelayTransport struct {
	configs   ConfigSource
	opts      Options
	dial      dialFunc
	localName string
	log       logrus.FieldLogger
}

func NewRelayTransport(configs ConfigSource, opts Options, log logrus.FieldLogger) *RelayTransport {
	opts = opts.withDefaults()
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	return &RelayTransport{
		configs:   configs,
		opts:      opts,
		dial:      dialer.DialContext,
		localName: "localhost",
		log:       log,
	}
}

// Send validates the recipient and the relay config before touching the
// network, then delivers msg and returns its Message-ID. Caller cancellation
// is ignored; the attempt is bounded by the configured timeouts only.
func (t *RelayTransport) Send(ctx context.Context, msg Message) (string, error) {
	id, err := t.send(context.WithoutCancel(ctx), msg)
	metrics.RecordEmailAttempt(string(KindOf(err)), err == nil)
	return id, err
}

func (t *RelayTransport) send(ctx context.Context, msg Message) (string, error) {
	to := strings.TrimSpace(msg.To)
	if err := checkmail.ValidateFormat(to); err != nil {
		return "", &Error{Kind: KindInvalidRecipient, Err: fmt.Errorf("%q: %w", to, err)}
	}
	if !strings.Contains(strings.Trim(domainOf(to), "."), ".") {
		return "", &Error{Kind: KindInvalidRecipient, Err: fmt.Errorf("%q: domain has no dot", to)}
	}

	cfg, err := t.configs.Get(ctx)
	if errors.Is(err, entity.ErrNotFound) {
		cfg = &entity.RelayConfig{}
	} else if err != nil {
		return "", fmt.Errorf("load relay config: %w", err)
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		return "", &Error{Kind: KindConfigIncomplete, Missing: missing}
	}

	log := t.log.WithFields(logrus.Fields{
		"to":   to,
		"host": cfg.Host,
		"port": cfg.Port,
	})

	if strings.TrimSpace(cfg.FromName) == "" {
		cfg.FromName = t.opts.DefaultFromName
	}
	m, messageID := compose(cfg, to, msg)

	sess, err := t.open(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("relay connection failed")
		return "", err
	}

	if err := sess.deliver(cfg.FromEmail, to, m); err != nil {
		sess.abort()
		log.WithError(err).Warn("relay refused message")
		return "", err
	}
	sess.quit()

	log.WithField("message_id", messageID).Info("email sent")
	return messageID, nil
}

func compose(cfg *entity.RelayConfig, to string, msg Message) (*gomail.Message, string) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), domainOf(cfg.FromEmail))

	m := gomail.NewMessage()
	m.SetAddressHeader("From", cfg.FromEmail, cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m, messageID
}

func (t *RelayTransport) open(ctx context.Context, cfg *entity.RelayConfig) (*session, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	conn, err := t.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(KindConnectFailed, err)
	}

	// Operators self-host relays, self-signed certificates are accepted.
	tlsConfig := &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: true} //nolint:gosec

	s := &session{raw: conn, socketTimeout: t.opts.SocketTimeout}
	s.extend(t.opts.GreetingTimeout)

	var c net.Conn = conn
	if cfg.Port == implicitTLSPort {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, classify(KindConnectFailed, err)
		}
		c = tlsConn
	}

	client, err := smtp.NewClient(c, cfg.Host)
	if err != nil {
		conn.Close()
		return nil, classify(KindConnectFailed, err)
	}
	s.client = client

	s.extend(s.socketTimeout)
	if err := client.Hello(t.localName); err != nil {
		s.abort()
		return nil, classify(KindConnectFailed, err)
	}

	if cfg.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			s.extend(s.socketTimeout)
			if err := client.StartTLS(tlsConfig); err != nil {
				s.abort()
				return nil, classify(KindConnectFailed, err)
			}
		}
	}

	if ok, mechs := client.Extension("AUTH"); ok {
		s.extend(s.socketTimeout)
		if err := client.Auth(pickAuth(mechs, cfg)); err != nil {
			s.abort()
			return nil, classify(KindAuthFailed, err)
		}
	}

	return s, nil
}

func pickAuth(mechs string, cfg *entity.RelayConfig) smtp.Auth {
	if strings.Contains(mechs, "CRAM-MD5") {
		return smtp.CRAMMD5Auth(cfg.Username, cfg.Password)
	}
	return smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
}

type session struct {
	raw           net.Conn
	client        *smtp.Client
	socketTimeout time.Duration
}

// extend pushes the socket deadline d into the future.
func (s *session) extend(d time.Duration) {
	_ = s.raw.SetDeadline(time.Now().Add(d))
}

func (s *session) deliver(from, to string, m *gomail.Message) error {
	s.extend(s.socketTimeout)
	if err := s.client.Mail(from); err != nil {
		return classify(KindSendRejected, err)
	}

	s.extend(s.socketTimeout)
	if err := s.client.Rcpt(to); err != nil {
		return classify(KindSendRejected, err)
	}

	s.extend(s.socketTimeout)
	w, err := s.client.Data()
	if err != nil {
		return classify(KindSendRejected, err)
	}
	if _, err := m.WriteTo(w); err != nil {
		w.Close()
		return classify(KindSendRejected, err)
	}

	s.extend(s.socketTimeout)
	if err := w.Close(); err != nil {
		return classify(KindSendRejected, err)
	}
	return nil
}

// quit ends the exchange politely. The message is already accepted, so a
// failing QUIT only closes the connection.
func (s *session) quit() {
	s.extend(s.socketTimeout)
	if err := s.client.Quit(); err != nil {
		s.client.Close()
	}
}

func (s *session) abort() {
	if s.client != nil {
		s.client.Close()
		return
	}
	s.raw.Close()
}

func classify(kind Kind, err error) *Error {
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func domainOf(address string) string {
	if at := strings.LastIndex(address, "@"); at != -1 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}
