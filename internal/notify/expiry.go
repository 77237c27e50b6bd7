package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

// ExpiringCertificate is one certificate of fitness inside the notification
// window, joined with the organization's notification contact.
type ExpiringCertificate struct {
	OrgID           string
	OrgName         string
	ContactEmail    string
	PatientName     string
	CertificateType string
	ExpiryDate      time.Time
	DaysUntilExpiry int
}

// CertificateQuerier is the subset of pgxpool.Pool the store needs.
type CertificateQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CertificateStore loads certificates approaching expiry.
type CertificateStore struct {
	db CertificateQuerier
}

// NewCertificateStore creates a store over the given connection.
func NewCertificateStore(db CertificateQuerier) *CertificateStore {
	return &CertificateStore{db: db}
}

// ListExpiring returns certificates expiring within windowDays, newest
// expiry last, joined with the owning organization's contact email.
func (s *CertificateStore) ListExpiring(ctx context.Context, windowDays int) ([]ExpiringCertificate, error) {
	query := `
		SELECT o.id, o.name, o.contact_email,
		       p.first_name || ' ' || p.last_name,
		       cc.certificate_type, cc.expiry_date, cc.days_until_expiry
		FROM certificate_compliance cc
		JOIN patients p ON p.id = cc.patient_id
		JOIN organizations o ON o.id = p.organization_id
		WHERE cc.days_until_expiry BETWEEN 0 AND $1
		  AND o.contact_email IS NOT NULL
		ORDER BY o.id, cc.expiry_date
	`
	rows, err := s.db.Query(ctx, query, windowDays)
	if err != nil {
		return nil, fmt.Errorf("notify: expiring certificate query failed: %w", err)
	}
	defer rows.Close()

	var certs []ExpiringCertificate
	for rows.Next() {
		var cert ExpiringCertificate
		if err := rows.Scan(
			&cert.OrgID,
			&cert.OrgName,
			&cert.ContactEmail,
			&cert.PatientName,
			&cert.CertificateType,
			&cert.ExpiryDate,
			&cert.DaysUntilExpiry,
		); err != nil {
			return nil, fmt.Errorf("notify: expiring certificate scan failed: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: expiring certificate iteration failed: %w", err)
	}
	return certs, nil
}

// ExpiringLister loads certificates approaching expiry.
type ExpiringLister interface {
	ListExpiring(ctx context.Context, windowDays int) ([]ExpiringCertificate, error)
}

// ExpiryNotifier emails each organization a digest of certificates expiring
// within the configured window. One failed organization never blocks the
// rest.
type ExpiryNotifier struct {
	store      ExpiringLister
	sender     EmailSender
	windowDays int
	logger     *logging.Logger
}

// NewExpiryNotifier wires the notifier. A zero windowDays means 30.
func NewExpiryNotifier(store ExpiringLister, sender EmailSender, windowDays int, logger *logging.Logger) *ExpiryNotifier {
	if windowDays <= 0 {
		windowDays = 30
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ExpiryNotifier{store: store, sender: sender, windowDays: windowDays, logger: logger}
}

// Run sends one digest per organization with expiring certificates and
// returns how many digests were sent.
func (n *ExpiryNotifier) Run(ctx context.Context) (int, error) {
	certs, err := n.store.ListExpiring(ctx, n.windowDays)
	if err != nil {
		return 0, err
	}
	if len(certs) == 0 {
		n.logger.Info("no certificates inside notification window", "window_days", n.windowDays)
		return 0, nil
	}

	byOrg := make(map[string][]ExpiringCertificate)
	for _, cert := range certs {
		byOrg[cert.OrgID] = append(byOrg[cert.OrgID], cert)
	}

	orgIDs := make([]string, 0, len(byOrg))
	for orgID := range byOrg {
		orgIDs = append(orgIDs, orgID)
	}
	sort.Strings(orgIDs)

	sent := 0
	for _, orgID := range orgIDs {
		group := byOrg[orgID]
		msg := n.composeDigest(group)
		if err := n.sender.Send(ctx, msg); err != nil {
			n.logger.Error("expiry digest send failed", "org_id", orgID, "error", err)
			continue
		}
		n.logger.Info("expiry digest sent",
			"org_id", orgID,
			"certificates", len(group),
			"to", msg.To,
		)
		sent++
	}
	return sent, nil
}

func (n *ExpiryNotifier) composeDigest(certs []ExpiringCertificate) EmailMessage {
	org := certs[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", org.OrgName)
	fmt.Fprintf(&b, "The following certificates of fitness expire within %d days:\n\n", n.windowDays)
	for _, cert := range certs {
		fmt.Fprintf(&b, "  - %s: %s expires %s (%d days)\n",
			cert.PatientName,
			cert.CertificateType,
			cert.ExpiryDate.Format("2006-01-02"),
			cert.DaysUntilExpiry,
		)
	}
	b.WriteString("\nPlease schedule renewal examinations before the expiry dates.\n")

	return EmailMessage{
		To:      org.ContactEmail,
		ToName:  org.OrgName,
		Subject: fmt.Sprintf("%d certificate(s) of fitness expiring within %d days", len(certs), n.windowDays),
		Body:    b.String(),
	}
}
