package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubLister struct {
	certs []ExpiringCertificate
	err   error
}

func (s *stubLister) ListExpiring(_ context.Context, _ int) ([]ExpiringCertificate, error) {
	return s.certs, s.err
}

type recordingSender struct {
	sent    []EmailMessage
	failFor string
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.failFor != "" && msg.To == r.failFor {
		return errors.New("smtp unavailable")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func expiringCert(orgID, email, patient string, days int) ExpiringCertificate {
	return ExpiringCertificate{
		OrgID:           orgID,
		OrgName:         "Org " + orgID,
		ContactEmail:    email,
		PatientName:     patient,
		CertificateType: "certificate of fitness",
		ExpiryDate:      time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		DaysUntilExpiry: days,
	}
}

func TestExpiryNotifierGroupsPerOrg(t *testing.T) {
	lister := &stubLister{certs: []ExpiringCertificate{
		expiringCert("org-a", "a@example.com", "Thabo Nkosi", 5),
		expiringCert("org-a", "a@example.com", "Sipho Dlamini", 12),
		expiringCert("org-b", "b@example.com", "Anna Smit", 20),
	}}
	sender := &recordingSender{}
	notifier := NewExpiryNotifier(lister, sender, 30, nil)

	sent, err := notifier.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 digests, got %d", sent)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}

	first := sender.sent[0]
	if first.To != "a@example.com" {
		t.Errorf("expected org-a digest first, got %q", first.To)
	}
	if !strings.Contains(first.Body, "Thabo Nkosi") || !strings.Contains(first.Body, "Sipho Dlamini") {
		t.Errorf("digest missing patients: %q", first.Body)
	}
	if !strings.Contains(first.Subject, "2 certificate(s)") {
		t.Errorf("unexpected subject: %q", first.Subject)
	}
}

func TestExpiryNotifierNoCertificates(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewExpiryNotifier(&stubLister{}, sender, 30, nil)

	sent, err := notifier.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 0 || len(sender.sent) != 0 {
		t.Fatalf("expected no digests, got %d", sent)
	}
}

func TestExpiryNotifierContinuesAfterSendFailure(t *testing.T) {
	lister := &stubLister{certs: []ExpiringCertificate{
		expiringCert("org-a", "a@example.com", "Thabo Nkosi", 5),
		expiringCert("org-b", "b@example.com", "Anna Smit", 20),
	}}
	sender := &recordingSender{failFor: "a@example.com"}
	notifier := NewExpiryNotifier(lister, sender, 30, nil)

	sent, err := notifier.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 digest after failure, got %d", sent)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "b@example.com" {
		t.Fatalf("expected org-b digest to survive, got %+v", sender.sent)
	}
}

func TestExpiryNotifierStoreFailure(t *testing.T) {
	notifier := NewExpiryNotifier(&stubLister{err: errors.New("connection refused")}, &recordingSender{}, 30, nil)

	if _, err := notifier.Run(context.Background()); err == nil {
		t.Fatal("expected error from store failure")
	}
}

func TestCertificateStoreListExpiring(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	expiry := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "name", "contact_email", "patient", "certificate_type", "expiry_date", "days_until_expiry",
	}).AddRow("org-a", "Acme Mining", "safety@acme.example", "Thabo Nkosi", "certificate of fitness", expiry, 14)

	mock.ExpectQuery("SELECT o.id, o.name, o.contact_email").
		WithArgs(30).
		WillReturnRows(rows)

	store := NewCertificateStore(mock)
	certs, err := store.ListExpiring(context.Background(), 30)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(certs) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(certs))
	}
	if certs[0].PatientName != "Thabo Nkosi" || certs[0].DaysUntilExpiry != 14 {
		t.Fatalf("unexpected certificate: %+v", certs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
