package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/archive"
	"github.com/yuditriaji/ruhmrita-backend/pkg/email"
)

// Mailer sends the restock digest.
type Mailer interface {
	IsConfigured() bool
	SendRestockDigest(ctx context.Context, to string, day time.Time, lines []email.DigestLine) error
}

// Archiver stores generated digests.
type Archiver interface {
	SaveDigest(ctx context.Context, d archive.Digest) error
}

// Options configures the digest job.
type Options struct {
	Spec     string // standard 5 field cron expression
	Location *time.Location
	MailTo   string
	Restock  analytics.RestockOptions
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	ledger  *ledger.Ledger
	mailer  Mailer
	archive Archiver
	opts    Options
	now     func() time.Time
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance. mailer and archiver may be nil.
func NewScheduler(l *ledger.Ledger, mailer Mailer, archiver Archiver, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(opts.Location)),
		ledger:  l,
		mailer:  mailer,
		archive: archiver,
		opts:    opts,
		now:     time.Now,
		logger:  logger,
	}
}

// Start starts the scheduler. An empty Spec disables the digest.
func (s *Scheduler) Start() error {
	if s.opts.Spec == "" {
		s.logger.Info("restock digest disabled")
		return nil
	}

	s.logger.Info("starting scheduler", zap.String("digest_cron", s.opts.Spec))
	if _, err := s.cron.AddFunc(s.opts.Spec, s.sendRestockDigest); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendRestockDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.RunDigest(ctx); err != nil {
		s.logger.Error("restock digest failed", zap.Error(err))
	}
}

// RunDigest builds today's digest, mails it and archives it. Mail and archive
// failures are both attempted before the joined error is returned.
func (s *Scheduler) RunDigest(ctx context.Context) (archive.Digest, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return archive.Digest{}, err
	}

	now := s.now().In(s.opts.Location)
	restock := s.opts.Restock
	restock.Now = now
	digest := BuildDigest(snap, now, restock, s.opts.Location)

	var errs []error
	if s.mailer != nil && s.mailer.IsConfigured() && s.opts.MailTo != "" {
		if err := s.mailer.SendRestockDigest(ctx, s.opts.MailTo, now, DigestLines(digest)); err != nil {
			errs = append(errs, err)
		} else {
			s.logger.Info("restock digest sent", zap.Int("items", len(digest.Items)))
		}
	}
	if s.archive != nil {
		if err := s.archive.SaveDigest(ctx, digest); err != nil {
			errs = append(errs, err)
		}
	}

	return digest, errors.Join(errs...)
}

// BuildDigest lists the restock candidates plus the day's takings.
func BuildDigest(snap ledger.Snapshot, now time.Time, opts analytics.RestockOptions, loc *time.Location) archive.Digest {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	today := analytics.FilterSales(snap.Sales, analytics.Range{From: &start, To: &end})

	opts.Now = now
	candidates := analytics.RestockCandidates(snap.Items, snap.Sales, opts)

	d := archive.Digest{
		Day:         start.Format("2006-01-02"),
		GeneratedAt: now.UTC(),
		SalesTotal:  analytics.SalesTotal(today, analytics.Range{}).String(),
		TotalProfit: analytics.TotalProfit(today).String(),
		Items:       make([]archive.DigestItem, 0, len(candidates)),
	}
	for _, c := range candidates {
		d.Items = append(d.Items, archive.DigestItem{
			SareeID:  c.Item.ID.String(),
			Name:     c.Item.Name,
			Type:     c.Item.Type,
			Quantity: c.Item.Quantity,
			Sold:     c.SoldInWindow,
			Reason:   c.Reason,
		})
	}
	return d
}

// DigestLines converts archived items to email rows.
func DigestLines(d archive.Digest) []email.DigestLine {
	lines := make([]email.DigestLine, 0, len(d.Items))
	for _, it := range d.Items {
		lines = append(lines, email.DigestLine{
			Name:     it.Name,
			Type:     it.Type,
			Quantity: it.Quantity,
			Sold:     it.Sold,
			Reason:   it.Reason,
		})
	}
	return lines
}
