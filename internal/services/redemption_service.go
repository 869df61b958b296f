// Package services – RedemptionService
//
// This file implements the redemption workflow. Submission validates the
// request, reserves the points through the ledger, records a pending
// redemption and then performs the non-critical bookkeeping (history entry,
// trending bump, instant perk effect). The ledger reservation is the single
// compensation point: unless the redemption row was written, the deferred
// release refunds the points on every exit path.
//
// Decisions move a pending redemption to approved or rejected exactly once.
// The transition is a conditional update, so only one caller can win it, and
// only the winner of a reject issues the refund.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rewards-shop/internal/domain"
	"github.com/tbourn/go-rewards-shop/internal/ledger"
	"github.com/tbourn/go-rewards-shop/internal/repo"
)

const (
	// DefaultHistoryLimit is the number of history entries shown to a viewer.
	DefaultHistoryLimit = 50
	// DefaultMaxQuantity caps a single submission.
	DefaultMaxQuantity = 100
	// DefaultIdempotencyTTL is how long a submission key is remembered.
	DefaultIdempotencyTTL = 24 * time.Hour

	idempotencyScope = "redeem"

	msgPerkActivated = "Perk activated!"
	msgSubmitted     = "Redemption submitted for approval"
)

// RedemptionRepo is the persistence contract for redemptions and their
// history entries (see repo.RedemptionStore).
type RedemptionRepo interface {
	CreateRedemption(ctx context.Context, db *gorm.DB, r *domain.Redemption) error
	GetRedemption(ctx context.Context, db *gorm.DB, id string) (*domain.Redemption, error)
	ListRedemptions(ctx context.Context, db *gorm.DB, status domain.RedemptionStatus, offset, limit int) ([]domain.Redemption, error)
	CountRedemptions(ctx context.Context, db *gorm.DB, status domain.RedemptionStatus) (int64, error)
	TransitionRedemption(ctx context.Context, db *gorm.DB, id string, from, to domain.RedemptionStatus, by string, processedAt *time.Time) (bool, error)
	CreateHistoryEntry(ctx context.Context, db *gorm.DB, r *domain.Redemption) (*domain.HistoryEntry, error)
	SetHistoryStatus(ctx context.Context, db *gorm.DB, redemptionID string, status domain.RedemptionStatus) error
	ListHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.HistoryEntry, error)
}

// IdempotencyRepo stores submission keys (see repo.IdempotencyStore).
type IdempotencyRepo interface {
	GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	ClaimIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, ttl time.Duration, now time.Time) (*domain.Idempotency, error)
	CompleteIdempotency(ctx context.Context, db *gorm.DB, id, resourceID string) error
	ReleaseIdempotency(ctx context.Context, db *gorm.DB, id string) error
}

// PointsLedger is the subset of *ledger.Ledger used by the workflow.
type PointsLedger interface {
	Reserve(ctx context.Context, userID string, amount int64) (*ledger.Reservation, error)
	Refund(ctx context.Context, userID string, amount int64) error
	ActivateMultiplier(ctx context.Context, userID string, factor float64, duration time.Duration) (time.Time, error)
}

// Authorizer resolves the administrator acting in ctx. It returns an error
// when ctx carries no administrator.
type Authorizer interface {
	Admin(ctx context.Context) (string, error)
}

// PriorityChoice is the structured data of a priority pick.
type PriorityChoice struct {
	Server string `json:"server"`
	Action string `json:"action"`
	Custom string `json:"custom,omitempty"`
}

// SubmitRequest is a viewer's redemption attempt.
type SubmitRequest struct {
	UserID           string
	ItemID           string
	Quantity         int
	DeliveryUsername string
	Message          string
	Priority         *PriorityChoice
	// IdempotencyKey, when set, makes retries of the same submission return
	// the first result instead of spending twice.
	IdempotencyKey string
}

// SubmitResult describes a created (or replayed) redemption.
type SubmitResult struct {
	Redemption *domain.Redemption
	Message    string
	Instant    bool
	Replayed   bool
}

// Decision is an administrator verdict on a pending redemption.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Target returns the terminal status a decision leads to.
func (d Decision) Target() (domain.RedemptionStatus, bool) {
	switch d {
	case DecisionApprove:
		return domain.StatusApproved, true
	case DecisionReject:
		return domain.StatusRejected, true
	}
	return "", false
}

// DecisionResult reports the redemption after a decision. Changed is false
// when the redemption already had the requested status.
type DecisionResult struct {
	Redemption *domain.Redemption
	Changed    bool
}

// RedemptionService implements submission, decisions and the read paths of
// redemptions.
type RedemptionService struct {
	DB       *gorm.DB
	Repo     RedemptionRepo
	Items    ItemRepo
	Idem     IdempotencyRepo
	Ledger   PointsLedger
	Trending *TrendingTracker
	Authz    Authorizer
	Now      func() time.Time
	Logger   *zerolog.Logger

	MaxQuantity    int
	HistoryLimit   int
	IdempotencyTTL time.Duration
}

// NewRedemptionService constructs a RedemptionService with default limits.
func NewRedemptionService(db *gorm.DB, r RedemptionRepo, items ItemRepo, idem IdempotencyRepo, l PointsLedger, tr *TrendingTracker, authz Authorizer) *RedemptionService {
	return &RedemptionService{
		DB:             db,
		Repo:           r,
		Items:          items,
		Idem:           idem,
		Ledger:         l,
		Trending:       tr,
		Authz:          authz,
		Now:            utcNow,
		MaxQuantity:    DefaultMaxQuantity,
		HistoryLimit:   DefaultHistoryLimit,
		IdempotencyTTL: DefaultIdempotencyTTL,
	}
}

func (s *RedemptionService) log() *zerolog.Logger {
	if s.Logger == nil {
		l := zerolog.Nop()
		return &l
	}
	return s.Logger
}

func (s *RedemptionService) tracer() trace.Tracer {
	return otel.Tracer("services/RedemptionService")
}

// Submit runs the redemption workflow for one request.
//
// Order of checks: quantity, idempotency key, item existence and
// availability, item-type fields, then the ledger reservation. Nothing is
// written before the reservation succeeds; if the redemption row cannot be
// written the reservation and the idempotency claim are released before the
// error is returned.
func (s *RedemptionService) Submit(ctx context.Context, req SubmitRequest) (res *SubmitResult, err error) {
	ctx, span := s.tracer().Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("item.id", req.ItemID),
			attribute.Int("quantity", req.Quantity),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	userID := domain.NormalizeUserID(req.UserID)
	if userID == "" {
		return nil, ledger.ErrEmptyUser
	}
	maxQty := s.MaxQuantity
	if maxQty <= 0 {
		maxQty = DefaultMaxQuantity
	}
	if req.Quantity < 1 || req.Quantity > maxQty {
		return nil, ErrInvalidQuantity
	}

	var claim *domain.Idempotency
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" && s.Idem != nil {
		c, cerr := s.Idem.ClaimIdempotency(ctx, s.DB, userID, idempotencyScope, key, s.ttl(), s.now())
		if errors.Is(cerr, repo.ErrDuplicate) {
			return s.replay(ctx, userID, key)
		}
		if cerr != nil {
			return nil, &ledger.StorageError{Op: "claim_idempotency", Err: cerr}
		}
		claim = c
		defer func() {
			if err == nil {
				return
			}
			if rerr := s.Idem.ReleaseIdempotency(context.WithoutCancel(ctx), s.DB, claim.ID); rerr != nil {
				s.log().Warn().Err(rerr).Str("key", key).Msg("idempotency release failed")
			}
		}()
	}

	now := s.now()
	item, err := s.Items.GetItem(ctx, s.DB, strings.TrimSpace(req.ItemID))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, &ledger.StorageError{Op: "get_item", Err: err}
	}
	if !item.Purchasable(now) {
		return nil, ErrItemUnavailable
	}

	r := &domain.Redemption{
		UserID:           userID,
		ItemID:           item.ID,
		ItemName:         item.Name,
		Quantity:         req.Quantity,
		UnitCost:         item.Cost,
		DeliveryUsername: strings.TrimSpace(req.DeliveryUsername),
		Message:          strings.TrimSpace(req.Message),
		Status:           domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := applyItemFields(item, req, r); err != nil {
		return nil, err
	}
	if item.Cost > 0 && int64(req.Quantity) > math.MaxInt64/item.Cost {
		return nil, ErrInvalidQuantity
	}
	r.TotalCost = item.Cost * int64(req.Quantity)

	hold, err := s.Ledger.Reserve(ctx, userID, r.TotalCost)
	if err != nil {
		return nil, err
	}
	defer func() { _ = hold.Release(ctx) }()

	if err := s.create(ctx, r, claim); err != nil {
		return nil, err
	}
	hold.Commit()
	redemptionsSubmitted.WithLabelValues(string(item.Type)).Inc()

	res = &SubmitResult{Redemption: r, Message: msgSubmitted}
	if s.followUp(context.WithoutCancel(ctx), item, r) {
		res.Instant = true
		res.Message = msgPerkActivated
	}
	span.SetAttributes(attribute.String("redemption.id", r.ID), attribute.Bool("instant", res.Instant))
	return res, nil
}

// create writes the redemption row. Under an idempotency key the claim is
// completed in the same transaction, so a stored redemption is always
// reachable from its key.
func (s *RedemptionService) create(ctx context.Context, r *domain.Redemption, claim *domain.Idempotency) error {
	if claim == nil {
		if err := s.Repo.CreateRedemption(ctx, s.DB, r); err != nil {
			return &ledger.StorageError{Op: "create_redemption", Err: err}
		}
		return nil
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.CreateRedemption(ctx, tx, r); err != nil {
			return &ledger.StorageError{Op: "create_redemption", Err: err}
		}
		if err := s.Idem.CompleteIdempotency(ctx, tx, claim.ID, r.ID); err != nil {
			return &ledger.StorageError{Op: "complete_idempotency", Err: err}
		}
		return nil
	})
	if err != nil && !ledger.IsStorage(err) {
		return &ledger.StorageError{Op: "create_redemption", Err: err}
	}
	return err
}

// applyItemFields enforces the fields an item type requires and encodes the
// priority choice into the redemption message.
func applyItemFields(item *domain.Item, req SubmitRequest, r *domain.Redemption) error {
	if item.RequiresDeliveryUsername && r.DeliveryUsername == "" {
		return &MissingFieldError{Field: "delivery_username"}
	}
	if item.Type != domain.ItemTypePriority {
		return nil
	}
	p := req.Priority
	if p == nil || strings.TrimSpace(p.Server) == "" {
		return &MissingFieldError{Field: "priority.server"}
	}
	if strings.TrimSpace(p.Action) == "" {
		return &MissingFieldError{Field: "priority.action"}
	}
	choice := PriorityChoice{
		Server: strings.TrimSpace(p.Server),
		Action: strings.TrimSpace(p.Action),
		Custom: strings.TrimSpace(p.Custom),
	}
	b, err := json.Marshal(choice)
	if err != nil {
		return err
	}
	r.Message = string(b)
	return nil
}

// followUp performs the bookkeeping after a redemption exists. Failures are
// logged and counted but never undo the redemption. It reports whether an
// instant perk took effect.
func (s *RedemptionService) followUp(ctx context.Context, item *domain.Item, r *domain.Redemption) (instant bool) {
	lg := s.log().With().Str("redemption_id", r.ID).Str("user_id", r.UserID).Str("item_id", r.ItemID).Logger()

	if err := s.recordHistory(ctx, r); err != nil {
		bookkeepingFailures.WithLabelValues("history").Inc()
		lg.Error().Err(err).Msg("history entry not recorded")
	}
	if s.Trending != nil {
		if err := s.Trending.Bump(ctx, item.ID, r.Quantity); err != nil {
			bookkeepingFailures.WithLabelValues("trending").Inc()
			lg.Warn().Err(err).Msg("trending bump failed")
		}
	}
	if item.Type != domain.ItemTypePerk || item.PerkMultiplier <= 0 || item.PerkMinutes <= 0 {
		return false
	}
	exp, err := s.Ledger.ActivateMultiplier(ctx, r.UserID, item.PerkMultiplier, time.Duration(item.PerkMinutes)*time.Minute)
	if err != nil {
		bookkeepingFailures.WithLabelValues("perk").Inc()
		lg.Error().Err(err).Msg("perk activation failed")
		return false
	}
	lg.Info().Float64("multiplier", item.PerkMultiplier).Time("expires_at", exp).Msg("perk activated")
	return true
}

// recordHistory creates the history entry of a freshly created redemption.
// The redemption is already visible to administrators, so the entry takes
// the status read back from the row. An existing entry was written by a
// decision that got there first and is left alone.
func (s *RedemptionService) recordHistory(ctx context.Context, r *domain.Redemption) error {
	cur := r
	if fresh, err := s.Repo.GetRedemption(ctx, s.DB, r.ID); err == nil {
		cur = fresh
	}
	_, err := s.Repo.CreateHistoryEntry(ctx, s.DB, cur)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// syncHistory mirrors a decided redemption onto its history entry. If the
// submission has not written the entry yet, the entry is created with the
// decided status; losing that insert to the submission means the entry now
// exists and is updated instead.
func (s *RedemptionService) syncHistory(ctx context.Context, r *domain.Redemption) error {
	err := s.Repo.SetHistoryStatus(ctx, s.DB, r.ID, r.Status)
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if _, err = s.Repo.CreateHistoryEntry(ctx, s.DB, r); errors.Is(err, repo.ErrDuplicate) {
		return s.Repo.SetHistoryStatus(ctx, s.DB, r.ID, r.Status)
	}
	return err
}

// replay answers a duplicate submission from the stored idempotency record.
func (s *RedemptionService) replay(ctx context.Context, userID, key string) (*SubmitResult, error) {
	rec, err := s.Idem.GetIdempotency(ctx, s.DB, userID, idempotencyScope, key, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestInFlight
		}
		return nil, &ledger.StorageError{Op: "get_idempotency", Err: err}
	}
	if rec.ResourceID == "" {
		return nil, ErrRequestInFlight
	}
	r, err := s.Repo.GetRedemption(ctx, s.DB, rec.ResourceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestInFlight
		}
		return nil, &ledger.StorageError{Op: "get_redemption", Err: err}
	}
	redemptionReplays.Inc()

	out := &SubmitResult{Redemption: r, Message: msgSubmitted, Replayed: true}
	if item, ierr := s.Items.GetItem(ctx, s.DB, r.ItemID); ierr == nil && item.Type == domain.ItemTypePerk {
		out.Instant = true
		out.Message = msgPerkActivated
	}
	return out, nil
}

// Decide applies an administrator decision.
//
// Any decision on a redemption that is already approved or rejected is a
// no-op: it returns the redemption with its current status and
// Changed=false. A reject refunds the total cost once; if that refund fails
// the redemption is put back to pending and the error is returned so the
// decision can be retried.
func (s *RedemptionService) Decide(ctx context.Context, id string, d Decision) (res *DecisionResult, err error) {
	ctx, span := s.tracer().Start(ctx, "Decide",
		trace.WithAttributes(
			attribute.String("redemption.id", id),
			attribute.String("decision", string(d)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	admin, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	to, ok := d.Target()
	if !ok {
		return nil, ErrInvalidDecision
	}

	// A lost compare-and-set is re-read once more; a second loss means a
	// competing reject is still between its claim and its refund.
	for attempt := 0; attempt < 3; attempt++ {
		r, err := s.Repo.GetRedemption(ctx, s.DB, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrRedemptionNotFound
			}
			return nil, &ledger.StorageError{Op: "get_redemption", Err: err}
		}
		if r.Status.Terminal() {
			return &DecisionResult{Redemption: r, Changed: false}, nil
		}

		at := s.now()
		won, err := s.Repo.TransitionRedemption(ctx, s.DB, id, domain.StatusPending, to, admin, &at)
		if err != nil {
			return nil, &ledger.StorageError{Op: "transition_redemption", Err: err}
		}
		if !won {
			continue
		}

		bg := context.WithoutCancel(ctx)
		if to == domain.StatusRejected {
			if err := s.Ledger.Refund(bg, r.UserID, r.TotalCost); err != nil {
				if _, rerr := s.Repo.TransitionRedemption(bg, s.DB, id, to, domain.StatusPending, "", nil); rerr != nil {
					s.log().Error().Err(rerr).Str("redemption_id", id).Msg("could not revert rejected redemption after failed refund")
				}
				return nil, err
			}
		}
		redemptionsDecided.WithLabelValues(string(to)).Inc()

		r.Status = to
		r.ProcessedBy = admin
		r.ProcessedAt = &at
		r.UpdatedAt = at
		if err := s.syncHistory(bg, r); err != nil {
			bookkeepingFailures.WithLabelValues("history_status").Inc()
			s.log().Error().Err(err).Str("redemption_id", id).Msg("history status not updated")
		}
		s.log().Info().Str("redemption_id", id).Str("status", string(to)).Str("admin", admin).Msg("redemption decided")
		return &DecisionResult{Redemption: r, Changed: true}, nil
	}
	return nil, ErrRequestInFlight
}

// Queue returns a page of redemptions for administrators: pending first,
// then approved, then rejected, newest first within each status. An empty
// status lists all.
func (s *RedemptionService) Queue(ctx context.Context, status domain.RedemptionStatus, page, pageSize int) ([]domain.Redemption, int64, error) {
	ctx, span := s.tracer().Start(ctx, "Queue",
		trace.WithAttributes(
			attribute.String("status", string(status)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := s.authorize(ctx); err != nil {
		return nil, 0, err
	}
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountRedemptions(ctx, s.DB, status)
	if err != nil {
		return nil, 0, &ledger.StorageError{Op: "count_redemptions", Err: err}
	}
	if total == 0 {
		return []domain.Redemption{}, 0, nil
	}
	items, err := s.Repo.ListRedemptions(ctx, s.DB, status, offset, pageSize)
	if err != nil {
		return nil, 0, &ledger.StorageError{Op: "list_redemptions", Err: err}
	}
	return items, total, nil
}

// History returns the viewer's most recent history entries, newest first.
func (s *RedemptionService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	ctx, span := s.tracer().Start(ctx, "History",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	userID = domain.NormalizeUserID(userID)
	if userID == "" {
		return nil, ledger.ErrEmptyUser
	}
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out, err := s.Repo.ListHistory(ctx, s.DB, userID, limit)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list_history", Err: err}
	}
	return out, nil
}

// HistoryVersion returns the entry count and latest update of a viewer's
// history, used by handlers to build ETags.
func (s *RedemptionService) HistoryVersion(ctx context.Context, userID string) (int64, *time.Time, error) {
	n, at, err := repo.HistoryStats(ctx, s.DB, domain.NormalizeUserID(userID))
	if err != nil {
		return 0, nil, &ledger.StorageError{Op: "history_stats", Err: err}
	}
	return n, at, nil
}

func (s *RedemptionService) authorize(ctx context.Context) (string, error) {
	if s.Authz == nil {
		return "", ErrForbidden
	}
	admin, err := s.Authz.Admin(ctx)
	if err != nil || admin == "" {
		return "", ErrForbidden
	}
	return admin, nil
}

func (s *RedemptionService) now() time.Time { return nowOf(s.Now) }

func (s *RedemptionService) ttl() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return DefaultIdempotencyTTL
	}
	return s.IdempotencyTTL
}
