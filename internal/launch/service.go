// Package launch runs the token sale lifecycle: project registration, escrowed
// deposits, contribution accounting, phase transitions, claims, refunds, and
// the hand-off of raised funds into a locked liquidity pool.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"token-launchpad/internal/amm"
	"token-launchpad/internal/decimals"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/token"
	"token-launchpad/internal/vesting"
)

const bpDenominator = 10000

// Sale lifecycle errors.
var (
	// ErrProjectNotFound is returned for operations on an unknown project.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidParams is returned for unusable project parameters.
	ErrInvalidParams = errors.New("invalid project parameters")

	// ErrPhaseConflict is returned when an operation is not allowed in the
	// project's current phase.
	ErrPhaseConflict = errors.New("operation not allowed in current phase")

	// ErrSaleNotStarted is returned for contributions before the start time.
	ErrSaleNotStarted = errors.New("sale has not started")

	// ErrSaleEnded is returned for contributions at or after the end time.
	ErrSaleEnded = errors.New("sale has ended")

	// ErrSaleNotEnded is returned when finalization is attempted early.
	ErrSaleNotEnded = errors.New("sale has not ended")

	// ErrOwnerContribution is returned when the project owner tries to
	// contribute to their own sale.
	ErrOwnerContribution = errors.New("project owner cannot contribute")

	// ErrBelowMinContribution is returned when a contributor's cumulative
	// total would sit below the project floor.
	ErrBelowMinContribution = errors.New("below minimum contribution")

	// ErrAboveMaxContribution is returned when a contributor's cumulative
	// total would exceed the project ceiling.
	ErrAboveMaxContribution = errors.New("above maximum contribution")

	// ErrExceedsFundingGoal is returned when a contribution would push the
	// total raised past the hard cap. An exact fill is accepted.
	ErrExceedsFundingGoal = errors.New("contribution exceeds funding goal")

	// ErrTokenNotApproved is returned when a project names a contribution
	// token the platform has not approved.
	ErrTokenNotApproved = errors.New("contribution token not approved")

	// ErrSaleTokensNotDeposited is returned for contributions before the
	// owner has escrowed the full sale allocation.
	ErrSaleTokensNotDeposited = errors.New("sale tokens not fully deposited")

	// ErrExcessiveDeposit is returned when a deposit would exceed the
	// project's declared allocation.
	ErrExcessiveDeposit = errors.New("deposit exceeds declared allocation")

	// ErrNoContribution is returned when the caller never contributed.
	ErrNoContribution = errors.New("no contribution on record")

	// ErrAlreadyRefunded is returned for repeat refund requests.
	ErrAlreadyRefunded = errors.New("contribution already refunded")

	// ErrNothingToWithdraw is returned when no unsold tokens remain.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")

	// ErrWithdrawalTooEarly is returned before the post-sale delay passes.
	ErrWithdrawalTooEarly = errors.New("withdrawal delay has not passed")
)

// Options configures a Service.
type Options struct {
	Config        *Config
	Projects      storage.ProjectStore
	Contributions storage.ContributionStore
	Vestings      storage.VestingStore
	Tokens        token.Ledger
	Engine        *amm.Engine

	// Escrow is the custody account that holds deposited sale tokens and
	// raised funds. The pool engine must recognize the same identity as its
	// platform so finalization can seed locked liquidity from escrow.
	Escrow string

	Logger *log.Logger
	Now    func() int64 // unix seconds, defaults to time.Now
}

// Service owns the sale lifecycle. Mutating operations are strictly
// serialized, mirroring the single-writer discipline of the pool engine.
type Service struct {
	mu sync.Mutex

	cfg           *Config
	projects      storage.ProjectStore
	contributions storage.ContributionStore
	vestings      storage.VestingStore
	tokens        token.Ledger
	engine        *amm.Engine
	escrow        string

	logger *log.Logger
	now    func() int64
}

// NewService creates a sale lifecycle service.
func NewService(opts Options) *Service {
	s := &Service{
		cfg:           opts.Config,
		projects:      opts.Projects,
		contributions: opts.Contributions,
		vestings:      opts.Vestings,
		tokens:        opts.Tokens,
		engine:        opts.Engine,
		escrow:        opts.Escrow,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = func() int64 { return time.Now().Unix() }
	}
	return s
}

// CreateProjectRequest carries the parameters of a new launch.
type CreateProjectRequest struct {
	ProjectToken      string
	ContributionToken string

	FundingGoal     *big.Int
	SoftCap         *big.Int
	MinContribution *big.Int
	MaxContribution *big.Int
	TokenPrice      *big.Int

	StartTime int64
	EndTime   int64

	TokensForSale       *big.Int
	LiquidityPercentage uint32
	LockDuration        int64
	Vesting             domain.VestingParams
}

// CreateProject registers a new launch owned by the caller. The project
// starts Upcoming; it activates on the first contribution at or after the
// start time.
func (s *Service) CreateProject(ctx context.Context, caller string, req CreateProjectRequest) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if err := domain.ValidateAddress(caller); err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress(req.ProjectToken); err != nil {
		return nil, fmt.Errorf("project token: %w", err)
	}
	if err := domain.ValidateAddress(req.ContributionToken); err != nil {
		return nil, fmt.Errorf("contribution token: %w", err)
	}
	if req.ProjectToken == req.ContributionToken {
		return nil, fmt.Errorf("%w: project and contribution token are identical", ErrInvalidParams)
	}
	if !s.cfg.IsApprovedContributionToken(req.ContributionToken) {
		return nil, ErrTokenNotApproved
	}

	if req.FundingGoal == nil || req.FundingGoal.Sign() <= 0 {
		return nil, fmt.Errorf("%w: funding goal must be positive", ErrInvalidParams)
	}
	if req.SoftCap == nil || req.SoftCap.Sign() <= 0 || req.SoftCap.Cmp(req.FundingGoal) > 0 {
		return nil, fmt.Errorf("%w: soft cap must be positive and at most the funding goal", ErrInvalidParams)
	}
	if req.MinContribution != nil && req.MinContribution.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative minimum contribution", ErrInvalidParams)
	}
	if req.MaxContribution != nil && req.MaxContribution.Sign() > 0 {
		if req.MinContribution != nil && req.MinContribution.Cmp(req.MaxContribution) > 0 {
			return nil, fmt.Errorf("%w: minimum contribution exceeds maximum", ErrInvalidParams)
		}
		if req.MaxContribution.Cmp(req.FundingGoal) > 0 {
			return nil, fmt.Errorf("%w: maximum contribution exceeds funding goal", ErrInvalidParams)
		}
	}
	if err := decimals.ValidateTokenPrice(req.TokenPrice); err != nil {
		return nil, err
	}
	if req.StartTime < now {
		return nil, fmt.Errorf("%w: start time in the past", ErrInvalidParams)
	}
	if req.EndTime <= req.StartTime {
		return nil, fmt.Errorf("%w: end time not after start time", ErrInvalidParams)
	}
	if req.TokensForSale == nil || req.TokensForSale.Sign() <= 0 {
		return nil, fmt.Errorf("%w: tokens for sale must be positive", ErrInvalidParams)
	}
	if req.LiquidityPercentage > bpDenominator {
		return nil, fmt.Errorf("%w: liquidity percentage above 100%%", ErrInvalidParams)
	}
	if req.LiquidityPercentage > 0 && req.LockDuration <= 0 {
		return nil, fmt.Errorf("%w: liquidity requires a positive lock duration", ErrInvalidParams)
	}
	if err := vesting.ValidateParams(req.Vesting); err != nil {
		return nil, err
	}

	contribDecimals, err := s.tokens.Decimals(ctx, req.ContributionToken)
	if err != nil {
		return nil, fmt.Errorf("contribution token decimals: %w", err)
	}

	// The declared allocation must cover a full raise at the token price.
	needed, err := decimals.TokensDue(req.FundingGoal, req.TokenPrice, contribDecimals)
	if err != nil {
		return nil, fmt.Errorf("funding goal conversion: %w", err)
	}
	if needed.Cmp(req.TokensForSale) > 0 {
		return nil, fmt.Errorf("%w: tokens for sale do not cover the funding goal", ErrInvalidParams)
	}

	p := &domain.Project{
		Owner:                    caller,
		ProjectToken:             req.ProjectToken,
		ContributionToken:        req.ContributionToken,
		FundingGoal:              new(big.Int).Set(req.FundingGoal),
		SoftCap:                  new(big.Int).Set(req.SoftCap),
		MinContribution:          cloneOrZero(req.MinContribution),
		MaxContribution:          cloneOrZero(req.MaxContribution),
		TokenPrice:               new(big.Int).Set(req.TokenPrice),
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		TokensForSale:            new(big.Int).Set(req.TokensForSale),
		LiquidityPercentage:      req.LiquidityPercentage,
		LockDuration:             req.LockDuration,
		Vesting:                  req.Vesting,
		Phase:                    domain.PhaseUpcoming,
		TotalRaised:              new(big.Int),
		SaleTokensDeposited:      new(big.Int),
		LiquidityTokensDeposited: new(big.Int),
		CreatedAt:                now,
	}
	if err := s.projects.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("store project: %w", err)
	}

	observability.RecordProjectCreated()
	s.logger.Printf("project %d created by %s: goal %s, sale window %d to %d",
		p.ID, caller, p.FundingGoal, p.StartTime, p.EndTime)
	return p.Clone(), nil
}

// DepositSaleTokens escrows part of the sale allocation. Owner-only; the
// owner must have approved the escrow account for the amount. Contributions
// stay rejected until the full allocation is deposited.
func (s *Service) DepositSaleTokens(ctx context.Context, caller string, projectID uint64, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return err
	}
	if caller != p.Owner {
		return ErrUnauthorized
	}
	if p.Phase != domain.PhaseUpcoming && p.Phase != domain.PhaseActive {
		return ErrPhaseConflict
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: non-positive deposit", ErrInvalidParams)
	}

	total := new(big.Int).Add(p.SaleTokensDeposited, amount)
	if total.Cmp(p.TokensForSale) > 0 {
		return ErrExcessiveDeposit
	}
	if err := s.ensurePullable(ctx, p.ProjectToken, caller, amount); err != nil {
		return err
	}

	p.SaleTokensDeposited = total
	if err := s.projects.Update(ctx, p); err != nil {
		return fmt.Errorf("store project: %w", err)
	}
	if err := s.tokens.TransferFrom(ctx, p.ProjectToken, s.escrow, caller, s.escrow, amount); err != nil {
		return fmt.Errorf("pull sale tokens: %w", err)
	}
	return nil
}

// Contribute records a contribution to an active sale and pulls the funds
// into escrow. The first contribution at or after the start time activates
// an Upcoming project; an exact hard-cap fill ends the sale as Successful.
func (s *Service) Contribute(ctx context.Context, caller string, projectID uint64, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.contribute(ctx, caller, projectID, amount); err != nil {
		observability.RecordContributionError(reasonFor(err))
		return err
	}
	observability.RecordContribution()
	return nil
}

func (s *Service) contribute(ctx context.Context, caller string, projectID uint64, amount *big.Int) error {
	now := s.now()

	if err := domain.ValidateAddress(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: non-positive contribution", ErrInvalidParams)
	}

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return err
	}
	if caller == p.Owner {
		return ErrOwnerContribution
	}

	if p.Phase == domain.PhaseUpcoming {
		if now < p.StartTime {
			return ErrSaleNotStarted
		}
		if err := s.transition(p, domain.PhaseActive); err != nil {
			return err
		}
	}
	if p.Phase != domain.PhaseActive {
		return ErrPhaseConflict
	}
	if now >= p.EndTime {
		return ErrSaleEnded
	}
	if p.SaleTokensDeposited.Cmp(p.TokensForSale) < 0 {
		return ErrSaleTokensNotDeposited
	}

	contribDecimals, err := s.tokens.Decimals(ctx, p.ContributionToken)
	if err != nil {
		return fmt.Errorf("contribution token decimals: %w", err)
	}
	// Reject amounts too small to buy anything at the reference precision.
	if _, err := decimals.TokensDue(amount, p.TokenPrice, contribDecimals); err != nil {
		return err
	}

	existing, err := s.contributions.Get(ctx, projectID, caller)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load contribution: %w", err)
	}

	cumulative := new(big.Int).Set(amount)
	if existing != nil {
		cumulative.Add(cumulative, existing.Amount)
	}
	if p.MinContribution.Sign() > 0 && cumulative.Cmp(p.MinContribution) < 0 {
		return ErrBelowMinContribution
	}
	if p.MaxContribution.Sign() > 0 && cumulative.Cmp(p.MaxContribution) > 0 {
		return ErrAboveMaxContribution
	}

	newTotal := new(big.Int).Add(p.TotalRaised, amount)
	if newTotal.Cmp(p.FundingGoal) > 0 {
		return ErrExceedsFundingGoal
	}
	if err := s.ensurePullable(ctx, p.ContributionToken, caller, amount); err != nil {
		return err
	}

	entry := &domain.Contribution{
		ProjectID:   projectID,
		Contributor: caller,
		Amount:      cumulative,
		FirstAt:     now,
		UpdatedAt:   now,
	}
	if existing != nil {
		entry.FirstAt = existing.FirstAt
	}

	p.TotalRaised = newTotal
	if newTotal.Cmp(p.FundingGoal) == 0 {
		// Hard cap reached: the sale ends immediately.
		if err := s.transition(p, domain.PhaseSuccessful); err != nil {
			return err
		}
	}

	if err := s.contributions.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("store contribution: %w", err)
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return fmt.Errorf("store project: %w", err)
	}
	if err := s.tokens.TransferFrom(ctx, p.ContributionToken, s.escrow, caller, s.escrow, amount); err != nil {
		return fmt.Errorf("pull contribution: %w", err)
	}

	s.logger.Printf("project %d: %s contributed %s (total raised %s)", projectID, caller, amount, newTotal)
	return nil
}

// FinalizeByTime settles a sale whose end time has passed: Successful when
// the soft cap was met, Failed otherwise. Callable by anyone.
func (s *Service) FinalizeByTime(ctx context.Context, projectID uint64) (domain.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if now < p.EndTime {
		return 0, ErrSaleNotEnded
	}

	// A sale nobody activated still settles: walk it through Active first.
	if p.Phase == domain.PhaseUpcoming {
		if err := s.transition(p, domain.PhaseActive); err != nil {
			return 0, err
		}
	}
	if p.Phase != domain.PhaseActive {
		return 0, ErrPhaseConflict
	}

	outcome := domain.PhaseFailed
	if p.TotalRaised.Cmp(p.SoftCap) >= 0 {
		outcome = domain.PhaseSuccessful
	}
	if err := s.transition(p, outcome); err != nil {
		return 0, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return 0, fmt.Errorf("store project: %w", err)
	}

	s.logger.Printf("project %d settled %s: raised %s of %s (soft cap %s)",
		projectID, outcome, p.TotalRaised, p.FundingGoal, p.SoftCap)
	return outcome, nil
}

// ClaimTokens releases the caller's currently claimable sale tokens under the
// project's vesting schedule. The first claim moves a Successful project to
// Claimable. The vesting clock starts at the sale end time, so claims stay
// open after liquidity finalization completes the project.
func (s *Service) ClaimTokens(ctx context.Context, caller string, projectID uint64) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	switch p.Phase {
	case domain.PhaseSuccessful, domain.PhaseClaimable, domain.PhaseCompleted:
	default:
		return nil, ErrPhaseConflict
	}

	contribution, err := s.contributions.Get(ctx, projectID, caller)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoContribution
	}
	if err != nil {
		return nil, fmt.Errorf("load contribution: %w", err)
	}

	contribDecimals, err := s.tokens.Decimals(ctx, p.ContributionToken)
	if err != nil {
		return nil, fmt.Errorf("contribution token decimals: %w", err)
	}
	totalDue, err := decimals.TokensDue(contribution.Amount, p.TokenPrice, contribDecimals)
	if err != nil {
		return nil, err
	}

	record, err := s.vestings.Get(ctx, projectID, caller)
	if errors.Is(err, storage.ErrNotFound) {
		record = &domain.VestingInfo{
			ProjectID:      projectID,
			Contributor:    caller,
			TotalAmount:    totalDue,
			ReleasedAmount: new(big.Int),
		}
	} else if err != nil {
		return nil, fmt.Errorf("load vesting record: %w", err)
	}

	delta, err := vesting.Claimable(totalDue, record.ReleasedAmount, p.Vesting, p.EndTime, now)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePayable(ctx, p.ProjectToken, delta); err != nil {
		return nil, err
	}

	if p.Phase == domain.PhaseSuccessful {
		if err := s.transition(p, domain.PhaseClaimable); err != nil {
			return nil, err
		}
		if err := s.projects.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("store project: %w", err)
		}
	}

	record.ReleasedAmount = new(big.Int).Add(record.ReleasedAmount, delta)
	record.LastClaimTime = now
	if err := s.vestings.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store vesting record: %w", err)
	}
	if err := s.tokens.Transfer(ctx, p.ProjectToken, s.escrow, caller, delta); err != nil {
		return nil, fmt.Errorf("release tokens: %w", err)
	}

	observability.RecordClaim()
	s.logger.Printf("project %d: %s claimed %s of %s", projectID, caller, delta, totalDue)
	return delta, nil
}

// RequestRefund returns the caller's full contribution after a failed sale.
// The first refund moves a Failed project to Refundable. One-shot per
// contributor.
func (s *Service) RequestRefund(ctx context.Context, caller string, projectID uint64) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Phase != domain.PhaseFailed && p.Phase != domain.PhaseRefundable {
		return nil, ErrPhaseConflict
	}

	contribution, err := s.contributions.Get(ctx, projectID, caller)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoContribution
	}
	if err != nil {
		return nil, fmt.Errorf("load contribution: %w", err)
	}
	if contribution.Refunded {
		return nil, ErrAlreadyRefunded
	}
	if err := s.ensurePayable(ctx, p.ContributionToken, contribution.Amount); err != nil {
		return nil, err
	}

	if p.Phase == domain.PhaseFailed {
		if err := s.transition(p, domain.PhaseRefundable); err != nil {
			return nil, err
		}
		if err := s.projects.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("store project: %w", err)
		}
	}

	contribution.Refunded = true
	contribution.UpdatedAt = s.now()
	if err := s.contributions.Upsert(ctx, contribution); err != nil {
		return nil, fmt.Errorf("store contribution: %w", err)
	}
	if err := s.tokens.Transfer(ctx, p.ContributionToken, s.escrow, caller, contribution.Amount); err != nil {
		return nil, fmt.Errorf("return contribution: %w", err)
	}

	observability.RecordRefund()
	s.logger.Printf("project %d: refunded %s to %s", projectID, contribution.Amount, caller)
	return new(big.Int).Set(contribution.Amount), nil
}

// WithdrawUnsoldTokens returns escrowed project tokens the sale no longer
// needs: the full deposits after a failed sale, or the unsold slice of the
// allocation after a successful one. Owner-only, gated by the platform's
// post-sale withdrawal delay.
func (s *Service) WithdrawUnsoldTokens(ctx context.Context, caller string, projectID uint64) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if caller != p.Owner {
		return nil, ErrUnauthorized
	}
	if now < p.EndTime+s.cfg.WithdrawalDelay() {
		return nil, ErrWithdrawalTooEarly
	}

	amount := new(big.Int)
	switch p.Phase {
	case domain.PhaseFailed, domain.PhaseRefundable:
		// Nothing was sold; both escrowed allocations go back.
		amount.Add(p.SaleTokensDeposited, p.LiquidityTokensDeposited)
		p.SaleTokensDeposited = new(big.Int)
		p.LiquidityTokensDeposited = new(big.Int)

	case domain.PhaseSuccessful, domain.PhaseClaimable, domain.PhaseCompleted:
		contribDecimals, err := s.tokens.Decimals(ctx, p.ContributionToken)
		if err != nil {
			return nil, fmt.Errorf("contribution token decimals: %w", err)
		}
		sold, err := decimals.TokensDue(p.TotalRaised, p.TokenPrice, contribDecimals)
		if err != nil {
			return nil, err
		}
		amount.Sub(p.SaleTokensDeposited, sold)
		if amount.Sign() <= 0 {
			return nil, ErrNothingToWithdraw
		}
		p.SaleTokensDeposited = sold

	default:
		return nil, ErrPhaseConflict
	}

	if amount.Sign() <= 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := s.ensurePayable(ctx, p.ProjectToken, amount); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("store project: %w", err)
	}
	if err := s.tokens.Transfer(ctx, p.ProjectToken, s.escrow, caller, amount); err != nil {
		return nil, fmt.Errorf("return tokens: %w", err)
	}

	s.logger.Printf("project %d: owner withdrew %s unsold tokens", projectID, amount)
	return amount, nil
}

// GetProject returns a copy of a project.
func (s *Service) GetProject(ctx context.Context, projectID uint64) (*domain.Project, error) {
	return s.getProject(ctx, projectID)
}

// GetContribution returns a contributor's entry for a project.
func (s *Service) GetContribution(ctx context.Context, projectID uint64, contributor string) (*domain.Contribution, error) {
	c, err := s.contributions.Get(ctx, projectID, contributor)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoContribution
	}
	return c, err
}

// GetVesting returns a contributor's vesting record for a project.
func (s *Service) GetVesting(ctx context.Context, projectID uint64, contributor string) (*domain.VestingInfo, error) {
	return s.vestings.Get(ctx, projectID, contributor)
}

// ListByOwner returns every project created by an owner.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]*domain.Project, error) {
	return s.projects.GetByOwner(ctx, owner)
}

// ListByPhase returns every project in a phase.
func (s *Service) ListByPhase(ctx context.Context, phase domain.Phase) ([]*domain.Project, error) {
	return s.projects.GetByPhase(ctx, phase)
}

// ensurePullable verifies the payer's balance and escrow allowance cover a
// pull before any state commits. The stores have no surrounding transaction,
// so a failed transfer after a store write would leave phantom state behind.
func (s *Service) ensurePullable(ctx context.Context, tok, from string, amount *big.Int) error {
	balance, err := s.tokens.BalanceOf(ctx, tok, from)
	if err != nil {
		return fmt.Errorf("check balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s on %s", token.ErrInsufficientBalance, from, tok)
	}
	allowance, err := s.tokens.Allowance(ctx, tok, from, s.escrow)
	if err != nil {
		return fmt.Errorf("check allowance: %w", err)
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s on %s", token.ErrInsufficientAllowance, from, tok)
	}
	return nil
}

// ensurePayable verifies escrow holds enough to cover an outbound release
// before any state commits.
func (s *Service) ensurePayable(ctx context.Context, tok string, amount *big.Int) error {
	balance, err := s.tokens.BalanceOf(ctx, tok, s.escrow)
	if err != nil {
		return fmt.Errorf("check escrow balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: escrow on %s", token.ErrInsufficientBalance, tok)
	}
	return nil
}

func (s *Service) getProject(ctx context.Context, projectID uint64) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return p, nil
}

// transition moves a project along a permitted phase edge.
func (s *Service) transition(p *domain.Project, to domain.Phase) error {
	if !domain.CanTransition(p.Phase, to) {
		return fmt.Errorf("%w: %s to %s", ErrPhaseConflict, p.Phase, to)
	}
	p.Phase = to
	observability.RecordPhaseTransition(to.String())
	return nil
}

// reasonFor maps a rejection to a stable metric label.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrOwnerContribution):
		return "owner"
	case errors.Is(err, ErrSaleNotStarted):
		return "not_started"
	case errors.Is(err, ErrSaleEnded):
		return "ended"
	case errors.Is(err, ErrBelowMinContribution):
		return "below_min"
	case errors.Is(err, ErrAboveMaxContribution):
		return "above_max"
	case errors.Is(err, ErrExceedsFundingGoal):
		return "over_goal"
	case errors.Is(err, ErrSaleTokensNotDeposited):
		return "tokens_not_deposited"
	case errors.Is(err, ErrPhaseConflict):
		return "phase"
	case errors.Is(err, decimals.ErrContributionTooSmall):
		return "too_small"
	case errors.Is(err, token.ErrInsufficientBalance), errors.Is(err, token.ErrInsufficientAllowance):
		return "funds"
	default:
		return "other"
	}
}

// cloneOrZero copies an optional amount, mapping nil to zero.
func cloneOrZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
