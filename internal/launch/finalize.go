package launch

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"token-launchpad/internal/amm"
	"token-launchpad/internal/decimals"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
)

// Finalization errors.
var (
	// ErrLiquidityAlreadyAdded is returned for repeat finalizations.
	ErrLiquidityAlreadyAdded = errors.New("liquidity already added")

	// ErrLiquidityTokensNotDeposited is returned when the escrowed pool
	// allocation cannot match the raised liquidity contribution.
	ErrLiquidityTokensNotDeposited = errors.New("liquidity tokens not fully deposited")

	// ErrNoLiquidityCommitment is returned for liquidity deposits to a
	// project whose liquidity percentage is zero.
	ErrNoLiquidityCommitment = errors.New("project commits no liquidity")

	// ErrExcessiveLiquidityDeposit is returned when a liquidity deposit
	// would exceed the full-raise ceiling.
	ErrExcessiveLiquidityDeposit = errors.New("liquidity deposit exceeds ceiling")
)

// DepositLiquidityTokens escrows project tokens for the post-sale pool.
// Owner-only. The first deposit snapshots the platform fee and the project's
// liquidity percentage so a later configuration change cannot desynchronize
// the deposit ceiling from the finalization math.
func (s *Service) DepositLiquidityTokens(ctx context.Context, caller string, projectID uint64, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return err
	}
	if caller != p.Owner {
		return ErrUnauthorized
	}
	switch p.Phase {
	case domain.PhaseUpcoming, domain.PhaseActive, domain.PhaseSuccessful:
	default:
		return ErrPhaseConflict
	}
	if p.LiquidityAdded {
		return ErrLiquidityAlreadyAdded
	}
	if p.LiquidityPercentage == 0 {
		return ErrNoLiquidityCommitment
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: non-positive deposit", ErrInvalidParams)
	}

	if p.LiquiditySnapshotAt == 0 {
		p.DepositFeeBp = s.cfg.FeeBp()
		p.DepositLiquidityBp = p.LiquidityPercentage
		p.LiquiditySnapshotAt = now
	}

	// The ceiling assumes a full raise: the goal net of the snapshotted
	// platform fee, scaled by the liquidity percentage, converted to project
	// tokens at the sale price.
	netGoal := new(big.Int).Sub(p.FundingGoal, applyBp(p.FundingGoal, p.DepositFeeBp))
	maxTokens, err := s.requiredLiquidityTokens(ctx, p, applyBp(netGoal, p.DepositLiquidityBp))
	if err != nil {
		return err
	}
	total := new(big.Int).Add(p.LiquidityTokensDeposited, amount)
	if total.Cmp(maxTokens) > 0 {
		return ErrExcessiveLiquidityDeposit
	}
	if err := s.ensurePullable(ctx, p.ProjectToken, caller, amount); err != nil {
		return err
	}

	p.LiquidityTokensDeposited = total
	if err := s.projects.Update(ctx, p); err != nil {
		return fmt.Errorf("store project: %w", err)
	}
	if err := s.tokens.TransferFrom(ctx, p.ProjectToken, s.escrow, caller, s.escrow, amount); err != nil {
		return fmt.Errorf("pull liquidity tokens: %w", err)
	}
	return nil
}

// FinalizeResult reports how a successful sale's escrow was dispersed.
type FinalizeResult struct {
	Fee                   *big.Int // platform fee, contribution tokens
	LiquidityContribution *big.Int // contribution tokens seeded into the pool
	MatchingTokens        *big.Int // project tokens seeded into the pool
	LPShares              *big.Int // locked LP shares minted to the owner
	OwnerProceeds         *big.Int // contribution tokens released to the owner
	ReturnedTokens        *big.Int // surplus escrowed project tokens returned
}

// FinalizeLiquidityAndRelease disperses a successful sale's escrow: platform
// fee out, a slice of the net raise paired with escrowed project tokens into
// a time-locked pool position owned by the project owner, and the remainder
// released to the owner. One-shot; callable by the project owner or the
// platform owner. Completes the project.
func (s *Service) FinalizeLiquidityAndRelease(ctx context.Context, caller string, projectID uint64) (*FinalizeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if caller != p.Owner && caller != s.cfg.Owner() {
		return nil, ErrUnauthorized
	}
	if p.Phase != domain.PhaseSuccessful && p.Phase != domain.PhaseClaimable {
		return nil, ErrPhaseConflict
	}
	if p.LiquidityAdded {
		return nil, ErrLiquidityAlreadyAdded
	}

	// A project that never took a liquidity deposit settles against the
	// configuration in force now.
	if p.LiquiditySnapshotAt == 0 {
		p.DepositFeeBp = s.cfg.FeeBp()
		p.DepositLiquidityBp = p.LiquidityPercentage
		p.LiquiditySnapshotAt = s.now()
	}

	fee := applyBp(p.TotalRaised, p.DepositFeeBp)
	netRaised := new(big.Int).Sub(p.TotalRaised, fee)
	liquidityContribution := applyBp(netRaised, p.DepositLiquidityBp)

	matchingTokens := new(big.Int)
	if liquidityContribution.Sign() > 0 {
		matchingTokens, err = s.requiredLiquidityTokens(ctx, p, liquidityContribution)
		if err != nil {
			return nil, err
		}
		if matchingTokens.Cmp(p.LiquidityTokensDeposited) > 0 {
			return nil, ErrLiquidityTokensNotDeposited
		}
	}

	returned := new(big.Int).Sub(p.LiquidityTokensDeposited, matchingTokens)
	ownerProceeds := new(big.Int).Sub(netRaised, liquidityContribution)

	// Escrow must cover every leg of the dispersal before state commits:
	// fee + liquidity + proceeds equal the raise, pool seed + surplus equal
	// the escrowed deposit.
	if err := s.ensurePayable(ctx, p.ContributionToken, p.TotalRaised); err != nil {
		return nil, err
	}
	if err := s.ensurePayable(ctx, p.ProjectToken, p.LiquidityTokensDeposited); err != nil {
		return nil, err
	}

	p.LiquidityAdded = true
	p.LiquidityTokensDeposited = new(big.Int)
	if err := s.transition(p, domain.PhaseCompleted); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("store project: %w", err)
	}

	if fee.Sign() > 0 {
		if err := s.tokens.Transfer(ctx, p.ContributionToken, s.escrow, s.cfg.FeeRecipient(), fee); err != nil {
			return nil, fmt.Errorf("pay platform fee: %w", err)
		}
	}

	result := &FinalizeResult{
		Fee:                   fee,
		LiquidityContribution: liquidityContribution,
		MatchingTokens:        matchingTokens,
		LPShares:              new(big.Int),
		OwnerProceeds:         ownerProceeds,
		ReturnedTokens:        returned,
	}

	outcome := "no_pool"
	if liquidityContribution.Sign() > 0 && matchingTokens.Sign() > 0 {
		added, err := s.engine.AddLiquidityWithLock(ctx, s.escrow, amm.AddLiquidityRequest{
			TokenA:         p.ContributionToken,
			TokenB:         p.ProjectToken,
			AmountADesired: liquidityContribution,
			AmountBDesired: matchingTokens,
			To:             p.Owner,
		}, p.ID, p.LockDuration)
		if err != nil {
			return nil, fmt.Errorf("seed liquidity pool: %w", err)
		}
		result.LPShares = added.Liquidity
		outcome = "with_pool"
	}

	if ownerProceeds.Sign() > 0 {
		if err := s.tokens.Transfer(ctx, p.ContributionToken, s.escrow, p.Owner, ownerProceeds); err != nil {
			return nil, fmt.Errorf("release proceeds: %w", err)
		}
	}
	if returned.Sign() > 0 {
		if err := s.tokens.Transfer(ctx, p.ProjectToken, s.escrow, p.Owner, returned); err != nil {
			return nil, fmt.Errorf("return surplus tokens: %w", err)
		}
	}

	observability.RecordFinalization(outcome)
	s.logger.Printf("project %d finalized: fee %s, pool %s/%s (shares %s), proceeds %s",
		projectID, fee, liquidityContribution, matchingTokens, result.LPShares, ownerProceeds)
	return result, nil
}

// requiredLiquidityTokens converts a contribution-token amount to the
// project-token amount that matches it at the sale price.
func (s *Service) requiredLiquidityTokens(ctx context.Context, p *domain.Project, contribution *big.Int) (*big.Int, error) {
	contribDecimals, err := s.tokens.Decimals(ctx, p.ContributionToken)
	if err != nil {
		return nil, fmt.Errorf("contribution token decimals: %w", err)
	}
	needed, err := decimals.TokensDue(contribution, p.TokenPrice, contribDecimals)
	if err != nil {
		return nil, fmt.Errorf("liquidity conversion: %w", err)
	}
	return needed, nil
}
