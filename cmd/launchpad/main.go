// Package main runs the launchpad service: the funding state machine, the
// pool engine, and their HTTP surface, backed by in-memory stores or by
// PostgreSQL + ClickHouse.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"token-launchpad/internal/amm"
	"token-launchpad/internal/decimals"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/lockledger"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/storage/migrations"
	"token-launchpad/internal/token"
	"token-launchpad/internal/vesting"

	chstore "token-launchpad/internal/storage/clickhouse"
	pgstore "token-launchpad/internal/storage/postgres"
)

// allStores holds every storage implementation the services need.
type allStores struct {
	projects      storage.ProjectStore
	contributions storage.ContributionStore
	vestings      storage.VestingStore
	pools         storage.PoolStore
	balances      storage.LPBalanceStore
	locks         storage.LockStore
	swaps         storage.SwapRecordStore
	observations  storage.PriceObservationStore
}

func main() {
	loadEnvFile()

	addr := flag.String("addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	owner := flag.String("owner", os.Getenv("PLATFORM_OWNER"), "Platform owner account (base58)")
	feeRecipient := flag.String("fee-recipient", os.Getenv("PLATFORM_FEE_RECIPIENT"), "Platform fee recipient account (base58)")
	feeBp := flag.Uint("fee-bp", 500, "Platform fee on successful raises, basis points")
	protocolFeeShareBp := flag.Uint("protocol-fee-share-bp", 2000, "Protocol share of pool trading fees, basis points")
	swapFeeBp := flag.Uint("swap-fee-bp", 30, "Pool trading fee, basis points")
	withdrawalDelay := flag.Duration("withdrawal-delay", 24*time.Hour, "Delay before unsold-token withdrawal after sale end")
	approvedTokens := flag.String("approved-tokens", os.Getenv("APPROVED_TOKENS"), "Comma-separated approved contribution token addresses")

	flag.Parse()

	logger := log.New(os.Stdout, "[launchpad] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}
	if *owner == "" {
		*owner = domain.DeriveCustodyAddress("launchpad/platform-owner")
		logger.Printf("No --owner given, derived platform owner %s", *owner)
	}
	if *feeRecipient == "" {
		*feeRecipient = *owner
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Escrow holds raised funds and deposited sale tokens; the pool engine
	// recognizes the same identity as its platform so finalization can seed
	// locked liquidity directly from escrow. The vault custodies reserves.
	escrow := domain.DeriveCustodyAddress("launchpad/escrow")
	vault := domain.DeriveCustodyAddress("launchpad/pool-vault")

	ledger := token.NewMemoryLedger(escrow)
	locks := lockledger.New(stores.locks)

	engine := amm.NewEngine(amm.Options{
		Pools:              stores.pools,
		Balances:           stores.balances,
		Swaps:              stores.swaps,
		Observations:       stores.observations,
		Locks:              locks,
		Tokens:             ledger,
		Vault:              vault,
		Platform:           escrow,
		FeeRecipient:       *feeRecipient,
		SwapFeeBp:          uint32(*swapFeeBp),
		ProtocolFeeShareBp: uint32(*protocolFeeShareBp),
		Logger:             log.New(os.Stdout, "[amm] ", log.LstdFlags|log.Lshortfile),
	})

	cfg, err := launch.NewConfig(launch.ConfigOptions{
		Owner:              *owner,
		FeeBp:              uint32(*feeBp),
		FeeRecipient:       *feeRecipient,
		ProtocolFeeShareBp: uint32(*protocolFeeShareBp),
		WithdrawalDelay:    int64(withdrawalDelay.Seconds()),
		ContributionTokens: splitList(*approvedTokens),
	})
	if err != nil {
		logger.Fatalf("Invalid platform configuration: %v", err)
	}

	launches := launch.NewService(launch.Options{
		Config:        cfg,
		Projects:      stores.projects,
		Contributions: stores.contributions,
		Vestings:      stores.vestings,
		Tokens:        ledger,
		Engine:        engine,
		Escrow:        escrow,
		Logger:        log.New(os.Stdout, "[launch] ", log.LstdFlags|log.Lshortfile),
	})

	api := &apiServer{
		launches: launches,
		pools:    engine,
		tokens:   ledger,
		logger:   logger,
		started:  time.Now(),
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: api.routes(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	uptimeTicker := time.NewTicker(time.Second)
	defer uptimeTicker.Stop()
	go func() {
		for range uptimeTicker.C {
			observability.RecordUptimeTick()
		}
	}()

	go func() {
		logger.Printf("Listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	sig := <-sigCh
	logger.Printf("Received signal %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores builds the storage layer, applying migrations in DB mode.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			projects:      memory.NewProjectStore(),
			contributions: memory.NewContributionStore(),
			vestings:      memory.NewVestingStore(),
			pools:         memory.NewPoolStore(),
			balances:      memory.NewLPBalanceStore(),
			locks:         memory.NewLockStore(),
			swaps:         memory.NewSwapRecordStore(),
			observations:  memory.NewPriceObservationStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply clickhouse migrations: %w", err)
	}

	stores := &allStores{
		projects:      pgstore.NewProjectStore(pool),
		contributions: pgstore.NewContributionStore(pool),
		vestings:      pgstore.NewVestingStore(pool),
		pools:         pgstore.NewPoolStore(pool),
		balances:      pgstore.NewLPBalanceStore(pool),
		locks:         pgstore.NewLockStore(pool),
		swaps:         chstore.NewSwapRecordStore(chConn),
		observations:  chstore.NewPriceObservationStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// apiServer exposes the launchpad and pool operations over JSON.
type apiServer struct {
	launches *launch.Service
	pools    *amm.Engine
	tokens   *token.MemoryLedger
	logger   *log.Logger
	started  time.Time
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("POST /api/tokens", s.instrument("create_token", s.handleCreateToken))
	mux.HandleFunc("POST /api/projects", s.instrument("create_project", s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.instrument("get_project", s.handleGetProject))
	mux.HandleFunc("GET /api/projects", s.instrument("list_projects", s.handleListProjects))
	mux.HandleFunc("POST /api/projects/{id}/deposit-sale", s.instrument("deposit_sale", s.handleDepositSale))
	mux.HandleFunc("POST /api/projects/{id}/deposit-liquidity", s.instrument("deposit_liquidity", s.handleDepositLiquidity))
	mux.HandleFunc("POST /api/projects/{id}/contribute", s.instrument("contribute", s.handleContribute))
	mux.HandleFunc("POST /api/projects/{id}/finalize", s.instrument("finalize", s.handleFinalize))
	mux.HandleFunc("POST /api/projects/{id}/claim", s.instrument("claim", s.handleClaim))
	mux.HandleFunc("POST /api/projects/{id}/refund", s.instrument("refund", s.handleRefund))
	mux.HandleFunc("POST /api/projects/{id}/withdraw-unsold", s.instrument("withdraw_unsold", s.handleWithdrawUnsold))
	mux.HandleFunc("POST /api/projects/{id}/finalize-liquidity", s.instrument("finalize_liquidity", s.handleFinalizeLiquidity))
	mux.HandleFunc("GET /api/projects/{id}/contributions/{contributor}", s.instrument("get_contribution", s.handleGetContribution))

	mux.HandleFunc("POST /api/pools/add-liquidity", s.instrument("add_liquidity", s.handleAddLiquidity))
	mux.HandleFunc("POST /api/pools/remove-liquidity", s.instrument("remove_liquidity", s.handleRemoveLiquidity))
	mux.HandleFunc("POST /api/pools/swap", s.instrument("swap", s.handleSwap))
	mux.HandleFunc("POST /api/pools/collect-fees", s.instrument("collect_fees", s.handleCollectFees))
	mux.HandleFunc("POST /api/pools/unlock", s.instrument("unlock", s.handleUnlock))
	mux.HandleFunc("GET /api/pools/quote", s.instrument("quote", s.handleQuote))
	mux.HandleFunc("GET /api/pools/reserves", s.instrument("reserves", s.handleReserves))
	mux.HandleFunc("GET /api/pools/lp-balance", s.instrument("lp_balance", s.handleLPBalance))
	mux.HandleFunc("GET /api/pools/twap", s.instrument("twap", s.handleTWAP))

	return mux
}

// instrument wraps a handler with request duration and status metrics.
func (s *apiServer) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(sw.status), time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "running",
		"uptime": time.Since(s.started).String(),
	})
}

type createTokenRequest struct {
	Caller        string `json:"caller"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	InitialSupply string `json:"initial_supply"`
	LogoURI       string `json:"logo_uri"`
	Owner         string `json:"owner"`
}

func (s *apiServer) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if !readJSON(w, r, &req) {
		return
	}
	supply, ok := parseAmount(w, req.InitialSupply)
	if !ok {
		return
	}
	owner := req.Owner
	if owner == "" {
		owner = req.Caller
	}

	addr, err := s.tokens.CreateToken(r.Context(), req.Caller, req.Name, req.Symbol, supply, req.LogoURI, owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"address": addr})
}

type createProjectRequest struct {
	Caller            string `json:"caller"`
	ProjectToken      string `json:"project_token"`
	ContributionToken string `json:"contribution_token"`

	FundingGoal     string `json:"funding_goal"`
	SoftCap         string `json:"soft_cap"`
	MinContribution string `json:"min_contribution"`
	MaxContribution string `json:"max_contribution"`
	TokenPrice      string `json:"token_price"`

	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`

	TokensForSale       string `json:"tokens_for_sale"`
	LiquidityPercentage uint32 `json:"liquidity_percentage"`
	LockDuration        int64  `json:"lock_duration"`

	VestingEnabled          bool   `json:"vesting_enabled"`
	VestingCliff            int64  `json:"vesting_cliff"`
	VestingDuration         int64  `json:"vesting_duration"`
	VestingInterval         int64  `json:"vesting_interval"`
	VestingInitialReleaseBp uint32 `json:"vesting_initial_release_bp"`
}

func (s *apiServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !readJSON(w, r, &req) {
		return
	}

	amounts := make([]*big.Int, 5)
	for i, raw := range []string{req.FundingGoal, req.SoftCap, req.MinContribution, req.MaxContribution, req.TokenPrice} {
		v, ok := parseAmount(w, raw)
		if !ok {
			return
		}
		amounts[i] = v
	}
	forSale, ok := parseAmount(w, req.TokensForSale)
	if !ok {
		return
	}

	p, err := s.launches.CreateProject(r.Context(), req.Caller, launch.CreateProjectRequest{
		ProjectToken:        req.ProjectToken,
		ContributionToken:   req.ContributionToken,
		FundingGoal:         amounts[0],
		SoftCap:             amounts[1],
		MinContribution:     amounts[2],
		MaxContribution:     amounts[3],
		TokenPrice:          amounts[4],
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		TokensForSale:       forSale,
		LiquidityPercentage: req.LiquidityPercentage,
		LockDuration:        req.LockDuration,
		Vesting: domain.VestingParams{
			Enabled:          req.VestingEnabled,
			Cliff:            req.VestingCliff,
			Duration:         req.VestingDuration,
			Interval:         req.VestingInterval,
			InitialReleaseBp: req.VestingInitialReleaseBp,
		},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectJSON(p))
}

func (s *apiServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.launches.GetProject(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectJSON(p))
}

func (s *apiServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var (
		projects []*domain.Project
		err      error
	)
	switch {
	case r.URL.Query().Get("owner") != "":
		projects, err = s.launches.ListByOwner(r.Context(), r.URL.Query().Get("owner"))
	case r.URL.Query().Get("phase") != "":
		phase, perr := parsePhase(r.URL.Query().Get("phase"))
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		projects, err = s.launches.ListByPhase(r.Context(), phase)
	default:
		http.Error(w, "owner or phase query parameter required", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type amountRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *apiServer) handleDepositSale(w http.ResponseWriter, r *http.Request) {
	s.projectAmountCall(w, r, s.launches.DepositSaleTokens)
}

func (s *apiServer) handleDepositLiquidity(w http.ResponseWriter, r *http.Request) {
	s.projectAmountCall(w, r, s.launches.DepositLiquidityTokens)
}

func (s *apiServer) handleContribute(w http.ResponseWriter, r *http.Request) {
	s.projectAmountCall(w, r, s.launches.Contribute)
}

// projectAmountCall handles the shared caller+amount request shape.
func (s *apiServer) projectAmountCall(w http.ResponseWriter, r *http.Request, call func(context.Context, string, uint64, *big.Int) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !readJSON(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	if err := call(r.Context(), req.Caller, id, amount); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *apiServer) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	phase, err := s.launches.FinalizeByTime(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"phase": phase.String()})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *apiServer) handleClaim(w http.ResponseWriter, r *http.Request) {
	s.callerAmountResult(w, r, "claimed", s.launches.ClaimTokens)
}

func (s *apiServer) handleRefund(w http.ResponseWriter, r *http.Request) {
	s.callerAmountResult(w, r, "refunded", s.launches.RequestRefund)
}

func (s *apiServer) handleWithdrawUnsold(w http.ResponseWriter, r *http.Request) {
	s.callerAmountResult(w, r, "withdrawn", s.launches.WithdrawUnsoldTokens)
}

// callerAmountResult handles caller-only operations returning one amount.
func (s *apiServer) callerAmountResult(w http.ResponseWriter, r *http.Request, key string, call func(context.Context, string, uint64) (*big.Int, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if !readJSON(w, r, &req) {
		return
	}
	amount, err := call(r.Context(), req.Caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{key: amount.String()})
}

func (s *apiServer) handleFinalizeLiquidity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if !readJSON(w, r, &req) {
		return
	}
	res, err := s.launches.FinalizeLiquidityAndRelease(r.Context(), req.Caller, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"fee":                    res.Fee.String(),
		"liquidity_contribution": res.LiquidityContribution.String(),
		"matching_tokens":        res.MatchingTokens.String(),
		"lp_shares":              res.LPShares.String(),
		"owner_proceeds":         res.OwnerProceeds.String(),
		"returned_tokens":        res.ReturnedTokens.String(),
	})
}

func (s *apiServer) handleGetContribution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.launches.GetContribution(r.Context(), id, r.PathValue("contributor"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id":  c.ProjectID,
		"contributor": c.Contributor,
		"amount":      c.Amount.String(),
		"refunded":    c.Refunded,
		"first_at":    c.FirstAt,
		"updated_at":  c.UpdatedAt,
	})
}

type liquidityRequest struct {
	Caller         string `json:"caller"`
	TokenA         string `json:"token_a"`
	TokenB         string `json:"token_b"`
	AmountADesired string `json:"amount_a_desired"`
	AmountBDesired string `json:"amount_b_desired"`
	AmountAMin     string `json:"amount_a_min"`
	AmountBMin     string `json:"amount_b_min"`
	To             string `json:"to"`
	Deadline       int64  `json:"deadline"`
}

func (s *apiServer) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req liquidityRequest
	if !readJSON(w, r, &req) {
		return
	}
	aDes, ok := parseAmount(w, req.AmountADesired)
	if !ok {
		return
	}
	bDes, ok := parseAmount(w, req.AmountBDesired)
	if !ok {
		return
	}
	aMin, ok := parseAmount(w, req.AmountAMin)
	if !ok {
		return
	}
	bMin, ok := parseAmount(w, req.AmountBMin)
	if !ok {
		return
	}

	res, err := s.pools.AddLiquidity(r.Context(), req.Caller, amm.AddLiquidityRequest{
		TokenA:         req.TokenA,
		TokenB:         req.TokenB,
		AmountADesired: aDes,
		AmountBDesired: bDes,
		AmountAMin:     aMin,
		AmountBMin:     bMin,
		To:             req.To,
		Deadline:       req.Deadline,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount_a":  res.AmountA.String(),
		"amount_b":  res.AmountB.String(),
		"liquidity": res.Liquidity.String(),
	})
}

type removeLiquidityRequest struct {
	Caller     string `json:"caller"`
	TokenA     string `json:"token_a"`
	TokenB     string `json:"token_b"`
	LPAmount   string `json:"lp_amount"`
	AmountAMin string `json:"amount_a_min"`
	AmountBMin string `json:"amount_b_min"`
	To         string `json:"to"`
	Deadline   int64  `json:"deadline"`
}

func (s *apiServer) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req removeLiquidityRequest
	if !readJSON(w, r, &req) {
		return
	}
	lp, ok := parseAmount(w, req.LPAmount)
	if !ok {
		return
	}
	aMin, ok := parseAmount(w, req.AmountAMin)
	if !ok {
		return
	}
	bMin, ok := parseAmount(w, req.AmountBMin)
	if !ok {
		return
	}

	res, err := s.pools.RemoveLiquidity(r.Context(), req.Caller, amm.RemoveLiquidityRequest{
		TokenA:     req.TokenA,
		TokenB:     req.TokenB,
		LPAmount:   lp,
		AmountAMin: aMin,
		AmountBMin: bMin,
		To:         req.To,
		Deadline:   req.Deadline,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount_a":  res.AmountA.String(),
		"amount_b":  res.AmountB.String(),
		"liquidity": res.Liquidity.String(),
	})
}

type swapRequest struct {
	Caller       string `json:"caller"`
	TokenIn      string `json:"token_in"`
	TokenOut     string `json:"token_out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
	To           string `json:"to"`
	Deadline     int64  `json:"deadline"`
}

func (s *apiServer) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !readJSON(w, r, &req) {
		return
	}
	amountIn, ok := parseAmount(w, req.AmountIn)
	if !ok {
		return
	}
	minOut, ok := parseAmount(w, req.MinAmountOut)
	if !ok {
		return
	}

	res, err := s.pools.Swap(r.Context(), req.Caller, amm.SwapRequest{
		TokenIn:      req.TokenIn,
		TokenOut:     req.TokenOut,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		To:           req.To,
		Deadline:     req.Deadline,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount_out": res.AmountOut.String(),
		"fee_paid":   res.FeePaid.String(),
	})
}

type pairRequest struct {
	Caller string `json:"caller"`
	TokenA string `json:"token_a"`
	TokenB string `json:"token_b"`
}

func (s *apiServer) handleCollectFees(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.pools.CollectProtocolFees(r.Context(), req.Caller, req.TokenA, req.TokenB); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *apiServer) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := s.pools.UnlockLiquidity(r.Context(), req.Caller, req.TokenA, req.TokenB); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *apiServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amountIn, ok := parseAmount(w, q.Get("amount_in"))
	if !ok {
		return
	}
	out, err := s.pools.Quote(r.Context(), q.Get("token_in"), q.Get("token_out"), amountIn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount_out": out.String()})
}

func (s *apiServer) handleReserves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reserveA, reserveB, err := s.pools.GetReserves(r.Context(), q.Get("token_a"), q.Get("token_b"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"reserve_a": reserveA.String(),
		"reserve_b": reserveB.String(),
	})
}

func (s *apiServer) handleLPBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	balance, err := s.pools.LPBalance(r.Context(), q.Get("token_a"), q.Get("token_b"), q.Get("owner"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (s *apiServer) handleTWAP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := strconv.ParseInt(q.Get("period"), 10, 64)
	if err != nil {
		http.Error(w, "invalid period", http.StatusBadRequest)
		return
	}
	price, err := s.pools.GetTWAP(r.Context(), q.Get("token_a"), q.Get("token_b"), period)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"price": price.String()})
}

// projectJSON renders a project with string-encoded amounts.
func projectJSON(p *domain.Project) map[string]any {
	return map[string]any{
		"id":                         p.ID,
		"owner":                      p.Owner,
		"project_token":              p.ProjectToken,
		"contribution_token":         p.ContributionToken,
		"funding_goal":               p.FundingGoal.String(),
		"soft_cap":                   p.SoftCap.String(),
		"min_contribution":           p.MinContribution.String(),
		"max_contribution":           p.MaxContribution.String(),
		"token_price":                p.TokenPrice.String(),
		"start_time":                 p.StartTime,
		"end_time":                   p.EndTime,
		"tokens_for_sale":            p.TokensForSale.String(),
		"liquidity_percentage":       p.LiquidityPercentage,
		"lock_duration":              p.LockDuration,
		"vesting_enabled":            p.Vesting.Enabled,
		"phase":                      p.Phase.String(),
		"total_raised":               p.TotalRaised.String(),
		"liquidity_added":            p.LiquidityAdded,
		"sale_tokens_deposited":      p.SaleTokensDeposited.String(),
		"liquidity_tokens_deposited": p.LiquidityTokensDeposited.String(),
		"created_at":                 p.CreatedAt,
	}
}

func parsePhase(s string) (domain.Phase, error) {
	for phase := domain.PhaseUpcoming; phase <= domain.PhaseCompleted; phase++ {
		if phase.String() == s {
			return phase, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// writeError maps service errors onto HTTP status codes.
func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, launch.ErrProjectNotFound),
		errors.Is(err, amm.ErrPoolNotFound),
		errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, launch.ErrUnauthorized), errors.Is(err, amm.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, launch.ErrPhaseConflict):
		status = http.StatusConflict
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, amm.ErrInsufficientLPBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, decimals.ErrCalculationOverflow):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, vesting.ErrNoTokensVested), errors.Is(err, lockledger.ErrLiquidityLocked):
		status = http.StatusConflict
	}

	if status >= http.StatusInternalServerError {
		s.logger.Printf("request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseAmount parses a non-negative base-10 amount. Empty reads as zero.
func parseAmount(w http.ResponseWriter, s string) (*big.Int, bool) {
	if s == "" {
		return new(big.Int), true
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		http.Error(w, fmt.Sprintf("invalid amount %q", s), http.StatusBadRequest)
		return nil, false
	}
	return v, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
